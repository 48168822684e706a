package logger

import (
	"io"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request: 4xx at warn, 5xx at error.
// Health probes are skipped and bearer tokens are masked.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/healthz"
		},
		HandleError:   true,
		LogLatency:    true,
		LogRemoteIP:   true,
		LogMethod:     true,
		LogURI:        true,
		LogRoutePath:  true,
		LogRequestID:  true,
		LogUserAgent:  true,
		LogStatus:     true,
		LogError:      true,
		LogHeaders:    []string{"Authorization"},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request.method", v.Method),
				zap.String("request.uri", v.URI),
				zap.String("request.route", v.RoutePath),
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.user_agent", v.UserAgent),
				zap.String("request.request_id", v.RequestID),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
			}
			if auth := v.Headers["Authorization"]; len(auth) > 0 {
				fields = append(fields, zap.String("request.authorization", maskToken(auth[0])))
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}

			switch {
			case v.Status >= 500:
				logger.Error("server error", fields...)
			case v.Status >= 400:
				logger.Warn("client error", fields...)
			default:
				logger.Info("request completed", fields...)
			}
			return nil
		},
	})
}

func maskToken(value string) string {
	if len(value) <= 15 {
		return "[MASKED]"
	}
	return value[:10] + "..." + value[len(value)-5:]
}

// EchoLogger adapts zap to echo.Logger so framework messages share the service log.
type EchoLogger struct {
	sugar *zap.SugaredLogger
	base  *zap.Logger
}

func NewEchoLogger(logger *zap.Logger) *EchoLogger {
	return &EchoLogger{sugar: logger.Sugar(), base: logger}
}

func (l *EchoLogger) Output() io.Writer       { return writer{l.base} }
func (l *EchoLogger) SetOutput(io.Writer)     {}
func (l *EchoLogger) Level() log.Lvl          { return log.INFO }
func (l *EchoLogger) SetLevel(log.Lvl)        {}
func (l *EchoLogger) SetHeader(string)        {}
func (l *EchoLogger) Prefix() string          { return "" }
func (l *EchoLogger) SetPrefix(string)        {}
func (l *EchoLogger) Print(i ...interface{})  { l.sugar.Info(i...) }
func (l *EchoLogger) Debug(i ...interface{})  { l.sugar.Debug(i...) }
func (l *EchoLogger) Info(i ...interface{})   { l.sugar.Info(i...) }
func (l *EchoLogger) Warn(i ...interface{})   { l.sugar.Warn(i...) }
func (l *EchoLogger) Error(i ...interface{})  { l.sugar.Error(i...) }
func (l *EchoLogger) Fatal(i ...interface{})  { l.sugar.Fatal(i...) }
func (l *EchoLogger) Panic(i ...interface{})  { l.sugar.Panic(i...) }
func (l *EchoLogger) Printj(j log.JSON)       { l.base.Info("echo", zap.Any("json", j)) }
func (l *EchoLogger) Debugj(j log.JSON)       { l.base.Debug("echo", zap.Any("json", j)) }
func (l *EchoLogger) Infoj(j log.JSON)        { l.base.Info("echo", zap.Any("json", j)) }
func (l *EchoLogger) Warnj(j log.JSON)        { l.base.Warn("echo", zap.Any("json", j)) }
func (l *EchoLogger) Errorj(j log.JSON)       { l.base.Error("echo", zap.Any("json", j)) }
func (l *EchoLogger) Fatalj(j log.JSON)       { l.base.Fatal("echo", zap.Any("json", j)) }
func (l *EchoLogger) Panicj(j log.JSON)       { l.base.Panic("echo", zap.Any("json", j)) }

func (l *EchoLogger) Printf(format string, args ...interface{}) { l.sugar.Infof(format, args...) }
func (l *EchoLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *EchoLogger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *EchoLogger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *EchoLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *EchoLogger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }
func (l *EchoLogger) Panicf(format string, args ...interface{}) { l.sugar.Panicf(format, args...) }

var _ echo.Logger = (*EchoLogger)(nil)

type writer struct{ logger *zap.Logger }

func (w writer) Write(p []byte) (int, error) {
	w.logger.Info(string(p))
	return len(p), nil
}
