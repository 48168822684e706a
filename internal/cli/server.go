package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"assessment-service/internal/app"
	"assessment-service/internal/auth"
	"assessment-service/internal/config"
	infraredis "assessment-service/internal/infra/redis"
	transport "assessment-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(parent context.Context, configPath, portFlag string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	hub := app.NewLeaderboardHub()
	var publisher app.LeaderboardPublisher = hub
	if b.redis != nil {
		relay := infraredis.NewLeaderboardRelay(b.redis, cfg.Redis.Channel, hub, log)
		publisher = relay
		go func() {
			if err := relay.Run(ctx, nil); err != nil {
				log.Error("leaderboard relay stopped", zap.Error(err))
			}
		}()
	}

	tokens := auth.NewManager(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour), cfg.Auth.Issuer)
	stats := app.NewStatsService(b.repos, cfg.Quiz.PassPercentage)
	services := transport.Services{
		Auth:      app.NewAuthService(b.repos.Users, tokens, cfg.Auth.AllowPrivilegedSignup, log),
		Tests:     app.NewTestService(b.repos.Tests, b.repos.Submissions, app.WithQuestionCleanup(b.repos.Questions, b.repos.AnswerKeys)),
		Questions: app.NewQuestionService(b.repos.Tests, b.repos.Questions, b.repos.AnswerKeys, log),
		Submissions: app.NewSubmissionService(b.repos, stats, log,
			app.WithDeadlineEnforcement(cfg.Quiz.EnforceDeadline),
			app.WithLeaderboardPublisher(publisher),
		),
		Stats: stats,
		Clock: app.NewAttemptClock(b.repos.Tests, b.repos.Attempts),
		Hub:   hub,
	}
	router := transport.NewRouter(services, tokens, log, transport.Options{AllowedOrigins: cfg.Server.AllowedOrigins})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting assessment service", zap.String("addr", server.Addr), zap.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
