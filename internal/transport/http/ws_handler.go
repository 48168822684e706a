package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// LeaderboardSource subscribes to live snapshots.
type LeaderboardSource interface {
	Subscribe() (<-chan domain.Leaderboard, func())
	Latest() (domain.Leaderboard, bool)
}

// WSHandler streams leaderboard snapshots to websocket clients.
type WSHandler struct {
	hub      LeaderboardSource
	stats    *app.StatsService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(hub LeaderboardSource, stats *app.StatsService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		hub:    hub,
		stats:  stats,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeLeaderboard upgrades the request and pushes the current leaderboard
// followed by every update until the client goes away.
func (h *WSHandler) ServeLeaderboard(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-send:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(msg); err != nil {
					h.logger.Debug("ws write error", zap.Error(err))
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	if _, primed := h.hub.Latest(); !primed {
		send <- h.initialSnapshot(c.Request().Context())
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Clients only listen; reading drives pong handling and detects disconnects.
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	return nil
}

func (h *WSHandler) initialSnapshot(ctx context.Context) outboundMessage[any] {
	if h.stats == nil {
		return outboundMessage[any]{Type: "leaderboard", Payload: domain.Leaderboard{Entries: []domain.LeaderboardEntry{}}}
	}
	lb, err := h.stats.Leaderboard(ctx)
	if err != nil {
		h.logger.Warn("initial leaderboard failed", zap.Error(err))
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "leaderboard unavailable"}}
	}
	return outboundMessage[any]{Type: "leaderboard", Payload: lb}
}
