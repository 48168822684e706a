package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"assessment-service/internal/domain"
)

// Broadcaster receives snapshots relayed from any instance.
type Broadcaster interface {
	Broadcast(lb domain.Leaderboard)
}

// LeaderboardRelay shares leaderboard snapshots between instances over a
// Redis pub/sub channel. Publish sends; Run feeds received snapshots to the
// local hub, including the ones this instance published.
type LeaderboardRelay struct {
	client  *redis.Client
	channel string
	hub     Broadcaster
	logger  *zap.Logger
}

func NewLeaderboardRelay(client *redis.Client, channel string, hub Broadcaster, logger *zap.Logger) *LeaderboardRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardRelay{client: client, channel: channel, hub: hub, logger: logger}
}

func (r *LeaderboardRelay) Publish(ctx context.Context, lb domain.Leaderboard) error {
	payload, err := json.Marshal(lb)
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish leaderboard: %w", err)
	}
	return nil
}

// Run blocks until ctx is done. ready is closed once the subscription is active.
func (r *LeaderboardRelay) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	if ready != nil {
		close(ready)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var lb domain.Leaderboard
			if err := json.Unmarshal([]byte(msg.Payload), &lb); err != nil {
				r.logger.Warn("dropping malformed leaderboard message", zap.Error(err))
				continue
			}
			r.hub.Broadcast(lb)
		}
	}
}
