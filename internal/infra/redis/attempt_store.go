package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"assessment-service/internal/domain"
)

// AttemptStore keeps attempt deadlines in Redis. Start uses SET NX so the
// first deadline wins across instances; keys expire a grace period after it.
type AttemptStore struct {
	client *redis.Client
	grace  time.Duration
}

func NewAttemptStore(client *redis.Client, grace time.Duration) *AttemptStore {
	return &AttemptStore{client: client, grace: grace}
}

func (s *AttemptStore) Start(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("encode attempt: %w", err)
	}
	ttl := attempt.Deadline.Sub(attempt.StartedAt) + s.grace
	created, err := s.client.SetNX(ctx, s.key(attempt.UserID, attempt.TestID), payload, ttl).Result()
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("store attempt: %w", err)
	}
	if created {
		return attempt, nil
	}
	return s.Get(ctx, attempt.UserID, attempt.TestID)
}

func (s *AttemptStore) Get(ctx context.Context, userID, testID string) (domain.Attempt, error) {
	raw, err := s.client.Get(ctx, s.key(userID, testID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("decode attempt: %w", err)
	}
	return attempt, nil
}

func (s *AttemptStore) key(userID, testID string) string {
	return "assessment:attempt:" + testID + ":" + userID
}
