package app

import (
	"context"
	"sync"

	"assessment-service/internal/domain"
)

// LeaderboardHub fans leaderboard snapshots out to in-process subscribers
// and remembers the latest one for late joiners.
type LeaderboardHub struct {
	mu          sync.Mutex
	latest      *domain.Leaderboard
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardHub() *LeaderboardHub {
	return &LeaderboardHub{
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Publish implements LeaderboardPublisher for single-instance deployments.
func (h *LeaderboardHub) Publish(_ context.Context, lb domain.Leaderboard) error {
	h.Broadcast(lb)
	return nil
}

// Broadcast stores lb as the latest snapshot and pushes it to every subscriber.
func (h *LeaderboardHub) Broadcast(lb domain.Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = &lb
	for ch := range h.subscribers {
		select {
		case ch <- lb:
		default:
			// Slow subscriber: drop its oldest snapshot so the newest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

// Latest returns the most recent snapshot, if any was broadcast.
func (h *LeaderboardHub) Latest() (domain.Leaderboard, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest == nil {
		return domain.Leaderboard{}, false
	}
	return *h.latest, true
}

// Subscribe returns a channel of snapshots, primed with the latest one.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *LeaderboardHub) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	if h.latest != nil {
		ch <- *h.latest
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (h *LeaderboardHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
