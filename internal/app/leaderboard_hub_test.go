package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

func board(accuracy float64) domain.Leaderboard {
	return domain.Leaderboard{Entries: []domain.LeaderboardEntry{{UserID: "u1", Accuracy: accuracy}}}
}

func TestHubPrimesLateSubscribers(t *testing.T) {
	hub := app.NewLeaderboardHub()
	require.NoError(t, hub.Publish(context.Background(), board(40)))

	ch, cancel := hub.Subscribe()
	defer cancel()

	first := <-ch
	assert.Equal(t, 40.0, first.Entries[0].Accuracy)

	hub.Broadcast(board(80))
	update := <-ch
	assert.Equal(t, 80.0, update.Entries[0].Accuracy)
}

func TestHubDropsStaleUpdatesForSlowSubscribers(t *testing.T) {
	hub := app.NewLeaderboardHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i <= 20; i++ {
		hub.Broadcast(board(float64(i)))
	}

	var last domain.Leaderboard
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, 20.0, last.Entries[0].Accuracy, "newest snapshot must survive")
}

func TestHubCancelUnsubscribes(t *testing.T) {
	hub := app.NewLeaderboardHub()
	ch, cancel := hub.Subscribe()
	assert.Equal(t, 1, hub.Subscribers())

	cancel()
	cancel()
	assert.Equal(t, 0, hub.Subscribers())

	_, open := <-ch
	assert.False(t, open)

	latest, ok := hub.Latest()
	assert.False(t, ok)
	assert.Empty(t, latest.Entries)
}
