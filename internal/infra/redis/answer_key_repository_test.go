package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

func TestAnswerKeyRepositoryCachesInRedis(t *testing.T) {
	mr, client := startRedis(t)

	loader := memory.NewStaticAnswerKeyLoader(map[string]domain.AnswerKey{"t1": sampleKey()})
	repo := NewAnswerKeyRepository(client, loader, time.Minute)

	key, err := repo.GetAnswerKey(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get key: %v", err)
	}
	if loader.Calls() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.Calls())
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetAnswerKey(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get cached key: %v", err)
	}
	if loader.Calls() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.Calls())
	}
	if len(cached.Entries) != len(key.Entries) {
		t.Fatalf("cached entries = %d, want %d", len(cached.Entries), len(key.Entries))
	}
	for i := range key.Entries {
		if cached.Entries[i] != key.Entries[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, cached.Entries[i], key.Entries[i])
		}
	}

	if got := mr.HGet("assessment:key:t1", "q2"); got != "1:3" {
		t.Fatalf("stored field q2 = %q, want 1:3", got)
	}
	if ttl := mr.TTL("assessment:key:t1"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("ttl %v outside jitter window", ttl)
	}
}

func TestAnswerKeyRepositoryCachesEmptyKeys(t *testing.T) {
	_, client := startRedis(t)
	loader := memory.NewStaticAnswerKeyLoader(map[string]domain.AnswerKey{"empty": {TestID: "empty"}})
	repo := NewAnswerKeyRepository(client, loader, time.Minute)

	for i := 0; i < 2; i++ {
		key, err := repo.GetAnswerKey(context.Background(), "empty")
		if err != nil {
			t.Fatalf("get key: %v", err)
		}
		if len(key.Entries) != 0 {
			t.Fatalf("expected no entries, got %+v", key.Entries)
		}
	}
	if loader.Calls() != 1 {
		t.Fatalf("expected empty key to be cached, loader calls=%d", loader.Calls())
	}
}

func TestAnswerKeyRepositoryInvalidate(t *testing.T) {
	mr, client := startRedis(t)
	loader := memory.NewStaticAnswerKeyLoader(map[string]domain.AnswerKey{"t1": sampleKey()})
	repo := NewAnswerKeyRepository(client, loader, time.Minute)
	ctx := context.Background()

	if _, err := repo.GetAnswerKey(ctx, "t1"); err != nil {
		t.Fatalf("get key: %v", err)
	}

	updated := sampleKey()
	updated.Entries[0].CorrectIndex = 2
	loader.Set(updated)
	if err := repo.Invalidate(ctx, "t1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("assessment:key:t1") {
		t.Fatalf("expected hash removed after invalidate")
	}

	key, err := repo.GetAnswerKey(ctx, "t1")
	if err != nil {
		t.Fatalf("reload key: %v", err)
	}
	if key.Entries[0].CorrectIndex != 2 {
		t.Fatalf("expected reloaded key, got %+v", key.Entries[0])
	}
	if loader.Calls() != 2 {
		t.Fatalf("expected two loads, got %d", loader.Calls())
	}
}

func TestAnswerKeyRepositoryReloadsAfterExpiry(t *testing.T) {
	mr, client := startRedis(t)
	loader := memory.NewStaticAnswerKeyLoader(map[string]domain.AnswerKey{"t1": sampleKey()})
	repo := NewAnswerKeyRepository(client, loader, time.Minute)
	ctx := context.Background()

	if _, err := repo.GetAnswerKey(ctx, "t1"); err != nil {
		t.Fatalf("get key: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := repo.GetAnswerKey(ctx, "t1"); err != nil {
		t.Fatalf("get key after expiry: %v", err)
	}
	if loader.Calls() != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.Calls())
	}
}

func TestAnswerKeyRepositoryPropagatesLoaderErrors(t *testing.T) {
	_, client := startRedis(t)
	loader := memory.NewStaticAnswerKeyLoader(map[string]domain.AnswerKey{})
	repo := NewAnswerKeyRepository(client, loader, time.Minute)

	if _, err := repo.GetAnswerKey(context.Background(), "missing"); err != domain.ErrTestNotFound {
		t.Fatalf("expected ErrTestNotFound, got %v", err)
	}
}

func TestDecodeAnswerKeyRejectsPartialHash(t *testing.T) {
	_, err := decodeAnswerKey("t1", map[string]string{presenceField: "2", "q1": "0:1"})
	if err == nil {
		t.Fatalf("expected error for incomplete hash")
	}
}

func sampleKey() domain.AnswerKey {
	return domain.AnswerKey{
		TestID: "t1",
		Entries: []domain.KeyEntry{
			{QuestionID: "q1", CorrectIndex: 1},
			{QuestionID: "q2", CorrectIndex: 3},
			{QuestionID: "q3", CorrectIndex: 0},
		},
	}
}

func startRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}
