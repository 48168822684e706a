package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

// AnswerKeyRepository caches answer keys with TTL to avoid repeated DB hits.
type AnswerKeyRepository struct {
	loader app.AnswerKeyLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedKey
	// generation is bumped by Invalidate so in-flight loads never repopulate a stale key.
	generation map[string]uint64
}

type cachedKey struct {
	key       domain.AnswerKey
	expiresAt time.Time
}

func NewAnswerKeyRepository(loader app.AnswerKeyLoader, ttl time.Duration) *AnswerKeyRepository {
	return NewAnswerKeyRepositoryWithClock(loader, ttl, time.Now)
}

// NewAnswerKeyRepositoryWithClock is test-only for deterministic expiry.
func NewAnswerKeyRepositoryWithClock(loader app.AnswerKeyLoader, ttl time.Duration, clock func() time.Time) *AnswerKeyRepository {
	return &AnswerKeyRepository{
		loader:     loader,
		ttl:        ttl,
		clock:      clock,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:      make(map[string]cachedKey),
		generation: make(map[string]uint64),
	}
}

func (r *AnswerKeyRepository) GetAnswerKey(ctx context.Context, testID string) (domain.AnswerKey, error) {
	if key, ok := r.lookup(testID); ok {
		return key, nil
	}

	result, err, _ := r.sf.Do(testID, func() (interface{}, error) {
		if key, ok := r.lookup(testID); ok {
			return key, nil
		}
		r.mu.RLock()
		gen := r.generation[testID]
		r.mu.RUnlock()

		key, err := r.loader.LoadAnswerKey(ctx, testID)
		if err != nil {
			return domain.AnswerKey{}, err
		}

		r.mu.Lock()
		if r.generation[testID] == gen {
			r.cache[testID] = cachedKey{
				key:       key,
				expiresAt: r.clock().Add(r.ttlWithJitterLocked()),
			}
		}
		r.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate drops the cached key so the next read reloads it.
func (r *AnswerKeyRepository) Invalidate(_ context.Context, testID string) error {
	r.mu.Lock()
	delete(r.cache, testID)
	r.generation[testID]++
	r.mu.Unlock()
	r.sf.Forget(testID)
	return nil
}

func (r *AnswerKeyRepository) lookup(testID string) (domain.AnswerKey, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[testID]; ok && entry.expiresAt.After(now) {
		return entry.key, true
	}
	return domain.AnswerKey{}, false
}

func (r *AnswerKeyRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticAnswerKeyLoader serves fixed keys (useful for tests/demos).
type StaticAnswerKeyLoader struct {
	mu    sync.Mutex
	keys  map[string]domain.AnswerKey
	calls int
}

func NewStaticAnswerKeyLoader(keys map[string]domain.AnswerKey) *StaticAnswerKeyLoader {
	return &StaticAnswerKeyLoader{keys: keys}
}

func (l *StaticAnswerKeyLoader) LoadAnswerKey(_ context.Context, testID string) (domain.AnswerKey, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if key, ok := l.keys[testID]; ok {
		return key, nil
	}
	return domain.AnswerKey{}, domain.ErrTestNotFound
}

// Set replaces the key served for testID.
func (l *StaticAnswerKeyLoader) Set(key domain.AnswerKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys[key.TestID] = key
}

// Remove stops serving the key of testID.
func (l *StaticAnswerKeyLoader) Remove(testID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.keys, testID)
}

// Calls reports how many loads reached the loader.
func (l *StaticAnswerKeyLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}
