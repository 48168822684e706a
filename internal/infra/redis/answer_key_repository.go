package redis

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

// presenceField marks a cached key so tests without questions are cached too.
const presenceField = "_"

// AnswerKeyRepository caches answer keys in Redis (hash per test) and falls
// back to a loader on cache miss.
// Entries are stored as: HSET assessment:key:{testID} {questionID} {position}:{correctIndex}
type AnswerKeyRepository struct {
	client *redis.Client
	loader app.AnswerKeyLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAnswerKeyRepository(client *redis.Client, loader app.AnswerKeyLoader, ttl time.Duration) *AnswerKeyRepository {
	return &AnswerKeyRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *AnswerKeyRepository) GetAnswerKey(ctx context.Context, testID string) (domain.AnswerKey, error) {
	if key, ok := r.cached(ctx, testID); ok {
		return key, nil
	}

	result, err, _ := r.sf.Do(testID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if key, ok := r.cached(ctx, testID); ok {
			return key, nil
		}

		key, err := r.loader.LoadAnswerKey(ctx, testID)
		if err != nil {
			return domain.AnswerKey{}, err
		}

		hashKey := r.hashKey(testID)
		pipe := r.client.TxPipeline()
		pipe.Del(ctx, hashKey)
		pipe.HSet(ctx, hashKey, presenceField, len(key.Entries))
		for i, e := range key.Entries {
			pipe.HSet(ctx, hashKey, e.QuestionID, strconv.Itoa(i)+":"+strconv.Itoa(e.CorrectIndex))
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, hashKey, ttl)
		}
		// The cache is an optimization; a failed write only costs a reload.
		_, _ = pipe.Exec(ctx)

		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate removes the cached hash so the next read reloads it.
func (r *AnswerKeyRepository) Invalidate(ctx context.Context, testID string) error {
	r.sf.Forget(testID)
	if err := r.client.Del(ctx, r.hashKey(testID)).Err(); err != nil {
		return fmt.Errorf("invalidate answer key: %w", err)
	}
	return nil
}

func (r *AnswerKeyRepository) cached(ctx context.Context, testID string) (domain.AnswerKey, bool) {
	fields, err := r.client.HGetAll(ctx, r.hashKey(testID)).Result()
	if err != nil || len(fields) == 0 {
		return domain.AnswerKey{}, false
	}
	key, err := decodeAnswerKey(testID, fields)
	if err != nil {
		return domain.AnswerKey{}, false
	}
	return key, true
}

func decodeAnswerKey(testID string, fields map[string]string) (domain.AnswerKey, error) {
	type positioned struct {
		pos   int
		entry domain.KeyEntry
	}
	items := make([]positioned, 0, len(fields))
	for questionID, raw := range fields {
		if questionID == presenceField {
			continue
		}
		posRaw, correctRaw, ok := strings.Cut(raw, ":")
		if !ok {
			return domain.AnswerKey{}, fmt.Errorf("malformed entry %q", raw)
		}
		pos, err := strconv.Atoi(posRaw)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		correct, err := strconv.Atoi(correctRaw)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		items = append(items, positioned{pos: pos, entry: domain.KeyEntry{QuestionID: questionID, CorrectIndex: correct}})
	}
	if want, err := strconv.Atoi(fields[presenceField]); err != nil || want != len(items) {
		return domain.AnswerKey{}, fmt.Errorf("incomplete cache entry for %s", testID)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].pos < items[j].pos })

	key := domain.AnswerKey{TestID: testID, Entries: make([]domain.KeyEntry, 0, len(items))}
	for _, it := range items {
		key.Entries = append(key.Entries, it.entry)
	}
	return key, nil
}

func (r *AnswerKeyRepository) hashKey(testID string) string {
	return "assessment:key:" + testID
}

func (r *AnswerKeyRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
