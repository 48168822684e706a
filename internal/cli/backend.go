package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"assessment-service/internal/app"
	"assessment-service/internal/config"
	"assessment-service/internal/infra/memory"
	infmongo "assessment-service/internal/infra/mongo"
	"assessment-service/internal/infra/postgres"
	infraredis "assessment-service/internal/infra/redis"
)

// backend holds the storage wiring selected by config.
type backend struct {
	repos   app.Repositories
	redis   *redis.Client
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend connects the configured storage driver and, when Redis is
// configured, puts the answer-key cache and attempt clock on it.
func openBackend(ctx context.Context, cfg config.Config, log *zap.Logger) (*backend, error) {
	b := &backend{}
	var loader app.AnswerKeyLoader

	switch cfg.Storage.Driver {
	case config.DriverMemory, "":
		questions := memory.NewQuestionStore()
		b.repos = app.Repositories{
			Tests:       memory.NewTestStore(),
			Questions:   questions,
			Submissions: memory.NewSubmissionStore(),
			Users:       memory.NewUserStore(),
			Attempts:    memory.NewAttemptStore(),
		}
		loader = app.NewQuestionKeyLoader(questions)

	case config.DriverPostgres:
		if cfg.Postgres.URL == "" {
			return nil, fmt.Errorf("postgres url not configured")
		}
		db := postgres.Open(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
		if _, err := postgres.Migrate(ctx, db); err != nil {
			b.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres pool: %w", err)
		}
		b.closers = append(b.closers, pool.Close)

		stores := postgres.NewStores(db)
		b.repos = app.Repositories{
			Tests:       stores.Tests,
			Questions:   stores.Questions,
			Submissions: stores.Submissions,
			Users:       stores.Users,
			Attempts:    stores.Attempts,
		}
		loader = postgres.NewAnswerKeyLoader(pool)

	case config.DriverMongo:
		if cfg.Mongo.URI == "" {
			return nil, fmt.Errorf("mongo uri not configured")
		}
		client, db, err := infmongo.Open(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(shutdownCtx)
		})
		if err := infmongo.EnsureIndexes(ctx, db); err != nil {
			b.Close()
			return nil, err
		}
		stores := infmongo.NewStores(db)
		b.repos = app.Repositories{
			Tests:       stores.Tests,
			Questions:   stores.Questions,
			Submissions: stores.Submissions,
			Users:       stores.Users,
			Attempts:    stores.Attempts,
		}
		loader = infmongo.NewAnswerKeyLoader(db)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	keyTTL := config.TTLDuration(cfg.AnswerKey.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = b.redis.Close() })
		if err := b.redis.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		keyTTL = config.TTLDuration(cfg.Redis.TTL, keyTTL)
		b.repos.AnswerKeys = infraredis.NewAnswerKeyRepository(b.redis, loader, keyTTL)
		b.repos.Attempts = infraredis.NewAttemptStore(b.redis, config.TTLDuration(cfg.Quiz.AttemptGrace, 5*time.Minute))
	} else {
		b.repos.AnswerKeys = memory.NewAnswerKeyRepository(loader, keyTTL)
	}

	log.Info("storage ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.Bool("redis", b.redis != nil),
		zap.Duration("answerKeyTTL", keyTTL),
	)
	return b, nil
}
