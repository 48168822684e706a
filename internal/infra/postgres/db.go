package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"assessment-service/internal/infra/postgres/migrations"
)

const uniqueViolation = "23505"

// Open returns a bun handle over pgdriver. It does not ping.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Migrate applies every pending schema migration.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("migrator init: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return group, nil
}

// Stores groups the bun-backed repositories.
type Stores struct {
	Tests       *TestStore
	Questions   *QuestionStore
	Submissions *SubmissionStore
	Users       *UserStore
	Attempts    *AttemptStore
}

func NewStores(db *bun.DB) Stores {
	return Stores{
		Tests:       &TestStore{db: db},
		Questions:   &QuestionStore{db: db},
		Submissions: &SubmissionStore{db: db},
		Users:       &UserStore{db: db},
		Attempts:    &AttemptStore{db: db},
	}
}

// constraintViolated reports the name of the unique constraint err violated, if any.
func constraintViolated(err error) (string, bool) {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
		return pgErr.Field('n'), true
	}
	return "", false
}

func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

func requireAffected(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}
