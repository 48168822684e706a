package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"assessment-service/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk"`
	Name         string    `bun:"name"`
	Email        string    `bun:"email,nullzero"`
	LoginID      string    `bun:"login_id,nullzero"`
	Role         string    `bun:"role"`
	PasswordHash string    `bun:"password_hash"`
	CreatedAt    time.Time `bun:"created_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		LoginID:      r.LoginID,
		Role:         domain.Role(r.Role),
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

// UserStore persists accounts. Empty email or login id are stored as NULL so
// the unique constraints only bind set values.
type UserStore struct {
	db bun.IDB
}

func (s *UserStore) Create(ctx context.Context, user domain.User) error {
	row := &userRow{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		LoginID:      user.LoginID,
		Role:         string(user.Role),
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if constraint, ok := constraintViolated(err); ok {
			switch constraint {
			case "users_email_key":
				return domain.ErrEmailTaken
			case "users_login_id_key":
				return domain.ErrLoginIDTaken
			}
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	return s.getBy(ctx, "u.id = ?", id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.getBy(ctx, "u.email = ?", email)
}

func (s *UserStore) GetByLoginID(ctx context.Context, loginID string) (domain.User, error) {
	return s.getBy(ctx, "u.login_id = ?", loginID)
}

func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("u.created_at ASC, u.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *UserStore) getBy(ctx context.Context, where string, arg string) (domain.User, error) {
	var row userRow
	if err := s.db.NewSelect().Model(&row).Where(where, arg).Scan(ctx); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound)
	}
	return row.toDomain(), nil
}
