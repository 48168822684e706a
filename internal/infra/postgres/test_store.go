package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

type testRow struct {
	bun.BaseModel `bun:"table:tests,alias:t"`

	ID          string     `bun:"id,pk"`
	Title       string     `bun:"title"`
	CompanyName string     `bun:"company_name"`
	Description string     `bun:"description"`
	ValidTill   *time.Time `bun:"valid_till"`
	Duration    int        `bun:"duration"`
	Type        string     `bun:"test_type"`
	ParentIDs   []string   `bun:"parent_ids,array"`
	CreatedAt   time.Time  `bun:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at"`
}

func toTestRow(t domain.Test) *testRow {
	parents := t.ParentIDs
	if parents == nil {
		parents = []string{}
	}
	return &testRow{
		ID:          t.ID,
		Title:       t.Title,
		CompanyName: t.CompanyName,
		Description: t.Description,
		ValidTill:   t.ValidTill,
		Duration:    t.Duration,
		Type:        string(t.Type),
		ParentIDs:   parents,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r testRow) toDomain() domain.Test {
	parents := r.ParentIDs
	if parents == nil {
		parents = []string{}
	}
	return domain.Test{
		ID:          r.ID,
		Title:       r.Title,
		CompanyName: r.CompanyName,
		Description: r.Description,
		ValidTill:   r.ValidTill,
		Duration:    r.Duration,
		Type:        domain.TestType(r.Type),
		ParentIDs:   parents,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// TestStore persists tests in the tests table.
type TestStore struct {
	db bun.IDB
}

func (s *TestStore) Create(ctx context.Context, test domain.Test) error {
	if _, err := s.db.NewInsert().Model(toTestRow(test)).Exec(ctx); err != nil {
		return fmt.Errorf("insert test: %w", err)
	}
	return nil
}

func (s *TestStore) Get(ctx context.Context, id string) (domain.Test, error) {
	var row testRow
	if err := s.db.NewSelect().Model(&row).Where("t.id = ?", id).Scan(ctx); err != nil {
		return domain.Test{}, notFound(err, domain.ErrTestNotFound)
	}
	return row.toDomain(), nil
}

func (s *TestStore) Update(ctx context.Context, test domain.Test) error {
	res, err := s.db.NewUpdate().Model(toTestRow(test)).WherePK().ExcludeColumn("created_at").Exec(ctx)
	if err != nil {
		return fmt.Errorf("update test: %w", err)
	}
	return requireAffected(res, domain.ErrTestNotFound)
}

func (s *TestStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*testRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	return requireAffected(res, domain.ErrTestNotFound)
}

func (s *TestStore) List(ctx context.Context, filter app.TestFilter) ([]domain.Test, error) {
	var rows []testRow
	q := s.db.NewSelect().Model(&rows).OrderExpr("t.created_at ASC, t.id ASC")
	if filter.Type != "" {
		q = q.Where("t.test_type = ?", string(filter.Type))
	}
	if filter.ParentID != "" {
		q = q.Where("? = ANY(t.parent_ids)", filter.ParentID)
	}
	if len(filter.IDs) > 0 {
		q = q.Where("t.id IN (?)", bun.In(filter.IDs))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	out := make([]domain.Test, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
