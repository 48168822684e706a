package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"assessment-service/internal/domain"
)

// TestInput carries the writable fields of a test.
type TestInput struct {
	Title       string
	CompanyName string
	Description string
	ValidTill   *time.Time
	Duration    int
	ParentIDs   []string
}

// TestPatch is a partial update; nil fields are left unchanged.
type TestPatch struct {
	Title       *string
	CompanyName *string
	Description *string
	ValidTill   *time.Time
	Duration    *int
	Type        *domain.TestType
	ParentIDs   *[]string
}

// MainTestWithSubs pairs a main test with the sub tests assigned to it.
type MainTestWithSubs struct {
	domain.Test
	SubTests []domain.Test `json:"subTests"`
}

// TestService manages the main/sub test hierarchy and status-annotated listings.
type TestService struct {
	tests       TestRepository
	submissions SubmissionRepository
	questions   QuestionRepository
	keys        AnswerKeyRepository
	now         func() time.Time
}

// TestOption tweaks a TestService.
type TestOption func(*TestService)

// WithQuestionCleanup removes a deleted test's questions and drops its cached
// answer key. keys may be nil.
func WithQuestionCleanup(questions QuestionRepository, keys AnswerKeyRepository) TestOption {
	return func(s *TestService) {
		s.questions = questions
		s.keys = keys
	}
}

func NewTestService(tests TestRepository, submissions SubmissionRepository, opts ...TestOption) *TestService {
	s := &TestService{tests: tests, submissions: submissions, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTestServiceWithClock is used by tests for deterministic status derivation.
func NewTestServiceWithClock(tests TestRepository, submissions SubmissionRepository, now func() time.Time, opts ...TestOption) *TestService {
	s := NewTestService(tests, submissions, opts...)
	s.now = now
	return s
}

func (s *TestService) Get(ctx context.Context, id string) (domain.Test, error) {
	return s.tests.Get(ctx, id)
}

// CreateMain stores a new main test. Main tests never carry parents.
func (s *TestService) CreateMain(ctx context.Context, in TestInput) (domain.Test, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Test{}, domain.Invalidf("testTitle is required")
	}
	if in.Duration < 0 {
		return domain.Test{}, domain.Invalidf("duration must not be negative")
	}
	now := s.now()
	test := domain.Test{
		ID:          uuid.NewString(),
		Title:       in.Title,
		CompanyName: in.CompanyName,
		Description: in.Description,
		ValidTill:   in.ValidTill,
		Duration:    in.Duration,
		Type:        domain.TestTypeMain,
		ParentIDs:   []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tests.Create(ctx, test); err != nil {
		return domain.Test{}, fmt.Errorf("create main test: %w", err)
	}
	return test, nil
}

// EditMain updates the title and description of a main test.
func (s *TestService) EditMain(ctx context.Context, id string, in TestInput) (domain.Test, error) {
	test, err := s.getTyped(ctx, id, domain.TestTypeMain)
	if err != nil {
		return domain.Test{}, err
	}
	if in.Title != "" {
		test.Title = in.Title
	}
	test.Description = in.Description
	test.UpdatedAt = s.now()
	if err := s.tests.Update(ctx, test); err != nil {
		return domain.Test{}, fmt.Errorf("update main test: %w", err)
	}
	return test, nil
}

// DeleteMain removes a main test. Sub tests keep the dangling parent id.
// Submissions are kept; their answers to the removed questions score as wrong.
func (s *TestService) DeleteMain(ctx context.Context, id string) error {
	if _, err := s.getTyped(ctx, id, domain.TestTypeMain); err != nil {
		return err
	}
	return s.delete(ctx, id)
}

// CreateSub stores a sub test under one or more existing main tests.
func (s *TestService) CreateSub(ctx context.Context, in TestInput) (domain.Test, error) {
	if err := s.validateSub(ctx, in); err != nil {
		return domain.Test{}, err
	}
	now := s.now()
	test := domain.Test{
		ID:          uuid.NewString(),
		Title:       in.Title,
		CompanyName: in.CompanyName,
		Description: in.Description,
		ValidTill:   in.ValidTill,
		Duration:    in.Duration,
		Type:        domain.TestTypeSub,
		ParentIDs:   dedupe(in.ParentIDs),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tests.Create(ctx, test); err != nil {
		return domain.Test{}, fmt.Errorf("create sub test: %w", err)
	}
	return test, nil
}

// UpdateSub replaces the writable fields of a sub test.
func (s *TestService) UpdateSub(ctx context.Context, id string, in TestInput) (domain.Test, error) {
	if err := s.validateSub(ctx, in); err != nil {
		return domain.Test{}, err
	}
	test, err := s.getTyped(ctx, id, domain.TestTypeSub)
	if err != nil {
		return domain.Test{}, err
	}
	test.Title = in.Title
	test.CompanyName = in.CompanyName
	test.Description = in.Description
	test.ValidTill = in.ValidTill
	test.Duration = in.Duration
	test.ParentIDs = dedupe(in.ParentIDs)
	test.UpdatedAt = s.now()
	if err := s.tests.Update(ctx, test); err != nil {
		return domain.Test{}, fmt.Errorf("update sub test: %w", err)
	}
	return test, nil
}

func (s *TestService) DeleteSub(ctx context.Context, id string) error {
	if _, err := s.getTyped(ctx, id, domain.TestTypeSub); err != nil {
		return err
	}
	return s.delete(ctx, id)
}

func (s *TestService) delete(ctx context.Context, id string) error {
	if err := s.tests.Delete(ctx, id); err != nil {
		return err
	}
	if s.questions != nil {
		if err := s.questions.DeleteByTest(ctx, id); err != nil {
			return fmt.Errorf("delete questions of %s: %w", id, err)
		}
	}
	if s.keys != nil {
		if err := s.keys.Invalidate(ctx, id); err != nil {
			return fmt.Errorf("invalidate answer key %s: %w", id, err)
		}
	}
	return nil
}

// AssignSub adds mainID to the parents of a sub test.
func (s *TestService) AssignSub(ctx context.Context, subID, mainID string) (domain.Test, error) {
	parent, err := s.tests.Get(ctx, mainID)
	if err != nil || parent.Type != domain.TestTypeMain {
		if err != nil && !errors.Is(err, domain.ErrTestNotFound) {
			return domain.Test{}, err
		}
		return domain.Test{}, domain.Invalidf("Main test not found or not a valid main test")
	}
	sub, err := s.tests.Get(ctx, subID)
	if err != nil || sub.Type != domain.TestTypeSub {
		if err != nil && !errors.Is(err, domain.ErrTestNotFound) {
			return domain.Test{}, err
		}
		return domain.Test{}, domain.Invalidf("Sub test not found or not a valid sub test")
	}
	if sub.HasParent(mainID) {
		return domain.Test{}, domain.ErrAlreadyAssigned
	}
	sub.ParentIDs = append(sub.ParentIDs, mainID)
	sub.UpdatedAt = s.now()
	if err := s.tests.Update(ctx, sub); err != nil {
		return domain.Test{}, fmt.Errorf("assign sub test: %w", err)
	}
	return sub, nil
}

// Update applies a partial change, keeping the type and parents consistent.
func (s *TestService) Update(ctx context.Context, id string, patch TestPatch) (domain.Test, error) {
	test, err := s.tests.Get(ctx, id)
	if err != nil {
		return domain.Test{}, err
	}
	if patch.Type != nil {
		test.Type = *patch.Type
	}
	if patch.ParentIDs != nil {
		test.ParentIDs = dedupe(*patch.ParentIDs)
	}
	if err := domain.ValidateHierarchy(test.Type, test.ParentIDs); err != nil {
		return domain.Test{}, err
	}
	if patch.ParentIDs != nil && test.Type == domain.TestTypeSub {
		for _, parentID := range test.ParentIDs {
			if parentID == id {
				return domain.Test{}, domain.Invalidf("A test cannot be its own parent")
			}
		}
		if err := s.checkParents(ctx, test.ParentIDs); err != nil {
			return domain.Test{}, err
		}
	}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return domain.Test{}, domain.Invalidf("testTitle is required")
		}
		test.Title = *patch.Title
	}
	if patch.CompanyName != nil {
		test.CompanyName = *patch.CompanyName
	}
	if patch.Description != nil {
		test.Description = *patch.Description
	}
	if patch.ValidTill != nil {
		test.ValidTill = patch.ValidTill
	}
	if patch.Duration != nil {
		if *patch.Duration < 0 {
			return domain.Test{}, domain.Invalidf("duration must not be negative")
		}
		test.Duration = *patch.Duration
	}
	test.UpdatedAt = s.now()
	if err := s.tests.Update(ctx, test); err != nil {
		return domain.Test{}, fmt.Errorf("update test: %w", err)
	}
	return test, nil
}

// ListWithStatus returns tests matching filter, each annotated with the
// caller's derived status.
func (s *TestService) ListWithStatus(ctx context.Context, userID string, filter TestFilter) ([]domain.TestWithStatus, error) {
	tests, err := s.tests.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	submissions, err := s.submissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	submitted := make(map[string]bool, len(submissions))
	for _, sub := range submissions {
		submitted[sub.TestID] = true
	}

	now := s.now()
	out := make([]domain.TestWithStatus, 0, len(tests))
	for _, t := range tests {
		out = append(out, domain.TestWithStatus{
			Test:   t,
			Status: domain.DeriveStatus(now, t, submitted[t.ID]),
		})
	}
	return out, nil
}

// MainWithSubs lists every main test together with its sub tests.
func (s *TestService) MainWithSubs(ctx context.Context) ([]MainTestWithSubs, error) {
	mains, err := s.tests.List(ctx, TestFilter{Type: domain.TestTypeMain})
	if err != nil {
		return nil, fmt.Errorf("list main tests: %w", err)
	}
	subs, err := s.tests.List(ctx, TestFilter{Type: domain.TestTypeSub})
	if err != nil {
		return nil, fmt.Errorf("list sub tests: %w", err)
	}
	out := make([]MainTestWithSubs, 0, len(mains))
	for _, m := range mains {
		entry := MainTestWithSubs{Test: m, SubTests: []domain.Test{}}
		for _, sub := range subs {
			if sub.HasParent(m.ID) {
				entry.SubTests = append(entry.SubTests, sub)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *TestService) getTyped(ctx context.Context, id string, want domain.TestType) (domain.Test, error) {
	test, err := s.tests.Get(ctx, id)
	if err != nil {
		return domain.Test{}, err
	}
	if test.Type != want {
		return domain.Test{}, domain.ErrTestNotFound
	}
	return test, nil
}

func (s *TestService) validateSub(ctx context.Context, in TestInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Invalidf("testTitle is required")
	}
	if in.Duration <= 0 {
		return domain.Invalidf("Duration is required")
	}
	if err := domain.ValidateHierarchy(domain.TestTypeSub, in.ParentIDs); err != nil {
		return err
	}
	return s.checkParents(ctx, in.ParentIDs)
}

// checkParents requires every parent id to resolve to a main test.
func (s *TestService) checkParents(ctx context.Context, parentIDs []string) error {
	for _, id := range parentIDs {
		parent, err := s.tests.Get(ctx, id)
		if errors.Is(err, domain.ErrTestNotFound) || (err == nil && parent.Type != domain.TestTypeMain) {
			return domain.Invalidf("One or more parent tests not found or not main tests")
		}
		if err != nil {
			return fmt.Errorf("load parent %s: %w", id, err)
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
