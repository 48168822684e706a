package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

func TestSubmissionStoreInsertIfAbsent(t *testing.T) {
	store := NewSubmissionStore()
	ctx := context.Background()

	first := domain.Submission{ID: "s1", UserID: "u1", TestID: "t1", Answers: []domain.Answer{{QuestionID: "q1", SelectedOptionIndex: 1}}}
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := domain.Submission{ID: "s2", UserID: "u1", TestID: "t1", Answers: []domain.Answer{{QuestionID: "q1", SelectedOptionIndex: 2}}}
	if err := store.Create(ctx, second); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}

	got, err := store.Get(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "s1" || got.Answers[0].SelectedOptionIndex != 1 {
		t.Fatalf("first submission must be kept, got %+v", got)
	}
}

func TestSubmissionStoreConcurrentDuplicates(t *testing.T) {
	store := NewSubmissionStore()
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Create(ctx, domain.Submission{UserID: "u1", TestID: "t1"})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Fatalf("expected exactly one accepted submission, got %d", accepted)
	}
	all, _ := store.ListAll(ctx)
	if len(all) != 1 {
		t.Fatalf("expected one stored submission, got %d", len(all))
	}
}

func TestSubmissionStoreListByUserNewestFirst(t *testing.T) {
	store := NewSubmissionStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	_ = store.Create(ctx, domain.Submission{ID: "a", UserID: "u1", TestID: "t1", SubmittedAt: base})
	_ = store.Create(ctx, domain.Submission{ID: "b", UserID: "u1", TestID: "t2", SubmittedAt: base.Add(time.Hour)})
	_ = store.Create(ctx, domain.Submission{ID: "c", UserID: "u2", TestID: "t1", SubmittedAt: base.Add(2 * time.Hour)})

	subs, err := store.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 || subs[0].ID != "b" || subs[1].ID != "a" {
		t.Fatalf("unexpected order %+v", subs)
	}
	if _, err := store.Get(ctx, "u2", "t2"); !errors.Is(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestTestStoreFilters(t *testing.T) {
	store := NewTestStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	_ = store.Create(ctx, domain.Test{ID: "m1", Type: domain.TestTypeMain, CreatedAt: base})
	_ = store.Create(ctx, domain.Test{ID: "s1", Type: domain.TestTypeSub, ParentIDs: []string{"m1"}, CreatedAt: base.Add(time.Minute)})
	_ = store.Create(ctx, domain.Test{ID: "s2", Type: domain.TestTypeSub, ParentIDs: []string{"m2"}, CreatedAt: base.Add(2 * time.Minute)})

	subs, _ := store.List(ctx, app.TestFilter{Type: domain.TestTypeSub, ParentID: "m1"})
	if len(subs) != 1 || subs[0].ID != "s1" {
		t.Fatalf("expected s1 only, got %+v", subs)
	}

	byID, _ := store.List(ctx, app.TestFilter{IDs: []string{"s2", "m1"}})
	if len(byID) != 2 || byID[0].ID != "m1" || byID[1].ID != "s2" {
		t.Fatalf("unexpected id filter result %+v", byID)
	}

	if err := store.Delete(ctx, "m1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "m1"); !errors.Is(err, domain.ErrTestNotFound) {
		t.Fatalf("expected ErrTestNotFound, got %v", err)
	}
}

func TestQuestionStoreScopesByTest(t *testing.T) {
	store := NewQuestionStore()
	ctx := context.Background()

	_ = store.Create(ctx, domain.Question{ID: "q2", TestID: "t1"})
	_ = store.Create(ctx, domain.Question{ID: "q1", TestID: "t1"})
	_ = store.Create(ctx, domain.Question{ID: "q3", TestID: "t2"})

	qs, _ := store.ListByTest(ctx, "t1")
	if len(qs) != 2 || qs[0].ID != "q2" || qs[1].ID != "q1" {
		t.Fatalf("expected insertion order, got %+v", qs)
	}
	if _, err := store.Get(ctx, "t2", "q1"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("question must not resolve under another test, got %v", err)
	}
	if err := store.Delete(ctx, "t2", "q1"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("delete under wrong test should fail, got %v", err)
	}
}

func TestUserStoreUniqueness(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	if err := store.Create(ctx, domain.User{ID: "u1", Email: "a@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, domain.User{ID: "u2", Email: "a@example.com"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if err := store.Create(ctx, domain.User{ID: "u3", LoginID: "KN2025AAAA"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, domain.User{ID: "u4", LoginID: "KN2025AAAA"}); !errors.Is(err, domain.ErrLoginIDTaken) {
		t.Fatalf("expected ErrLoginIDTaken, got %v", err)
	}
	user, err := store.GetByLoginID(ctx, "KN2025AAAA")
	if err != nil || user.ID != "u3" {
		t.Fatalf("lookup by login id: %+v %v", user, err)
	}
}

func TestAttemptStoreKeepsFirstDeadline(t *testing.T) {
	store := NewAttemptStore()
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	first, err := store.Start(ctx, domain.Attempt{UserID: "u1", TestID: "t1", StartedAt: start, Deadline: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	again, _ := store.Start(ctx, domain.Attempt{UserID: "u1", TestID: "t1", StartedAt: start.Add(time.Minute), Deadline: start.Add(2 * time.Hour)})
	if !again.Deadline.Equal(first.Deadline) {
		t.Fatalf("restart must not move the deadline: %v vs %v", again.Deadline, first.Deadline)
	}
	if _, err := store.Get(ctx, "u2", "t1"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
}
