package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-service/internal/app"
	"assessment-service/internal/auth"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

type testEnv struct {
	e       *echo.Echo
	tokens  *auth.Manager
	authSvc *app.AuthService
	hub     *app.LeaderboardHub
	admin   string
	learner string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tests := memory.NewTestStore()
	questions := memory.NewQuestionStore()
	users := memory.NewUserStore()
	repos := app.Repositories{
		Tests:       tests,
		Questions:   questions,
		Submissions: memory.NewSubmissionStore(),
		Users:       users,
		AnswerKeys:  memory.NewAnswerKeyRepository(app.NewQuestionKeyLoader(questions), time.Minute),
		Attempts:    memory.NewAttemptStore(),
	}
	tokens := auth.NewManager("test-secret", time.Hour, "assessment-service")
	hub := app.NewLeaderboardHub()
	authSvc := app.NewAuthService(users, tokens, false, nil)
	stats := app.NewStatsService(repos, app.DefaultPassPercentage)

	svc := Services{
		Auth:        authSvc,
		Tests:       app.NewTestService(tests, repos.Submissions, app.WithQuestionCleanup(questions, repos.AnswerKeys)),
		Questions:   app.NewQuestionService(tests, questions, repos.AnswerKeys, nil),
		Submissions: app.NewSubmissionService(repos, stats, nil, app.WithLeaderboardPublisher(hub)),
		Stats:       stats,
		Clock:       app.NewAttemptClock(tests, repos.Attempts),
		Hub:         hub,
	}

	env := &testEnv{
		e:       NewRouter(svc, tokens, nil, Options{}),
		tokens:  tokens,
		authSvc: authSvc,
		hub:     hub,
	}

	ctx := context.Background()
	admin, err := authSvc.Bootstrap(ctx, app.SignupInput{Email: "admin@example.com", Name: "Admin", Password: "secret1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	learner, err := authSvc.CreateUser(ctx, "Ada", "secret1")
	require.NoError(t, err)

	env.admin = env.issue(t, admin)
	env.learner = env.issue(t, learner)
	return env
}

func (env *testEnv) issue(t *testing.T, user domain.User) string {
	t.Helper()
	token, err := env.tokens.Issue(user)
	require.NoError(t, err)
	return token
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorResponse](t, rec).Message
}

func options(correct int) []domain.Option {
	opts := make([]domain.Option, domain.OptionsPerQuestion)
	for i := range opts {
		opts[i] = domain.Option{Text: string(rune('A' + i)), IsCorrect: i == correct}
	}
	return opts
}

// createTestWithQuestions creates a main test holding one question per correct index.
func (env *testEnv) createTestWithQuestions(t *testing.T, correct ...int) (string, []string) {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/tests/main", echo.Map{"testTitle": "Go basics"}, env.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	testID := decode[domain.Test](t, rec).ID

	ids := make([]string, 0, len(correct))
	for i, c := range correct {
		rec := env.do(t, http.MethodPost, "/tests/"+testID+"/questions", echo.Map{
			"questionText": "Q" + string(rune('1'+i)),
			"options":      options(c),
			"explanation":  "explanation " + string(rune('1'+i)),
		}, env.admin)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created := decode[struct {
			Question domain.Question `json:"question"`
		}](t, rec)
		ids = append(ids, created.Question.ID)
	}
	return testID, ids
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/signup", echo.Map{"email": "new@example.com", "username": "Newbie", "password": "hunter22"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/auth/signup", echo.Map{"email": "new@example.com", "name": "Again", "password": "hunter22"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", message(t, rec))

	rec = env.do(t, http.MethodPost, "/auth/signup", echo.Map{"email": "boss@example.com", "name": "Boss", "password": "hunter22", "role": "superadmin"}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/signup", echo.Map{"email": "short@example.com", "password": "abc"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", echo.Map{"email": "new@example.com", "password": "hunter22"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[app.LoginResult](t, rec)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "Newbie", login.User.Name)
	assert.NotContains(t, rec.Body.String(), "password")

	claims, err := env.tokens.Parse(login.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, claims.Role)

	rec = env.do(t, http.MethodPost, "/auth/login", echo.Map{"email": "new@example.com", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", message(t, rec))

	rec = env.do(t, http.MethodPost, "/auth/login", echo.Map{"email": "ghost@example.com", "password": "whatever"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLearnerLoginWithGeneratedID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/create-user", echo.Map{"name": "Grace", "password": "secret1"}, env.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		User domain.User `json:"user"`
	}](t, rec)
	require.True(t, strings.HasPrefix(created.User.LoginID, "KN"), created.User.LoginID)

	rec = env.do(t, http.MethodPost, "/auth/user-login", echo.Map{"loginId": strings.ToLower(created.User.LoginID), "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/auth/create-user", echo.Map{"name": "Eve", "password": "secret1"}, env.learner)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthenticationErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/tests", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token provided", message(t, rec))

	rec = env.do(t, http.MethodGet, "/tests", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", message(t, rec))

	other := auth.NewManager("other-secret", time.Hour, "assessment-service")
	forged, err := other.Issue(domain.User{ID: "x", Name: "X", Role: domain.RoleAdmin})
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/tests", nil, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLearnerCannotManageTests(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/tests/main", echo.Map{"testTitle": "Nope"}, env.learner)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied", message(t, rec))
}

func TestAddQuestionRequiresFourOptionsWithOneCorrect(t *testing.T) {
	env := newTestEnv(t)
	testID, _ := env.createTestWithQuestions(t)

	rec := env.do(t, http.MethodPost, "/tests/"+testID+"/questions", echo.Map{
		"questionText": "Too few",
		"options":      options(0)[:3],
	}, env.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	twoCorrect := options(0)
	twoCorrect[1].IsCorrect = true
	rec = env.do(t, http.MethodPost, "/tests/"+testID+"/questions", echo.Map{
		"questionText": "Two right",
		"options":      twoCorrect,
	}, env.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/tests/missing/questions", echo.Map{
		"questionText": "Orphan",
		"options":      options(0),
	}, env.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitEvaluateAndExplain(t *testing.T) {
	env := newTestEnv(t)
	testID, qids := env.createTestWithQuestions(t, 1, 0)
	base := "/tests/" + testID

	rec := env.do(t, http.MethodGet, base+"/questions", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "isCorrect")
	sheet := decode[app.QuestionSheet](t, rec)
	assert.Len(t, sheet.Questions, 2)
	assert.Equal(t, app.DefaultTimerSeconds, sheet.Timer)

	rec = env.do(t, http.MethodGet, base+"/explanations", nil, env.learner)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodGet, base+"/evaluate", nil, env.learner)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	answers := echo.Map{"answers": []domain.Answer{
		{QuestionID: qids[0], SelectedOptionIndex: 1},
		{QuestionID: qids[1], SelectedOptionIndex: 2},
	}}
	rec = env.do(t, http.MethodPost, base+"/submit-answers", answers, env.learner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, base+"/submit-answers", answers, env.learner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You have already submitted answers for this test", message(t, rec))

	rec = env.do(t, http.MethodGet, base+"/evaluate", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code)
	eval := decode[domain.Evaluation](t, rec)
	assert.Equal(t, 2, eval.TotalQuestions)
	assert.Equal(t, 1, eval.CorrectAnswers)
	assert.Equal(t, 50, eval.ScorePercentage)

	rec = env.do(t, http.MethodGet, base+"/explanations/filter?filter=correct", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code)
	correct := decode[[]domain.ExplainedResult](t, rec)
	require.Len(t, correct, 1)
	assert.Equal(t, qids[0], correct[0].QuestionID)
	assert.Equal(t, "explanation 1", correct[0].Explanation)

	rec = env.do(t, http.MethodGet, base+"/explanations/filter?filter=incorrect", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code)
	incorrect := decode[[]domain.ExplainedResult](t, rec)
	require.Len(t, incorrect, 1)
	assert.Equal(t, qids[1], incorrect[0].QuestionID)

	rec = env.do(t, http.MethodGet, base+"/explanations/filter?filter=everything", nil, env.learner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid filter. Use 'correct' or 'incorrect'", message(t, rec))

	rec = env.do(t, http.MethodGet, "/tests", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]domain.TestWithStatus](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, domain.StatusSubmitted, listed[0].Status)

	rec = env.do(t, http.MethodGet, "/tests/leaderboard", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code)
	lb := decode[domain.Leaderboard](t, rec)
	require.Len(t, lb.Entries, 1)
	assert.Equal(t, "Ada", lb.Entries[0].Name)
	assert.Equal(t, 50.0, lb.Entries[0].Accuracy)
}

func TestSubTestHierarchy(t *testing.T) {
	env := newTestEnv(t)
	mainID, _ := env.createTestWithQuestions(t)

	rec := env.do(t, http.MethodPost, "/tests/sub", echo.Map{"testTitle": "Arrays", "parentTestIds": []string{mainID}}, env.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Duration is required", message(t, rec))

	rec = env.do(t, http.MethodPost, "/tests/sub", echo.Map{
		"testTitle":     "Arrays",
		"duration":      20,
		"validTill":     "2099-01-01",
		"parentTestIds": []string{mainID},
	}, env.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sub := decode[domain.Test](t, rec)
	require.NotNil(t, sub.ValidTill)
	assert.Equal(t, 2099, sub.ValidTill.Year())

	rec = env.do(t, http.MethodPost, "/tests/assign-subtest", echo.Map{"subTestId": sub.ID, "mainTestId": mainID}, env.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Sub test is already assigned to this main test", message(t, rec))

	rec = env.do(t, http.MethodGet, "/tests/sub-tests/"+mainID, nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code)
	subs := decode[[]domain.TestWithStatus](t, rec)
	require.Len(t, subs, 1)
	assert.Equal(t, domain.StatusUpcoming, subs[0].Status)

	rec = env.do(t, http.MethodGet, "/tests/main/all", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code)
	grouped := decode[[]app.MainTestWithSubs](t, rec)
	require.Len(t, grouped, 1)
	assert.Len(t, grouped[0].SubTests, 1)

	rec = env.do(t, http.MethodGet, "/tests/"+sub.ID+"/questions", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20*60, decode[app.QuestionSheet](t, rec).Timer)
}

func TestAttemptClockRoutes(t *testing.T) {
	env := newTestEnv(t)
	testID, _ := env.createTestWithQuestions(t, 0)

	rec := env.do(t, http.MethodGet, "/tests/"+testID+"/time-remaining", nil, env.learner)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/tests/"+testID+"/start", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	started := decode[app.TimeRemaining](t, rec)
	assert.InDelta(t, app.DefaultTimerSeconds, started.RemainingSeconds, 5)

	rec = env.do(t, http.MethodGet, "/tests/"+testID+"/time-remaining", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code)
	left := decode[app.TimeRemaining](t, rec)
	assert.True(t, left.Deadline.Equal(started.Deadline))
}

func TestUnknownRouteRendersMessage(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, message(t, rec))
}

func TestSubmitWithoutSelectedIndexScoresUnanswered(t *testing.T) {
	env := newTestEnv(t)
	testID, qids := env.createTestWithQuestions(t, 0, 0)
	base := "/tests/" + testID

	rec := env.do(t, http.MethodPost, base+"/submit-answers", echo.Map{"answers": []echo.Map{
		{"questionId": qids[0], "selectedOptionIndex": nil},
		{"questionId": qids[1]},
	}}, env.learner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, base+"/evaluate", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code)
	eval := decode[domain.Evaluation](t, rec)
	assert.Equal(t, 2, eval.TotalQuestions)
	assert.Equal(t, 0, eval.CorrectAnswers)
	require.Len(t, eval.Details, 2)
	for _, d := range eval.Details {
		assert.Nil(t, d.SelectedOptionIndex)
		assert.False(t, d.IsCorrect)
		assert.Equal(t, 0, d.CorrectOptionIndex)
	}
}

func TestSubmitRequiresQuestionID(t *testing.T) {
	env := newTestEnv(t)
	testID, _ := env.createTestWithQuestions(t, 0)

	rec := env.do(t, http.MethodPost, "/tests/"+testID+"/submit-answers", echo.Map{"answers": []echo.Map{
		{"selectedOptionIndex": nil},
	}}, env.learner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "answers[0].questionId is required", message(t, rec))
}

func TestLeaderboardSurvivesDeletedTest(t *testing.T) {
	env := newTestEnv(t)
	testID, qids := env.createTestWithQuestions(t, 1)

	rec := env.do(t, http.MethodPost, "/tests/"+testID+"/submit-answers", echo.Map{"answers": []domain.Answer{
		{QuestionID: qids[0], SelectedOptionIndex: 1},
	}}, env.learner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/tests/main/"+testID, nil, env.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/tests/leaderboard", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lb := decode[domain.Leaderboard](t, rec)
	require.Len(t, lb.Entries, 1)
	assert.Equal(t, 0.0, lb.Entries[0].Accuracy)

	rec = env.do(t, http.MethodGet, "/tests/user-stats", nil, env.learner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decode[domain.UserStats](t, rec)
	assert.Equal(t, 1, stats.TotalTests)
	assert.Equal(t, 1, stats.Failed)
}
