package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/logger"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth        *app.AuthService
	Tests       *app.TestService
	Questions   *app.QuestionService
	Submissions *app.SubmissionService
	Stats       *app.StatsService
	Clock       *app.AttemptClock
	Hub         LeaderboardSource
}

// Options tune the router.
type Options struct {
	AllowedOrigins []string
}

// NewRouter builds the echo instance with middleware and every route.
func NewRouter(svc Services, tokens TokenParser, log *zap.Logger, opts Options) *echo.Echo {
	if log == nil {
		log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger = logger.NewEchoLogger(log)
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = ErrorHandler(log)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(logger.RequestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	authH := NewAuthHandler(svc.Auth)
	testH := NewTestHandler(svc.Tests)
	questionH := NewQuestionHandler(svc.Questions)
	submissionH := NewSubmissionHandler(svc.Submissions, svc.Clock)
	statsH := NewStatsHandler(svc.Stats)
	wsH := NewWSHandler(svc.Hub, svc.Stats, log)

	authn := Authenticate(tokens)
	manageTests := Require(domain.ActionManageTests)
	manageQuestions := Require(domain.ActionManageQuestions)
	manageUsers := Require(domain.ActionManageUsers)
	take := Require(domain.ActionTakeTests)

	a := e.Group("/auth")
	a.POST("/signup", authH.Signup)
	a.POST("/login", authH.Login)
	a.POST("/user-login", authH.UserLogin)
	a.POST("/create-user", authH.CreateUser, authn, manageUsers)
	a.GET("/users", authH.ListUsers, authn, manageUsers)

	t := e.Group("/tests", authn)
	t.GET("", testH.ListAll, take)
	t.GET("/main/all", testH.MainWithSubs, take)
	t.GET("/main-tests", testH.ListMain, take)
	t.POST("/main", testH.CreateMain, manageTests)
	t.PUT("/main/:id", testH.EditMain, manageTests)
	t.DELETE("/main/:id", testH.DeleteMain, manageTests)
	t.GET("/sub-tests", testH.ListSub, take)
	t.GET("/sub-tests/:mainTestId", testH.ListSubOfMain, take)
	t.POST("/sub", testH.CreateSub, manageTests)
	t.PUT("/sub/:id", testH.UpdateSub, manageTests)
	t.DELETE("/sub/:id", testH.DeleteSub, manageTests)
	t.POST("/assign-subtest", testH.AssignSub, manageTests)
	t.PUT("/update/:testId", testH.Update, manageTests)

	t.GET("/user-stats", statsH.UserStats, take)
	t.GET("/leaderboard", statsH.Leaderboard, Require(domain.ActionViewLeaderboard))
	t.GET("/recent-submitted", statsH.RecentSubmitted, take)
	t.GET("/user/:userId/results", statsH.UserResults, Require(domain.ActionViewResults))

	t.GET("/:testId", testH.Get, take)
	t.GET("/:testId/questions", questionH.Sheet, take)
	t.POST("/:testId/questions", questionH.Add, manageQuestions)
	t.GET("/:testId/questions/:questionId", questionH.Get, manageQuestions)
	t.PUT("/:testId/questions/:questionId", questionH.Edit, manageQuestions)
	t.DELETE("/:testId/questions/:questionId", questionH.Delete, manageQuestions)
	t.PUT("/:testId/questions/:questionId/explanation", questionH.SetExplanation, manageQuestions)

	t.POST("/:testId/start", submissionH.Start, take)
	t.GET("/:testId/time-remaining", submissionH.TimeRemaining, take)
	t.POST("/:testId/submit-answers", submissionH.Submit, take)
	t.GET("/:testId/evaluate", submissionH.Evaluate, take)
	t.GET("/:testId/explanations", submissionH.Explanations, take)
	t.GET("/:testId/explanations/filter", submissionH.FilteredExplanations, take)

	e.GET("/ws/leaderboard", wsH.ServeLeaderboard, authn, Require(domain.ActionViewLeaderboard))

	return e
}
