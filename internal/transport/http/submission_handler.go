package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

type SubmissionHandler struct {
	submissions *app.SubmissionService
	clock       *app.AttemptClock
}

func NewSubmissionHandler(submissions *app.SubmissionService, clock *app.AttemptClock) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, clock: clock}
}

type submitRequest struct {
	Answers []answerRequest `json:"answers"`
}

// answerRequest keeps a null or missing index distinguishable from option 0.
type answerRequest struct {
	QuestionID          string `json:"questionId"`
	SelectedOptionIndex *int   `json:"selectedOptionIndex"`
}

// answers drops entries without a selected index; those questions score as
// unanswered.
func (r submitRequest) answers() ([]domain.Answer, error) {
	out := make([]domain.Answer, 0, len(r.Answers))
	for i, a := range r.Answers {
		if a.QuestionID == "" {
			return nil, domain.Invalidf("answers[%d].questionId is required", i)
		}
		if a.SelectedOptionIndex == nil {
			continue
		}
		out = append(out, domain.Answer{QuestionID: a.QuestionID, SelectedOptionIndex: *a.SelectedOptionIndex})
	}
	return out, nil
}

func (h *SubmissionHandler) Start(c echo.Context) error {
	left, err := h.clock.Start(c.Request().Context(), caller(c).ID, c.Param("testId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, left)
}

func (h *SubmissionHandler) TimeRemaining(c echo.Context) error {
	left, err := h.clock.Remaining(c.Request().Context(), caller(c).ID, c.Param("testId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, left)
}

// Submit stores the answers. Scoring happens on evaluate.
func (h *SubmissionHandler) Submit(c echo.Context) error {
	var req submitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	answers, err := req.answers()
	if err != nil {
		return err
	}
	sub, err := h.submissions.Submit(c.Request().Context(), caller(c).ID, c.Param("testId"), answers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Answers submitted successfully", "submission": sub})
}

func (h *SubmissionHandler) Evaluate(c echo.Context) error {
	eval, err := h.submissions.Evaluate(c.Request().Context(), caller(c).ID, c.Param("testId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, eval)
}

func (h *SubmissionHandler) Explanations(c echo.Context) error {
	questions, err := h.submissions.Explanations(c.Request().Context(), caller(c).ID, c.Param("testId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, questions)
}

func (h *SubmissionHandler) FilteredExplanations(c echo.Context) error {
	filter, err := app.ParseExplanationFilter(c.QueryParam("filter"))
	if err != nil {
		return err
	}
	results, err := h.submissions.FilteredExplanations(c.Request().Context(), caller(c).ID, c.Param("testId"), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}
