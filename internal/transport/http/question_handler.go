package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

type QuestionHandler struct {
	service *app.QuestionService
}

func NewQuestionHandler(service *app.QuestionService) *QuestionHandler {
	return &QuestionHandler{service: service}
}

type questionRequest struct {
	QuestionText    string          `json:"questionText" validate:"required"`
	Options         []domain.Option `json:"options" validate:"required"`
	Explanation     string          `json:"explanation"`
	Category        string          `json:"category"`
	SubTestCategory string          `json:"subTestCategory"`
}

func (r questionRequest) input() app.QuestionInput {
	category := r.Category
	if category == "" {
		category = r.SubTestCategory
	}
	return app.QuestionInput{
		Text:        r.QuestionText,
		Options:     r.Options,
		Explanation: r.Explanation,
		Category:    category,
	}
}

type explanationRequest struct {
	Explanation string `json:"explanation" validate:"required"`
}

// Sheet is the learner view: options without correctness and the countdown in seconds.
func (h *QuestionHandler) Sheet(c echo.Context) error {
	sheet, err := h.service.Sheet(c.Request().Context(), c.Param("testId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sheet)
}

func (h *QuestionHandler) Get(c echo.Context) error {
	q, err := h.service.Get(c.Request().Context(), c.Param("testId"), c.Param("questionId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, q)
}

func (h *QuestionHandler) Add(c echo.Context) error {
	var req questionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q, err := h.service.Add(c.Request().Context(), c.Param("testId"), req.input(), author(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Question added", "question": q})
}

func (h *QuestionHandler) Edit(c echo.Context) error {
	var req questionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q, err := h.service.Edit(c.Request().Context(), c.Param("testId"), c.Param("questionId"), req.input(), author(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Question updated", "question": q})
}

func (h *QuestionHandler) SetExplanation(c echo.Context) error {
	var req explanationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q, err := h.service.SetExplanation(c.Request().Context(), c.Param("testId"), c.Param("questionId"), req.Explanation, author(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Explanation updated", "question": q})
}

func (h *QuestionHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("testId"), c.Param("questionId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Question deleted"})
}
