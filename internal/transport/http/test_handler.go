package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

type TestHandler struct {
	service *app.TestService
}

func NewTestHandler(service *app.TestService) *TestHandler {
	return &TestHandler{service: service}
}

// flexTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return domain.Invalidf("validTill must be a date or RFC 3339 timestamp")
}

func (t *flexTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

type testRequest struct {
	Title         string    `json:"testTitle"`
	CompanyName   string    `json:"companyName"`
	Description   string    `json:"description"`
	ValidTill     *flexTime `json:"validTill"`
	Duration      int       `json:"duration"`
	ParentTestIDs []string  `json:"parentTestIds"`
}

func (r testRequest) input() app.TestInput {
	return app.TestInput{
		Title:       r.Title,
		CompanyName: r.CompanyName,
		Description: r.Description,
		ValidTill:   r.ValidTill.ptr(),
		Duration:    r.Duration,
		ParentIDs:   r.ParentTestIDs,
	}
}

type testPatchRequest struct {
	Title         *string   `json:"testTitle"`
	CompanyName   *string   `json:"companyName"`
	Description   *string   `json:"description"`
	ValidTill     *flexTime `json:"validTill"`
	Duration      *int      `json:"duration"`
	TestType      *string   `json:"testType" validate:"omitempty,oneof=main sub"`
	ParentTestIDs *[]string `json:"parentTestIds"`
}

type assignRequest struct {
	SubTestID  string `json:"subTestId" validate:"required"`
	MainTestID string `json:"mainTestId" validate:"required"`
}

func (h *TestHandler) CreateMain(c echo.Context) error {
	var req testRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	test, err := h.service.CreateMain(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, test)
}

func (h *TestHandler) EditMain(c echo.Context) error {
	var req testRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	test, err := h.service.EditMain(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Main test updated successfully", "test": test})
}

func (h *TestHandler) DeleteMain(c echo.Context) error {
	if err := h.service.DeleteMain(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Main test deleted successfully"})
}

func (h *TestHandler) CreateSub(c echo.Context) error {
	var req testRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	test, err := h.service.CreateSub(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, test)
}

func (h *TestHandler) UpdateSub(c echo.Context) error {
	var req testRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	test, err := h.service.UpdateSub(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, test)
}

func (h *TestHandler) DeleteSub(c echo.Context) error {
	if err := h.service.DeleteSub(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Sub test deleted successfully"})
}

func (h *TestHandler) AssignSub(c echo.Context) error {
	var req assignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sub, err := h.service.AssignSub(c.Request().Context(), req.SubTestID, req.MainTestID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Sub test assigned to main test successfully", "subTest": sub})
}

func (h *TestHandler) Update(c echo.Context) error {
	var req testPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	patch := app.TestPatch{
		Title:       req.Title,
		CompanyName: req.CompanyName,
		Description: req.Description,
		ValidTill:   req.ValidTill.ptr(),
		Duration:    req.Duration,
		ParentIDs:   req.ParentTestIDs,
	}
	if req.TestType != nil {
		typ := domain.TestType(*req.TestType)
		patch.Type = &typ
	}
	test, err := h.service.Update(c.Request().Context(), c.Param("testId"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, test)
}

func (h *TestHandler) Get(c echo.Context) error {
	test, err := h.service.Get(c.Request().Context(), c.Param("testId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, test)
}

func (h *TestHandler) ListAll(c echo.Context) error {
	return h.list(c, app.TestFilter{})
}

func (h *TestHandler) ListMain(c echo.Context) error {
	return h.list(c, app.TestFilter{Type: domain.TestTypeMain})
}

func (h *TestHandler) ListSub(c echo.Context) error {
	return h.list(c, app.TestFilter{Type: domain.TestTypeSub})
}

func (h *TestHandler) ListSubOfMain(c echo.Context) error {
	return h.list(c, app.TestFilter{Type: domain.TestTypeSub, ParentID: c.Param("mainTestId")})
}

func (h *TestHandler) MainWithSubs(c echo.Context) error {
	out, err := h.service.MainWithSubs(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TestHandler) list(c echo.Context, filter app.TestFilter) error {
	tests, err := h.service.ListWithStatus(c.Request().Context(), caller(c).ID, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tests)
}
