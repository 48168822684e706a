package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"assessment-service/internal/domain"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{domain.ErrAlreadySubmitted, http.StatusBadRequest, "You have already submitted answers for this test"},
	{domain.ErrEmailTaken, http.StatusBadRequest, "User already exists"},
	{domain.ErrLoginIDTaken, http.StatusConflict, "Login id already exists, try again"},
	{domain.ErrAlreadyAssigned, http.StatusBadRequest, "Sub test is already assigned to this main test"},
	{domain.ErrDeadlinePassed, http.StatusBadRequest, "The deadline for this test has passed"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "Unauthenticated"},
	{domain.ErrForbidden, http.StatusForbidden, "Access denied"},
	{domain.ErrNotSubmitted, http.StatusForbidden, "You must submit the test first to view explanations"},
	{domain.ErrTestNotFound, http.StatusNotFound, "Test not found"},
	{domain.ErrQuestionNotFound, http.StatusNotFound, "Question not found"},
	{domain.ErrSubmissionNotFound, http.StatusNotFound, "No submission found for this test"},
	{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{domain.ErrAttemptNotFound, http.StatusNotFound, "Test has not been started"},
}

// translate maps an error to a status code and response body.
func translate(err error) (int, errorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprint(he.Message)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		return he.Code, errorResponse{Message: msg}
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Message: ve.Message}
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, errorResponse{Message: m.message}
		}
	}
	return http.StatusInternalServerError, errorResponse{Message: "Internal server error", Error: err.Error()}
}

// ErrorHandler replaces echo's default handler so every failure renders as
// {"message": ...} and server errors reach the service log.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := translate(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Warn("write error response", zap.Error(err))
		}
	}
}
