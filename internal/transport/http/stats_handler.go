package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"assessment-service/internal/app"
)

type StatsHandler struct {
	stats *app.StatsService
}

func NewStatsHandler(stats *app.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Leaderboard(c echo.Context) error {
	lb, err := h.stats.Leaderboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lb)
}

func (h *StatsHandler) UserStats(c echo.Context) error {
	stats, err := h.stats.UserStats(c.Request().Context(), caller(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) RecentSubmitted(c echo.Context) error {
	tests, err := h.stats.RecentSubmitted(c.Request().Context(), caller(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tests)
}

// UserResults lists every scored submission of another user.
func (h *StatsHandler) UserResults(c echo.Context) error {
	results, err := h.stats.UserResults(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}
