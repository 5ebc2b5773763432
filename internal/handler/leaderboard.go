package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-portal/internal/service"
)

// LeaderboardHandler serves the public points ranking.
type LeaderboardHandler struct {
	Ledger *service.LedgerService
}

func NewLeaderboardHandler(ledger *service.LedgerService) *LeaderboardHandler {
	return &LeaderboardHandler{Ledger: ledger}
}

// Leaderboard handles GET /v1/leaderboard?limit=N.
func (h *LeaderboardHandler) Leaderboard(c echo.Context) error {
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	rows, err := h.Ledger.Leaderboard(ctx, limit)
	if err != nil {
		return respondError(c, err, "load leaderboard failed")
	}
	return c.JSON(http.StatusOK, rows)
}
