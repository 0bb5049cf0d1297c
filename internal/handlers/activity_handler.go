package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/diwanhq/murasalat/backend/internal/engine"
	"github.com/diwanhq/murasalat/backend/internal/models"
)

// ActivityHandler exposes read-only projections over the activity log.
type ActivityHandler struct {
	ledger *engine.Ledger
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(ledger *engine.Ledger) *ActivityHandler {
	return &ActivityHandler{ledger: ledger}
}

// RegisterActivityRoutes registers audit log routes
func (h *ActivityHandler) RegisterActivityRoutes(g *echo.Group) {
	g.GET("/activity", h.GetActivity)
	g.GET("/activity/users/:id", h.GetActivityByUser)
}

// GetActivity returns log entries in a date range, most recent first.
// Requires audit-view privilege.
func (h *ActivityHandler) GetActivity(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if !claims.Role.Can(models.CapViewAuditLog) {
		return echo.NewHTTPError(http.StatusForbidden, "Not allowed to view the activity log")
	}

	from := time.Time{}
	to := time.Now().Add(24 * time.Hour)
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid 'from' timestamp")
		}
		from = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid 'to' timestamp")
		}
		to = t
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	entries, total, err := h.ledger.HistoryByDateRange(c.Request().Context(), from, to, page, limit)
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"activity": entries},
		"meta":    echo.Map{"totalItems": total},
	})
}

// GetActivityByUser returns one actor's log entries, most recent first
func (h *ActivityHandler) GetActivityByUser(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if !claims.Role.Can(models.CapViewAuditLog) && claims.UserID != c.Param("id") {
		return echo.NewHTTPError(http.StatusForbidden, "Not allowed to view the activity log")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	entries, total, err := h.ledger.HistoryByActor(c.Request().Context(), c.Param("id"), page, limit)
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"activity": entries},
		"meta":    echo.Map{"totalItems": total},
	})
}
