package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/diwanhq/murasalat/backend/internal/engine"
	"github.com/diwanhq/murasalat/backend/internal/models"
)

// StatusHandler exposes the status workflow: transitions, bulk transitions,
// available transitions and the audit history projection.
type StatusHandler struct {
	workflow *engine.Workflow
	ledger   *engine.Ledger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(workflow *engine.Workflow, ledger *engine.Ledger) *StatusHandler {
	return &StatusHandler{workflow: workflow, ledger: ledger}
}

// RegisterStatusRoutes registers workflow routes
func (h *StatusHandler) RegisterStatusRoutes(g *echo.Group) {
	g.PATCH("/documents/:id/status", h.UpdateStatus)
	g.POST("/documents/bulk-status", h.BulkUpdateStatus)
	g.GET("/documents/:id/transitions", h.GetAvailableTransitions)
	g.GET("/documents/:id/history", h.GetStatusHistory)
}

// UpdateStatus moves one document through the workflow
func (h *StatusHandler) UpdateStatus(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	doc, err := h.workflow.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status, engine.ActorFromClaims(claims), req.Comment)
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": doc})
}

// BulkUpdateStatus applies one transition to a batch of documents. The batch
// is all-or-nothing; the response reports every rejected member with its
// reason.
func (h *StatusHandler) BulkUpdateStatus(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.BulkUpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.workflow.BulkUpdateStatus(c.Request().Context(), req.DocumentIDs, req.Status, engine.ActorFromClaims(claims))
	if err != nil {
		return engineHTTPError(err)
	}

	status := http.StatusOK
	if len(result.Rejected) > 0 {
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, echo.Map{"success": len(result.Rejected) == 0, "data": result})
}

// GetAvailableTransitions reports where the document can go next
func (h *StatusHandler) GetAvailableTransitions(c echo.Context) error {
	if getClaimsFromContext(c) == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	options, err := h.workflow.AvailableTransitions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": options})
}

// GetStatusHistory returns the document's activity log, most recent first
func (h *StatusHandler) GetStatusHistory(c echo.Context) error {
	if getClaimsFromContext(c) == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	entries, total, err := h.ledger.HistoryByDocument(c.Request().Context(), c.Param("id"), page, limit)
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"history": entries},
		"meta":    echo.Map{"totalItems": total},
	})
}
