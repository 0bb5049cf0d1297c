package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/diwanhq/murasalat/backend/internal/engine"
	"github.com/diwanhq/murasalat/backend/internal/models"
	"github.com/diwanhq/murasalat/backend/internal/repositories"
)

// DocumentHandler handles document CRUD, assignment and seen-marking.
type DocumentHandler struct {
	documentRepository repositories.DocumentRepository
	coordinator        *engine.Coordinator
	seenTracker        *engine.SeenTracker
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(docRepo repositories.DocumentRepository, coordinator *engine.Coordinator, seenTracker *engine.SeenTracker) *DocumentHandler {
	return &DocumentHandler{
		documentRepository: docRepo,
		coordinator:        coordinator,
		seenTracker:        seenTracker,
	}
}

// RegisterDocumentRoutes registers document routes
func (h *DocumentHandler) RegisterDocumentRoutes(g *echo.Group) {
	g.POST("/documents", h.CreateDocument)
	g.GET("/documents", h.GetDocuments)
	g.GET("/documents/:id", h.GetDocument)
	g.POST("/documents/:id/seen", h.MarkSeen)
	g.POST("/documents/:id/assign", h.AssignDepartments)
}

// CreateDocument registers a new piece of correspondence. The reference
// number is minted here and never changes afterwards; supplying departments
// routes the document immediately and it lands in PENDING.
func (h *DocumentHandler) CreateDocument(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	doc, err := h.coordinator.CreateDocument(c.Request().Context(), req, engine.ActorFromClaims(claims))
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": doc})
}

// GetDocuments returns a filtered, paginated document listing
func (h *DocumentHandler) GetDocuments(c echo.Context) error {
	if getClaimsFromContext(c) == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := repositories.DocumentFilter{
		Status:       models.DocumentStatus(c.QueryParam("status")),
		Priority:     models.Priority(c.QueryParam("priority")),
		CategoryID:   c.QueryParam("category_id"),
		DepartmentID: c.QueryParam("department_id"),
		CreatedByID:  c.QueryParam("created_by"),
		Search:       c.QueryParam("search"),
	}

	docs, total, err := h.documentRepository.GetDocuments(filter, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"documents": docs},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

// GetDocument returns one document and records that the caller has opened
// it. The seen mark is fire-and-forget: it never affects the response.
func (h *DocumentHandler) GetDocument(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	doc, err := h.documentRepository.GetDocumentByID(c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Document not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Fire-and-forget: losing one seen mark is acceptable.
	go func(documentID, userID, departmentID string) {
		_ = h.seenTracker.MarkSeen(context.Background(), documentID, userID, departmentID)
	}(doc.ID, claims.UserID, claimsDepartment(claims))

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": doc})
}

// MarkSeen explicitly records that the caller has viewed the document.
// Idempotent: repeated calls only refresh the timestamp.
func (h *DocumentHandler) MarkSeen(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	err := h.seenTracker.MarkSeen(c.Request().Context(), c.Param("id"), claims.UserID, claimsDepartment(claims))
	if err != nil {
		return engineHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"message": "Document marked as seen"}})
}

// AssignDepartments replaces the document's department set as one unit of
// work and fans out notifications to the new departments' members.
func (h *DocumentHandler) AssignDepartments(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.AssignDepartmentsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.coordinator.Assign(c.Request().Context(), c.Param("id"), req.DepartmentIDs, engine.ActorFromClaims(claims))
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": result})
}

func claimsDepartment(claims *models.JwtCustomClaims) string {
	if claims.DepartmentID != nil {
		return *claims.DepartmentID
	}
	return ""
}
