package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/diwanhq/murasalat/backend/internal/engine"
	"github.com/diwanhq/murasalat/backend/internal/models"
	"github.com/diwanhq/murasalat/backend/internal/repositories"
)

// DepartmentHandler handles department-related HTTP requests
type DepartmentHandler struct {
	departmentRepository repositories.DepartmentRepository
	seenTracker          *engine.SeenTracker
}

// NewDepartmentHandler creates a new DepartmentHandler
func NewDepartmentHandler(deptRepo repositories.DepartmentRepository, seenTracker *engine.SeenTracker) *DepartmentHandler {
	return &DepartmentHandler{departmentRepository: deptRepo, seenTracker: seenTracker}
}

// RegisterDepartmentRoutes registers department routes
func (h *DepartmentHandler) RegisterDepartmentRoutes(g *echo.Group) {
	g.GET("/departments", h.GetDepartments)
	g.POST("/departments", h.CreateDepartment)
	g.GET("/departments/:id", h.GetDepartment)
	g.GET("/departments/:id/unseen-count", h.GetUnseenCount)
}

// GetDepartments lists active departments
func (h *DepartmentHandler) GetDepartments(c echo.Context) error {
	if getClaimsFromContext(c) == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	includeInactive := c.QueryParam("include_inactive") == "true"
	departments, err := h.departmentRepository.GetDepartments(includeInactive)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": departments})
}

// CreateDepartment adds a department. Admin only.
func (h *DepartmentHandler) CreateDepartment(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if !claims.Role.Can(models.CapManageUsers) {
		return echo.NewHTTPError(http.StatusForbidden, "Not allowed to manage departments")
	}

	var req models.CreateDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	department := &models.Department{
		Name:        req.Name,
		NameAr:      req.NameAr,
		Description: req.Description,
		IsActive:    true,
	}
	if err := h.departmentRepository.CreateDepartment(department); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": department})
}

// GetDepartment returns one department
func (h *DepartmentHandler) GetDepartment(c echo.Context) error {
	if getClaimsFromContext(c) == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	department, err := h.departmentRepository.GetDepartmentByID(c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Department not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": department})
}

// GetUnseenCount reports how many live documents assigned to the department
// no active member has opened yet
func (h *DepartmentHandler) GetUnseenCount(c echo.Context) error {
	if getClaimsFromContext(c) == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.seenTracker.UnseenCount(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}
