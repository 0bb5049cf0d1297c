package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/diwanhq/murasalat/backend/internal/models"
	"github.com/diwanhq/murasalat/backend/internal/repositories"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryRepository repositories.CategoryRepository
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryRepo repositories.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{categoryRepository: categoryRepo}
}

// RegisterCategoryRoutes registers category routes
func (h *CategoryHandler) RegisterCategoryRoutes(g *echo.Group) {
	g.GET("/categories", h.GetCategories)
	g.POST("/categories", h.CreateCategory)
}

// GetCategories lists active categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	if getClaimsFromContext(c) == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	includeInactive := c.QueryParam("include_inactive") == "true"
	categories, err := h.categoryRepository.GetCategories(includeInactive)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": categories})
}

// CreateCategory adds a category. Admin only.
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	claims := getClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if !claims.Role.Can(models.CapManageUsers) {
		return echo.NewHTTPError(http.StatusForbidden, "Not allowed to manage categories")
	}

	var req models.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	category := &models.Category{Name: req.Name, NameAr: req.NameAr, IsActive: true}
	if err := h.categoryRepository.CreateCategory(category); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": category})
}
