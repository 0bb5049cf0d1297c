package repositories

import (
	"github.com/diwanhq/murasalat/backend/internal/models"
	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	CreateCategory(category *models.Category) error
	GetCategoryByID(id string) (*models.Category, error)
	GetCategories(includeInactive bool) ([]models.Category, error)
	DeactivateCategory(id string) error
}

type postgresCategoryRepository struct {
	db *gorm.DB
}

func NewPostgresCategoryRepository(db *gorm.DB) CategoryRepository {
	return &postgresCategoryRepository{db: db}
}

func (r *postgresCategoryRepository) CreateCategory(category *models.Category) error {
	return r.db.Create(category).Error
}

func (r *postgresCategoryRepository) GetCategoryByID(id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *postgresCategoryRepository) GetCategories(includeInactive bool) ([]models.Category, error) {
	var categories []models.Category
	scope := r.db.Order("name ASC")
	if !includeInactive {
		scope = scope.Where("is_active")
	}
	if err := scope.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *postgresCategoryRepository) DeactivateCategory(id string) error {
	res := r.db.Model(&models.Category{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
