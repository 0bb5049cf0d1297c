package repositories

import (
	"github.com/diwanhq/murasalat/backend/internal/models"
	"gorm.io/gorm"
)

// DepartmentRepository defines the interface for department data operations
type DepartmentRepository interface {
	CreateDepartment(department *models.Department) error
	GetDepartmentByID(id string) (*models.Department, error)
	GetDepartments(includeInactive bool) ([]models.Department, error)
	UpdateDepartment(department *models.Department) error
	DeactivateDepartment(id string) error
}

// PostgresDepartmentRepository implements DepartmentRepository for PostgreSQL
type PostgresDepartmentRepository struct {
	db *gorm.DB
}

// NewPostgresDepartmentRepository creates a new PostgresDepartmentRepository
func NewPostgresDepartmentRepository(db *gorm.DB) *PostgresDepartmentRepository {
	return &PostgresDepartmentRepository{db: db}
}

func (r *PostgresDepartmentRepository) CreateDepartment(department *models.Department) error {
	return r.db.Create(department).Error
}

func (r *PostgresDepartmentRepository) GetDepartmentByID(id string) (*models.Department, error) {
	var department models.Department
	if err := r.db.First(&department, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *PostgresDepartmentRepository) GetDepartments(includeInactive bool) ([]models.Department, error) {
	var departments []models.Department
	scope := r.db.Order("name ASC")
	if !includeInactive {
		scope = scope.Where("is_active")
	}
	if err := scope.Find(&departments).Error; err != nil {
		return nil, err
	}
	return departments, nil
}

func (r *PostgresDepartmentRepository) UpdateDepartment(department *models.Department) error {
	return r.db.Save(department).Error
}

// DeactivateDepartment retires a department; existing assignments keep their
// junction rows for history
func (r *PostgresDepartmentRepository) DeactivateDepartment(id string) error {
	res := r.db.Model(&models.Department{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
