package repositories

import (
	"github.com/diwanhq/murasalat/backend/internal/models"
	"gorm.io/gorm"
)

// DocumentFilter narrows a document listing. Zero values mean "any".
type DocumentFilter struct {
	Status       models.DocumentStatus
	Priority     models.Priority
	CategoryID   string
	DepartmentID string
	CreatedByID  string
	Search       string // matches subject or reference number
}

// DocumentRepository defines the read-side interface for documents. All
// writes that carry workflow semantics go through the engine instead.
type DocumentRepository interface {
	GetDocumentByID(id string) (*models.Document, error)
	GetDocuments(filter DocumentFilter, page, limit int) ([]models.Document, int64, error)
	GetDepartmentIDs(documentID string) ([]string, error)
}

type postgresDocumentRepository struct {
	db *gorm.DB
}

func NewPostgresDocumentRepository(db *gorm.DB) DocumentRepository {
	return &postgresDocumentRepository{db: db}
}

func (r *postgresDocumentRepository) GetDocumentByID(id string) (*models.Document, error) {
	var doc models.Document
	if err := r.db.Preload("Departments").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *postgresDocumentRepository) GetDocuments(filter DocumentFilter, page, limit int) ([]models.Document, int64, error) {
	scope := r.db.Model(&models.Document{})

	if filter.Status != "" {
		scope = scope.Where("documents.status = ?", filter.Status)
	}
	if filter.Priority != "" {
		scope = scope.Where("documents.priority = ?", filter.Priority)
	}
	if filter.CategoryID != "" {
		scope = scope.Where("documents.category_id = ?", filter.CategoryID)
	}
	if filter.CreatedByID != "" {
		scope = scope.Where("documents.created_by_id = ?", filter.CreatedByID)
	}
	if filter.DepartmentID != "" {
		scope = scope.Joins("JOIN document_departments dd ON dd.document_id = documents.id").
			Where("dd.department_id = ?", filter.DepartmentID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		scope = scope.Where("LOWER(documents.subject) LIKE LOWER(?) OR documents.reference_number LIKE ?", like, like)
	}
	scope = scope.Session(&gorm.Session{})

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []models.Document
	err := scope.Order("documents.created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Preload("Departments").
		Find(&docs).Error
	return docs, total, err
}

func (r *postgresDocumentRepository) GetDepartmentIDs(documentID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.DocumentDepartment{}).
		Where("document_id = ?", documentID).
		Pluck("department_id", &ids).Error
	return ids, err
}
