package engine

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diwanhq/murasalat/backend/internal/models"
)

// SeenTracker keeps the per-(document, user) seen ledger. Marking a document
// seen is a pure observability signal: it never touches document status and
// never triggers notifications.
type SeenTracker struct {
	db *gorm.DB
}

func NewSeenTracker(db *gorm.DB) *SeenTracker {
	return &SeenTracker{db: db}
}

// MarkSeen upserts the (document, user) entry. Repeated calls only refresh
// SeenAt, so the operation is safe to apply twice.
func (t *SeenTracker) MarkSeen(ctx context.Context, documentID, userID, departmentID string) error {
	var count int64
	if err := t.db.WithContext(ctx).Model(&models.Document{}).Where("id = ?", documentID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &NotFoundError{Entity: "document", ID: documentID}
	}

	now := time.Now()
	entry := models.DocumentSeen{
		DocumentID:   documentID,
		UserID:       userID,
		DepartmentID: departmentID,
		SeenAt:       now,
	}
	return t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"seen_at": now}),
	}).Create(&entry).Error
}

// UnseenCount counts documents assigned to the department that no active
// member has opened yet. Documents in terminal states are excluded.
func (t *SeenTracker) UnseenCount(ctx context.Context, departmentID string) (int64, error) {
	var n int64
	err := t.db.WithContext(ctx).Model(&models.Document{}).
		Joins("JOIN document_departments dd ON dd.document_id = documents.id").
		Where("dd.department_id = ?", departmentID).
		Where("documents.status NOT IN ?", []models.DocumentStatus{models.StatusCompleted, models.StatusArchived}).
		Where(`NOT EXISTS (
			SELECT 1 FROM document_seens ds
			JOIN users u ON u.id = ds.user_id
			WHERE ds.document_id = documents.id
			  AND u.department_id = ?
			  AND u.is_active)`, departmentID).
		Count(&n).Error
	return n, err
}

// SeenBy returns the seen entries for a document, most recent first.
func (t *SeenTracker) SeenBy(ctx context.Context, documentID string) ([]models.DocumentSeen, error) {
	var entries []models.DocumentSeen
	err := t.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("seen_at DESC").
		Find(&entries).Error
	return entries, err
}
