package engine

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/diwanhq/murasalat/backend/internal/models"
)

// Ledger is the append-only activity log. Entries are never updated or
// deleted; everything else about it is a read-only projection.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Record appends one entry in its own transaction. The only validation is
// that the actor exists.
func (l *Ledger) Record(ctx context.Context, actorID, action, details string, documentID *string, documentRef string) error {
	return l.RecordInTx(l.db.WithContext(ctx), actorID, action, details, documentID, documentRef)
}

// RecordInTx appends one entry inside the caller's transaction so the audit
// record commits together with the state change it describes.
func (l *Ledger) RecordInTx(tx *gorm.DB, actorID, action, details string, documentID *string, documentRef string) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", actorID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &NotFoundError{Entity: "user", ID: actorID}
	}
	entry := models.ActivityLog{
		Action:            action,
		Details:           details,
		UserID:            actorID,
		DocumentID:        documentID,
		DocumentReference: documentRef,
	}
	return tx.Create(&entry).Error
}

// HistoryByDocument returns the document's entries, most recent first.
func (l *Ledger) HistoryByDocument(ctx context.Context, documentID string, page, limit int) ([]models.ActivityLog, int64, error) {
	return l.query(ctx, l.db.WithContext(ctx).Where("document_id = ?", documentID), page, limit)
}

// HistoryByActor returns the entries written by one user, most recent first.
func (l *Ledger) HistoryByActor(ctx context.Context, userID string, page, limit int) ([]models.ActivityLog, int64, error) {
	return l.query(ctx, l.db.WithContext(ctx).Where("user_id = ?", userID), page, limit)
}

// HistoryByDateRange returns entries with from <= timestamp < to.
func (l *Ledger) HistoryByDateRange(ctx context.Context, from, to time.Time, page, limit int) ([]models.ActivityLog, int64, error) {
	return l.query(ctx, l.db.WithContext(ctx).Where("timestamp >= ? AND timestamp < ?", from, to), page, limit)
}

func (l *Ledger) query(ctx context.Context, scope *gorm.DB, page, limit int) ([]models.ActivityLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	scope = scope.Session(&gorm.Session{})

	var total int64
	if err := scope.Model(&models.ActivityLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ActivityLog
	err := scope.Model(&models.ActivityLog{}).
		Order("timestamp DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&entries).Error
	return entries, total, err
}
