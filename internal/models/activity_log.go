package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions form a fixed vocabulary; Details carries the human-readable
// summary.
const (
	ActionDocumentCreated  = "Document Created"
	ActionDocumentAssigned = "Document Assigned"
	ActionStatusChanged    = "Status Changed"
	ActionDocumentArchived = "Document Archived"
	ActionUserLogin        = "User Login"
)

// ActivityLog is an append-only audit record. Rows are never updated or
// deleted after insert.
type ActivityLog struct {
	ID                string    `json:"id" gorm:"type:char(36);primaryKey"`
	Action            string    `json:"action" gorm:"size:50;index"`
	Details           string    `json:"details" gorm:"type:text"`
	UserID            string    `json:"user_id" gorm:"type:char(36);index"`
	DocumentID        *string   `json:"document_id,omitempty" gorm:"type:char(36);index"`
	DocumentReference string    `json:"document_reference,omitempty" gorm:"size:30"`
	Timestamp         time.Time `json:"timestamp" gorm:"index"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	return nil
}
