package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is created only as a side effect of a workflow event
// (assignment, status change); clients never create document notifications
// directly.
type Notification struct {
	ID              string     `json:"id" gorm:"type:char(36);primaryKey"`
	RecipientUserID string     `json:"recipient_user_id" gorm:"type:char(36);index"`
	DocumentID      string     `json:"document_id" gorm:"type:char(36);index"`
	DepartmentID    string     `json:"department_id" gorm:"type:char(36)"`
	Message         string     `json:"message"`
	MessageAr       string     `json:"message_ar"`
	IsRead          bool       `json:"is_read" gorm:"default:false;index"`
	CreatedAt       time.Time  `json:"created_at" gorm:"index"`
	ReadAt          *time.Time `json:"read_at,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
