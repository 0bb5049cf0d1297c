package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is a piece of tracked correspondence. ReferenceNumber is assigned
// exactly once at creation and never changes afterwards.
type Document struct {
	ID                 string         `json:"id" gorm:"type:char(36);primaryKey"`
	ReferenceNumber    string         `json:"reference_number" gorm:"uniqueIndex;size:30"`
	Subject            string         `json:"subject" gorm:"size:500"`
	Summary            string         `json:"summary" gorm:"type:text"`
	SenderName         string         `json:"sender_name" gorm:"size:255"`
	SenderOrganization string         `json:"sender_organization" gorm:"size:255"`
	Status             DocumentStatus `json:"status" gorm:"size:20;default:'DRAFT';index"`
	Priority           Priority       `json:"priority" gorm:"size:10;default:'NORMAL';index"`
	CategoryID         string         `json:"category_id" gorm:"type:char(36);index"`
	CreatedByID        string         `json:"created_by_id" gorm:"type:char(36);index"` // immutable once set
	AssignedToID       *string        `json:"assigned_to_id,omitempty" gorm:"type:char(36);index"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`

	Departments []Department `json:"departments,omitempty" gorm:"many2many:document_departments;"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// DocumentDepartment is the junction between a document and a department it
// is currently assigned to. The set of rows for a document is always replaced
// as a whole, never merged.
type DocumentDepartment struct {
	DocumentID   string    `json:"document_id" gorm:"type:char(36);primaryKey"`
	DepartmentID string    `json:"department_id" gorm:"type:char(36);primaryKey"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// DocumentSeen records that a user has opened a document. One row per
// (document, user); repeated views only refresh SeenAt.
type DocumentSeen struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	DocumentID   string    `json:"document_id" gorm:"type:char(36);index;uniqueIndex:idx_document_user_seen"`
	UserID       string    `json:"user_id" gorm:"type:char(36);index;uniqueIndex:idx_document_user_seen"`
	DepartmentID string    `json:"department_id" gorm:"type:char(36);index"`
	SeenAt       time.Time `json:"seen_at"`
}

// ReferenceCounter is the durable counter backing reference number
// allocation, one row per year. Incremented atomically, never reset.
type ReferenceCounter struct {
	Year      int   `gorm:"primaryKey"`
	LastValue int64 `gorm:"not null;default:0"`
}

type CreateDocumentRequest struct {
	Subject            string   `json:"subject" validate:"required,min=2,max=500"`
	Summary            string   `json:"summary,omitempty"`
	SenderName         string   `json:"sender_name" validate:"required,max=255"`
	SenderOrganization string   `json:"sender_organization,omitempty" validate:"omitempty,max=255"`
	CategoryID         string   `json:"category_id" validate:"required,uuid"`
	Priority           Priority `json:"priority" validate:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	DepartmentIDs      []string `json:"department_ids,omitempty" validate:"omitempty,dive,uuid"`
}

type UpdateStatusRequest struct {
	Status  DocumentStatus `json:"status" validate:"required,oneof=DRAFT PENDING IN_PROGRESS ON_HOLD COMPLETED REJECTED ARCHIVED"`
	Comment string         `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

type BulkUpdateStatusRequest struct {
	DocumentIDs []string       `json:"document_ids" validate:"required,min=1,dive,uuid"`
	Status      DocumentStatus `json:"status" validate:"required,oneof=DRAFT PENDING IN_PROGRESS ON_HOLD COMPLETED REJECTED ARCHIVED"`
}

type AssignDepartmentsRequest struct {
	DepartmentIDs []string `json:"department_ids" validate:"required,min=1,dive,uuid"`
}
