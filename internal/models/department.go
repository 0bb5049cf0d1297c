package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Department is an organizational unit documents get routed to.
type Department struct {
	ID          string    `json:"id" gorm:"type:char(36);primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;size:255"`
	NameAr      string    `json:"name_ar" gorm:"size:255"`
	Description string    `json:"description" gorm:"type:text"`
	IsActive    bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

type CreateDepartmentRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	NameAr      string `json:"name_ar" validate:"omitempty,max=255"`
	Description string `json:"description,omitempty"`
}
