package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category classifies incoming correspondence (circular, memo, request, ...).
type Category struct {
	ID        string    `json:"id" gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:255"`
	NameAr    string    `json:"name_ar" gorm:"size:255"`
	IsActive  bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type CreateCategoryRequest struct {
	Name   string `json:"name" validate:"required,min=2,max=255"`
	NameAr string `json:"name_ar" validate:"omitempty,max=255"`
}
