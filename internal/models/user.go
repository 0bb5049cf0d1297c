package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that can create, receive and act on documents.
type User struct {
	ID           string    `json:"id" gorm:"type:char(36);primaryKey"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password     string    `json:"-"`                        // Store hashed password, ignore for JSON serialization
	Role         Role      `json:"role" gorm:"size:30;default:'STAFF'"`
	DepartmentID *string   `json:"department_id,omitempty" gorm:"type:char(36);index"`
	IsActive     bool      `json:"is_active" gorm:"default:true;index"`
	FCMToken     string    `json:"-"` // Device token for push delivery, set by the mobile client
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type CreateUserRequest struct {
	FullName     string  `json:"full_name" validate:"required,min=2,max=100"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	Role         Role    `json:"role" validate:"omitempty,oneof=ADMIN CORRESPONDENCE_OFFICER DEPARTMENT_HEAD STAFF"`
	DepartmentID *string `json:"department_id,omitempty" validate:"omitempty,uuid"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	FullName     string  `json:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
	DepartmentID *string `json:"department_id,omitempty" validate:"omitempty,uuid"`
	FCMToken     string  `json:"fcm_token,omitempty"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID       string  `json:"user_id"`
	Email        string  `json:"email"`
	Role         Role    `json:"role"`
	DepartmentID *string `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}
