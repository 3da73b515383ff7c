package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of user roles. Unknown values are rejected at the
// boundary via ParseRole, never coerced.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleAuthor  Role = "AUTHOR"
	RoleLearner Role = "LEARNER"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleAuthor, RoleLearner:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	FirstName    string    `gorm:"not null"                      json:"first_name"`
	LastName     *string   `json:"last_name,omitempty"`
	Email        string    `gorm:"uniqueIndex;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                      json:"-"`
	Role         Role      `gorm:"not null;default:LEARNER"      json:"role"`
	IsActive     bool      `gorm:"not null;default:false"        json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Subject struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"size:255"                      json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
