package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an actor provisioned on first successful federated login. Accounts
// are never deleted, only deactivated.
type User struct {
	ID    string `gorm:"primaryKey;type:uuid" json:"id"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `json:"name"`

	Role Role `gorm:"not null;default:reader" json:"role"`

	// DepartmentID is set iff Role == RoleDeptAdmin.
	DepartmentID *string     `gorm:"type:uuid" json:"department_id,omitempty"`
	Department   *Department `json:"department,omitempty"`

	// IsActive carries no column default on purpose: gorm drops zero-valued
	// fields that have one from the INSERT, which would store a deactivated
	// account as active. Creation paths set it explicitly.
	IsActive bool `json:"is_active"`

	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Context converts the stored user into the actor context embedded in session
// credentials.
func (u *User) Context() ActorContext {
	ctx := ActorContext{
		ActorID: u.ID,
		Role:    u.Role,
	}
	if u.Role == RoleDeptAdmin && u.DepartmentID != nil {
		ctx.DepartmentID = *u.DepartmentID
	}
	return ctx
}
