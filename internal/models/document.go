package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is a catalog entry. The archive flag is a visibility toggle: it
// hides the document from non-privileged roles without deleting it and without
// touching any access request that references it.
type Document struct {
	ID           string      `gorm:"primaryKey;type:uuid" json:"id"`
	DepartmentID string      `gorm:"type:uuid;not null;index" json:"department_id"`
	Department   *Department `json:"department,omitempty"`

	Title string `gorm:"not null" json:"title"`

	// FilePath is the content location relative to the file store root.
	FilePath string `gorm:"not null" json:"-"`

	Archived   bool       `gorm:"default:false;index" json:"archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
