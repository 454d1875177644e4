package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog persists security-relevant events: request decisions, renewal reuse
// signals, content fetches.
type AuditLog struct {
	ID       string  `gorm:"primaryKey;type:uuid" json:"id"`
	ActorID  *string `gorm:"type:uuid;index" json:"actor_id"`
	Actor    *User   `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Action   string  `gorm:"not null;index" json:"action"`
	Resource string  `gorm:"index" json:"resource"`
	Result   string  `gorm:"not null" json:"result"`

	IPAddress string         `json:"ip_address"`
	Details   datatypes.JSON `json:"details,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
