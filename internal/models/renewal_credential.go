package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RenewalCredential is a long-lived, single-use opaque token exchanged for a
// fresh session credential. Each successful renewal consumes the presented
// row and inserts a replacement. Consumed rows are kept until cleanup so a
// replayed token is recognisable as a reuse signal instead of a plain miss.
type RenewalCredential struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	ActorID string `gorm:"type:uuid;not null;index" json:"actor_id"`
	Actor   *User  `gorm:"foreignKey:ActorID" json:"-"`

	Token string `gorm:"uniqueIndex;not null" json:"-"`

	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	Consumed   bool       `gorm:"default:false;index" json:"consumed"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *RenewalCredential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
