package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus is the access-request lifecycle state.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// AccessRequest records a reader/reviewer's ask for content access.
//
// At most one request per (actor, document) pair may be pending or accepted at
// any instant. The invariant is enforced by the storage engine, not by
// check-then-act application code: ActiveKey is "<actorID>:<documentID>" while
// the request is pending or accepted and NULL once rejected, and carries a
// unique index. Concurrent duplicate inserts therefore collide in the
// database and exactly one wins.
type AccessRequest struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	ActorID    string `gorm:"type:uuid;not null;index" json:"actor_id"`
	Actor      *User  `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	DocumentID string `gorm:"type:uuid;not null;index" json:"document_id"`

	Status    RequestStatus `gorm:"not null;default:pending;index" json:"status"`
	ActiveKey *string       `gorm:"uniqueIndex" json:"-"`

	DecidedBy *string    `gorm:"type:uuid" json:"decided_by,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *AccessRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ActiveKeyFor builds the uniqueness key guarding the one-open-request
// invariant for a given pair.
func ActiveKeyFor(actorID, documentID string) string {
	return actorID + ":" + documentID
}
