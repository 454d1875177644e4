// Package audit persists security-relevant events: credential exchanges,
// renewal reuse signals, request decisions, content fetches.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mhersche/docgate/internal/models"
)

// Entry captures a single audit event to persist.
type Entry struct {
	ActorID   *string
	Action    string
	Resource  string
	Result    string
	IPAddress string
	Details   map[string]any
}

// Service persists and retrieves audit log entries.
type Service struct {
	db *gorm.DB
}

// NewService constructs the audit service using the provided database handle.
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &Service{db: db}, nil
}

// Log stores an audit entry, marshalling details into the JSON column.
func (s *Service) Log(ctx context.Context, entry Entry) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("audit service: action is required")
	}
	if strings.TrimSpace(entry.Result) == "" {
		return errors.New("audit service: result is required")
	}

	record := models.AuditLog{
		Action:    strings.TrimSpace(entry.Action),
		Resource:  strings.TrimSpace(entry.Resource),
		Result:    strings.TrimSpace(entry.Result),
		IPAddress: strings.TrimSpace(entry.IPAddress),
	}

	if entry.Details != nil {
		encoded, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("audit service: marshal details: %w", err)
		}
		record.Details = datatypes.JSON(encoded)
	}

	if entry.ActorID != nil && strings.TrimSpace(*entry.ActorID) != "" {
		id := strings.TrimSpace(*entry.ActorID)
		record.ActorID = &id
	}

	return s.db.WithContext(ctx).Create(&record).Error
}

// List returns recent audit logs, newest first, capped at limit.
func (s *Service) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []models.AuditLog
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("audit service: list: %w", err)
	}
	return entries, nil
}

// CleanupOlderThan removes entries older than the retention window.
func (s *Service) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup: %w", result.Error)
	}
	return result.RowsAffected, nil
}
