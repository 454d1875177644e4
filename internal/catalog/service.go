// Package catalog owns read access to document records and the archive
// visibility toggle. Document CRUD beyond archiving lives outside the core;
// everything here treats the document table as an externally maintained
// catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mhersche/docgate/internal/models"
	"github.com/mhersche/docgate/internal/policy"
)

var (
	// ErrDocumentNotFound indicates the document id does not resolve.
	ErrDocumentNotFound = errors.New("catalog: document not found")
	// ErrNotAuthorized rejects archive toggles outside the admin's scope.
	ErrNotAuthorized = errors.New("catalog: not authorized")
)

// Service reads the document catalog and flips the archive toggle.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs the catalog service.
func NewService(db *gorm.DB, clock func() time.Time) (*Service, error) {
	if db == nil {
		return nil, errors.New("catalog service: db is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: db, now: clock}, nil
}

// GetDocument fetches a document by id. Returns ErrDocumentNotFound when the
// id does not resolve.
func (s *Service) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrDocumentNotFound
	}

	var doc models.Document
	err := s.db.WithContext(ctx).Take(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog service: get document: %w", err)
	}
	return &doc, nil
}

// ListByDepartment returns the documents tagged with the department id.
func (s *Service) ListByDepartment(ctx context.Context, departmentID string) ([]models.Document, error) {
	var docs []models.Document
	err := s.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("catalog service: list by department: %w", err)
	}
	return docs, nil
}

// ListVisible returns the catalog entries the actor may see. Readers are the
// only role that loses archived documents from the listing.
func (s *Service) ListVisible(ctx context.Context, actor models.ActorContext) ([]models.Document, error) {
	query := s.db.WithContext(ctx).Model(&models.Document{}).Order("created_at DESC")
	if actor.Role == models.RoleReader {
		query = query.Where("archived = ?", false)
	}

	var docs []models.Document
	if err := query.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("catalog service: list visible: %w", err)
	}

	// Belt and braces: the query filter and the policy predicate must agree.
	visible := docs[:0]
	for i := range docs {
		if policy.CanViewMetadata(actor, &docs[i]) {
			visible = append(visible, docs[i])
		}
	}
	return visible, nil
}

// Archive hides the document from non-privileged roles. Idempotent: archiving
// an already-archived document succeeds without side effects, and ArchivedAt
// keeps its original value. Access requests referencing the document are
// never touched.
func (s *Service) Archive(ctx context.Context, id string, actor models.ActorContext) error {
	return s.setArchived(ctx, id, actor, true)
}

// Unarchive restores visibility. Idempotent like Archive.
func (s *Service) Unarchive(ctx context.Context, id string, actor models.ActorContext) error {
	return s.setArchived(ctx, id, actor, false)
}

func (s *Service) setArchived(ctx context.Context, id string, actor models.ActorContext, archived bool) error {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	switch actor.Role {
	case models.RoleGlobalAdmin:
	case models.RoleDeptAdmin:
		if actor.DepartmentID != doc.DepartmentID {
			return ErrNotAuthorized
		}
	default:
		return ErrNotAuthorized
	}

	if doc.Archived == archived {
		return nil
	}

	updates := map[string]any{"archived": archived}
	if archived {
		updates["archived_at"] = s.now()
	} else {
		updates["archived_at"] = nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("catalog service: set archived: %w", err)
	}
	return nil
}
