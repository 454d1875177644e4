// Package requests owns the access-request lifecycle: a PENDING → ACCEPTED /
// REJECTED state machine with a storage-enforced one-open-request invariant
// per (actor, document) pair.
package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mhersche/docgate/internal/catalog"
	"github.com/mhersche/docgate/internal/models"
)

var (
	// ErrRequestNotFound indicates the request id does not resolve.
	ErrRequestNotFound = errors.New("requests: not found")
	// ErrDocumentNotAvailable hides archived documents from requesters; the
	// API surfaces it as not-found, same as a nonexistent document.
	ErrDocumentNotAvailable = errors.New("requests: document not available")
	// ErrDuplicate signals an open request already exists for the pair.
	ErrDuplicate = errors.New("requests: duplicate open request")
	// ErrAlreadyFinal rejects transitions and deletions of decided requests.
	ErrAlreadyFinal = errors.New("requests: request already final")
	// ErrNotOwner rejects deletion by anyone but the original requester.
	ErrNotOwner = errors.New("requests: not the requester")
	// ErrScopeMismatch rejects decisions outside a department admin's scope.
	ErrScopeMismatch = errors.New("requests: outside admin scope")
)

// Action is an admin's decision on a pending request.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

// Service manages access-request records.
type Service struct {
	db      *gorm.DB
	catalog *catalog.Service
	now     func() time.Time
}

// NewService constructs the request lifecycle manager.
func NewService(db *gorm.DB, cat *catalog.Service, clock func() time.Time) (*Service, error) {
	if db == nil {
		return nil, errors.New("request service: db is required")
	}
	if cat == nil {
		return nil, errors.New("request service: catalog is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: db, catalog: cat, now: clock}, nil
}

// Create opens a PENDING request for the actor on the document.
//
// The duplicate check is not application code: the insert carries the
// ActiveKey uniqueness guard, so two concurrent creations for the same pair
// race inside the storage engine and exactly one wins. The loser sees the
// translated duplicate-key error.
func (s *Service) Create(ctx context.Context, actorID, documentID string) (*models.AccessRequest, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(documentID) == "" {
		return nil, ErrRequestNotFound
	}

	doc, err := s.catalog.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, catalog.ErrDocumentNotFound) {
			return nil, catalog.ErrDocumentNotFound
		}
		return nil, err
	}
	if doc.Archived {
		return nil, ErrDocumentNotAvailable
	}

	key := models.ActiveKeyFor(actorID, documentID)
	request := &models.AccessRequest{
		ActorID:    actorID,
		DocumentID: documentID,
		Status:     models.RequestPending,
		ActiveKey:  &key,
	}

	if err := s.db.WithContext(ctx).Create(request).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("request service: create: %w", err)
	}
	return request, nil
}

// Decide transitions a PENDING request to ACCEPTED or REJECTED.
//
// The transition is a compare-and-swap on the current status so two admins
// deciding concurrently cannot both win; the loser's update matches zero rows
// and is reported as already-final.
func (s *Service) Decide(ctx context.Context, requestID string, actor models.ActorContext, action Action) error {
	if action != ActionAccept && action != ActionReject {
		return fmt.Errorf("request service: unknown action %q", action)
	}
	if !actor.Role.IsAdmin() {
		return ErrScopeMismatch
	}

	request, err := s.get(ctx, requestID)
	if err != nil {
		return err
	}

	if actor.Role == models.RoleDeptAdmin {
		doc, err := s.catalog.GetDocument(ctx, request.DocumentID)
		if err != nil {
			return err
		}
		if doc.DepartmentID != actor.DepartmentID {
			return ErrScopeMismatch
		}
	}

	now := s.now()
	updates := map[string]any{
		"decided_by": actor.ActorID,
		"decided_at": now,
	}
	switch action {
	case ActionAccept:
		updates["status"] = models.RequestAccepted
	case ActionReject:
		updates["status"] = models.RequestRejected
		// Rejected requests no longer hold the open-request slot.
		updates["active_key"] = nil
	}

	result := s.db.WithContext(ctx).Model(&models.AccessRequest{}).
		Where("id = ? AND status = ?", requestID, models.RequestPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("request service: decide: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// The request existed a moment ago; losing the swap means another
		// decision landed first.
		if _, err := s.get(ctx, requestID); err != nil {
			return err
		}
		return ErrAlreadyFinal
	}
	return nil
}

// Delete removes the actor's own request. Allowed for REJECTED requests and
// for PENDING ones (cancel-and-resubmit); ACCEPTED is terminal.
func (s *Service) Delete(ctx context.Context, requestID, actorID string) error {
	request, err := s.get(ctx, requestID)
	if err != nil {
		return err
	}

	if request.ActorID != actorID {
		return ErrNotOwner
	}
	if request.Status == models.RequestAccepted {
		return ErrAlreadyFinal
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", requestID, request.Status).
		Delete(&models.AccessRequest{})
	if result.Error != nil {
		return fmt.Errorf("request service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyFinal
	}
	return nil
}

// AcceptedFor returns the actor's ACCEPTED request for the document, or nil
// when none exists. Consulted by the content access path.
func (s *Service) AcceptedFor(ctx context.Context, actorID, documentID string) (*models.AccessRequest, error) {
	var request models.AccessRequest
	err := s.db.WithContext(ctx).
		Where("actor_id = ? AND document_id = ? AND status = ?", actorID, documentID, models.RequestAccepted).
		Take(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("request service: accepted for: %w", err)
	}
	return &request, nil
}

// ListForActor returns the actor's own requests, newest first.
func (s *Service) ListForActor(ctx context.Context, actorID string) ([]models.AccessRequest, error) {
	var list []models.AccessRequest
	err := s.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("request service: list for actor: %w", err)
	}
	return list, nil
}

// ListPending returns pending requests within the admin's scope, newest first.
// Department admins see only requests for their department's documents.
func (s *Service) ListPending(ctx context.Context, actor models.ActorContext) ([]models.AccessRequest, error) {
	if !actor.Role.IsAdmin() {
		return nil, ErrScopeMismatch
	}

	query := s.db.WithContext(ctx).Model(&models.AccessRequest{}).
		Where("access_requests.status = ?", models.RequestPending).
		Order("access_requests.created_at ASC")

	if actor.Role == models.RoleDeptAdmin {
		query = query.
			Joins("JOIN documents ON documents.id = access_requests.document_id").
			Where("documents.department_id = ?", actor.DepartmentID)
	}

	var list []models.AccessRequest
	if err := query.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("request service: list pending: %w", err)
	}
	return list, nil
}

func (s *Service) get(ctx context.Context, requestID string) (*models.AccessRequest, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, ErrRequestNotFound
	}

	var request models.AccessRequest
	err := s.db.WithContext(ctx).Take(&request, "id = ?", requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("request service: get: %w", err)
	}
	return &request, nil
}
