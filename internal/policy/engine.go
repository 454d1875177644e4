// Package policy implements the access decision engine. It is a set of pure
// functions over (actor, document, access request): no storage, no mutable
// state, safe for unsynchronised concurrent use.
package policy

import (
	"fmt"

	"github.com/mhersche/docgate/internal/models"
	"github.com/mhersche/docgate/pkg/metrics"
)

// Decision is the outcome of a content access evaluation.
//
// DecisionDenyNotFound exists as a distinct value from DecisionDenyForbidden
// because the two must map to different HTTP statuses: readers and reviewers
// are never told that a document they may not see exists, otherwise probing
// status codes would enumerate restricted content.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionDenyNotFound
	DecisionDenyForbidden
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionDenyNotFound:
		return "deny_not_found"
	case DecisionDenyForbidden:
		return "deny_forbidden"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// CanViewMetadata reports whether the actor may see the document's catalog
// entry. Readers lose visibility of archived documents; every other role
// retains it.
func CanViewMetadata(actor models.ActorContext, doc *models.Document) bool {
	if doc == nil {
		return false
	}

	switch actor.Role {
	case models.RoleGlobalAdmin, models.RoleDeptAdmin, models.RoleReviewer:
		return true
	case models.RoleReader:
		return !doc.Archived
	default:
		panic(fmt.Sprintf("policy: unhandled role %q", actor.Role))
	}
}

// CanAccessContent decides whether the actor may fetch the document's bytes.
// req is the actor's access request for this document, if any; callers pass
// the accepted request when one exists.
//
// Denials for readers and reviewers always collapse to DecisionDenyNotFound,
// including for archived documents with an accepted request on file. Only
// department admins receive DecisionDenyForbidden (wrong department), since
// admins already see the catalog.
func CanAccessContent(actor models.ActorContext, doc *models.Document, req *models.AccessRequest) Decision {
	decision := evaluateContent(actor, doc, req)
	metrics.PolicyDecisions.WithLabelValues(string(actor.Role), decision.String()).Inc()
	return decision
}

func evaluateContent(actor models.ActorContext, doc *models.Document, req *models.AccessRequest) Decision {
	if doc == nil {
		return DecisionDenyNotFound
	}

	switch actor.Role {
	case models.RoleGlobalAdmin:
		return DecisionAllow

	case models.RoleDeptAdmin:
		if actor.DepartmentID != "" && actor.DepartmentID == doc.DepartmentID {
			return DecisionAllow
		}
		return DecisionDenyForbidden

	case models.RoleReader, models.RoleReviewer:
		if doc.Archived {
			return DecisionDenyNotFound
		}
		if req != nil && req.Status == models.RequestAccepted && req.ActorID == actor.ActorID && req.DocumentID == doc.ID {
			return DecisionAllow
		}
		return DecisionDenyNotFound

	default:
		panic(fmt.Sprintf("policy: unhandled role %q", actor.Role))
	}
}
