package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mhersche/docgate/internal/audit"
	"github.com/mhersche/docgate/internal/catalog"
	"github.com/mhersche/docgate/internal/models"
	"github.com/mhersche/docgate/internal/policy"
	"github.com/mhersche/docgate/internal/requests"
	"github.com/mhersche/docgate/internal/storage"
	appErrors "github.com/mhersche/docgate/pkg/errors"
	"github.com/mhersche/docgate/pkg/response"
)

// DocumentHandler serves catalog metadata, the archive toggle, and content
// downloads.
type DocumentHandler struct {
	catalog  *catalog.Service
	requests *requests.Service
	files    storage.FileStore
	audit    *audit.Service
}

func NewDocumentHandler(cat *catalog.Service, reqs *requests.Service, files storage.FileStore, auditSvc *audit.Service) *DocumentHandler {
	return &DocumentHandler{catalog: cat, requests: reqs, files: files, audit: auditSvc}
}

// GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	docs, err := h.catalog.ListVisible(requestContext(c), actor)
	if err != nil {
		response.Error(c, systemError(err))
		return
	}
	response.Success(c, http.StatusOK, docs)
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	doc, err := h.catalog.GetDocument(requestContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrDocumentNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, systemError(err))
		return
	}

	if !policy.CanViewMetadata(actor, doc) {
		// Indistinguishable from a nonexistent document.
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, doc)
}

// GET /api/documents/:id/content
func (h *DocumentHandler) Content(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	ctx := requestContext(c)

	doc, err := h.catalog.GetDocument(ctx, c.Param("id"))
	if err != nil && !errors.Is(err, catalog.ErrDocumentNotFound) {
		response.Error(c, systemError(err))
		return
	}
	// doc stays nil on not-found: the policy engine folds that into its
	// decision so the 404 path is identical for missing and denied.

	var accepted *models.AccessRequest
	if doc != nil && (actor.Role == models.RoleReader || actor.Role == models.RoleReviewer) {
		accepted, err = h.requests.AcceptedFor(ctx, actor.ActorID, doc.ID)
		if err != nil {
			response.Error(c, systemError(err))
			return
		}
	}

	switch decision := policy.CanAccessContent(actor, doc, accepted); decision {
	case policy.DecisionAllow:
	case policy.DecisionDenyForbidden:
		response.Error(c, appErrors.ErrAccessDenied)
		return
	default:
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	data, err := h.files.Fetch(ctx, doc.FilePath)
	if err != nil {
		h.logFetch(c, actor, doc.ID, "storage_error")
		response.Error(c, systemError(err))
		return
	}

	h.logFetch(c, actor, doc.ID, "success")
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// POST /api/documents/:id/archive
func (h *DocumentHandler) Archive(c *gin.Context) {
	h.toggleArchive(c, true)
}

// POST /api/documents/:id/unarchive
func (h *DocumentHandler) Unarchive(c *gin.Context) {
	h.toggleArchive(c, false)
}

func (h *DocumentHandler) toggleArchive(c *gin.Context, archived bool) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var err error
	if archived {
		err = h.catalog.Archive(requestContext(c), c.Param("id"), actor)
	} else {
		err = h.catalog.Unarchive(requestContext(c), c.Param("id"), actor)
	}

	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, catalog.ErrDocumentNotFound):
		response.Error(c, appErrors.ErrNotFound)
	case errors.Is(err, catalog.ErrNotAuthorized):
		response.Error(c, appErrors.ErrAccessDenied)
	default:
		response.Error(c, systemError(err))
	}
}

func (h *DocumentHandler) logFetch(c *gin.Context, actor models.ActorContext, documentID, result string) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(requestContext(c), audit.Entry{
		ActorID:   &actor.ActorID,
		Action:    "document.fetch",
		Resource:  documentID,
		Result:    result,
		IPAddress: c.ClientIP(),
	})
}
