package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mhersche/docgate/internal/audit"
	"github.com/mhersche/docgate/internal/catalog"
	"github.com/mhersche/docgate/internal/requests"
	appErrors "github.com/mhersche/docgate/pkg/errors"
	"github.com/mhersche/docgate/pkg/response"
)

// RequestHandler manages the access-request workflow endpoints.
type RequestHandler struct {
	requests *requests.Service
	audit    *audit.Service
}

func NewRequestHandler(reqs *requests.Service, auditSvc *audit.Service) *RequestHandler {
	return &RequestHandler{requests: reqs, audit: auditSvc}
}

type createRequestBody struct {
	// Any UUID shape passes validation; whether it names a real document is
	// the catalog's call, answered with 404 either way.
	DocumentID string `json:"document_id" validate:"required,uuid"`
}

// POST /api/requests
func (h *RequestHandler) Create(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var body createRequestBody
	if !bindAndValidate(c, &body) {
		return
	}

	request, err := h.requests.Create(requestContext(c), actor.ActorID, body.DocumentID)
	switch {
	case err == nil:
		response.Success(c, http.StatusCreated, request)
	case errors.Is(err, catalog.ErrDocumentNotFound),
		errors.Is(err, requests.ErrDocumentNotAvailable),
		errors.Is(err, requests.ErrRequestNotFound):
		// Archived and nonexistent targets share one answer.
		response.Error(c, appErrors.ErrNotFound)
	case errors.Is(err, requests.ErrDuplicate):
		response.Error(c, appErrors.ErrDuplicateRequest)
	default:
		response.Error(c, systemError(err))
	}
}

// GET /api/requests
func (h *RequestHandler) ListMine(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	list, err := h.requests.ListForActor(requestContext(c), actor.ActorID)
	if err != nil {
		response.Error(c, systemError(err))
		return
	}
	response.Success(c, http.StatusOK, list)
}

// GET /api/requests/pending
func (h *RequestHandler) ListPending(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	list, err := h.requests.ListPending(requestContext(c), actor)
	if err != nil {
		if errors.Is(err, requests.ErrScopeMismatch) {
			response.Error(c, appErrors.ErrAccessDenied)
			return
		}
		response.Error(c, systemError(err))
		return
	}
	response.Success(c, http.StatusOK, list)
}

type decisionBody struct {
	Action string `json:"action" validate:"required,oneof=accept reject"`
}

// POST /api/requests/:id/decision
func (h *RequestHandler) Decide(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var body decisionBody
	if !bindAndValidate(c, &body) {
		return
	}

	requestID := c.Param("id")
	err := h.requests.Decide(requestContext(c), requestID, actor, requests.Action(body.Action))
	switch {
	case err == nil:
		h.logDecision(c, actor.ActorID, requestID, body.Action)
		c.Status(http.StatusNoContent)
	case errors.Is(err, requests.ErrRequestNotFound),
		errors.Is(err, catalog.ErrDocumentNotFound):
		response.Error(c, appErrors.ErrNotFound)
	case errors.Is(err, requests.ErrScopeMismatch):
		response.Error(c, appErrors.ErrAccessDenied)
	case errors.Is(err, requests.ErrAlreadyFinal):
		response.Error(c, appErrors.ErrRequestAlreadyFinal)
	default:
		response.Error(c, systemError(err))
	}
}

// DELETE /api/requests/:id
func (h *RequestHandler) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	err := h.requests.Delete(requestContext(c), c.Param("id"), actor.ActorID)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, requests.ErrRequestNotFound):
		response.Error(c, appErrors.ErrNotFound)
	case errors.Is(err, requests.ErrNotOwner):
		response.Error(c, appErrors.ErrAccessDenied)
	case errors.Is(err, requests.ErrAlreadyFinal):
		response.Error(c, appErrors.ErrRequestAlreadyFinal)
	default:
		response.Error(c, systemError(err))
	}
}

func (h *RequestHandler) logDecision(c *gin.Context, actorID, requestID, action string) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(requestContext(c), audit.Entry{
		ActorID:   &actorID,
		Action:    "request.decide",
		Resource:  requestID,
		Result:    action,
		IPAddress: c.ClientIP(),
	})
}
