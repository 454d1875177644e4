package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mhersche/docgate/internal/audit"
	iauth "github.com/mhersche/docgate/internal/auth"
	appErrors "github.com/mhersche/docgate/pkg/errors"
	"github.com/mhersche/docgate/pkg/metrics"
	"github.com/mhersche/docgate/pkg/response"
)

// RenewalCookieName carries the opaque renewal credential. HttpOnly: the
// token is never readable by caller-side logic, it only travels back on the
// renew and logout endpoints.
const RenewalCookieName = "docgate_renewal"

const renewalCookiePath = "/api/auth"

// AuthHandler manages credential exchange, renewal, and logout.
type AuthHandler struct {
	identity *iauth.IdentityService
	sessions *iauth.SessionService
	audit    *audit.Service
}

func NewAuthHandler(identity *iauth.IdentityService, sessions *iauth.SessionService, auditSvc *audit.Service) *AuthHandler {
	return &AuthHandler{identity: identity, sessions: sessions, audit: auditSvc}
}

type exchangeRequest struct {
	Credential string `json:"credential" validate:"required"`
}

type sessionResponse struct {
	AccessToken string `json:"access_token"`
}

// POST /api/auth/exchange
func (h *AuthHandler) Exchange(c *gin.Context) {
	var req exchangeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, user, err := h.identity.Exchange(requestContext(c), req.Credential)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		switch {
		case errors.Is(err, iauth.ErrDomainNotAllowed):
			response.Error(c, appErrors.ErrDomainNotAllowed)
		case errors.Is(err, iauth.ErrInvalidIdentityToken):
			response.Error(c, appErrors.ErrInvalidToken)
		case errors.Is(err, iauth.ErrActorDisabled):
			response.Error(c, appErrors.ErrAccessDenied)
		default:
			response.Error(c, systemError(err))
		}
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.setRenewalCookie(c, pair.RenewalToken)

	h.logAudit(c, &user.ID, "auth.exchange", "", "success", nil)

	response.Success(c, http.StatusOK, gin.H{
		"tokens": sessionResponse{AccessToken: pair.AccessToken},
		"actor": gin.H{
			"id":            user.ID,
			"email":         user.Email,
			"name":          user.Name,
			"role":          user.Role,
			"department_id": user.DepartmentID,
		},
	})
}

// POST /api/auth/renew
func (h *AuthHandler) Renew(c *gin.Context) {
	presented, err := c.Cookie(RenewalCookieName)
	if err != nil || presented == "" {
		response.Error(c, appErrors.ErrRefreshTokenRevoked)
		return
	}

	pair, _, err := h.sessions.Renew(requestContext(c), presented)
	if err != nil {
		var reuse *iauth.ReuseError
		if errors.As(err, &reuse) {
			h.logAudit(c, &reuse.ActorID, "auth.renew", "", "reuse_signal", nil)
		}
		// Absent, expired, consumed, malformed: one uniform answer.
		h.clearRenewalCookie(c)
		response.Error(c, appErrors.ErrRefreshTokenRevoked)
		return
	}

	h.setRenewalCookie(c, pair.RenewalToken)
	response.Success(c, http.StatusOK, sessionResponse{AccessToken: pair.AccessToken})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	presented, err := c.Cookie(RenewalCookieName)
	if err == nil && presented != "" {
		if err := h.sessions.Logout(requestContext(c), presented); err != nil {
			response.Error(c, systemError(err))
			return
		}
	}

	h.clearRenewalCookie(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, actor)
}

func (h *AuthHandler) setRenewalCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RenewalCookieName, token, int(iauth.DefaultRenewalTokenTTL.Seconds()), renewalCookiePath, "", true, true)
}

func (h *AuthHandler) clearRenewalCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RenewalCookieName, "", -1, renewalCookiePath, "", true, true)
}

func (h *AuthHandler) logAudit(c *gin.Context, actorID *string, action, resource, result string, details map[string]any) {
	if h.audit == nil {
		return
	}
	entry := audit.Entry{
		ActorID:   actorID,
		Action:    action,
		Resource:  resource,
		Result:    result,
		IPAddress: c.ClientIP(),
		Details:   details,
	}
	if err := h.audit.Log(requestContext(c), entry); err != nil {
		// Audit failures never fail the request.
		_ = err
	}
}
