package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mhersche/docgate/internal/middleware"
	"github.com/mhersche/docgate/internal/models"
	appErrors "github.com/mhersche/docgate/pkg/errors"
	"github.com/mhersche/docgate/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// mustActor fetches the authenticated actor or writes a 401 and returns false.
func mustActor(c *gin.Context) (models.ActorContext, bool) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return models.ActorContext{}, false
	}
	return actor, true
}

// systemError maps a backend failure onto the outward error category. A blown
// deadline on a storage or file call is reported as unavailable rather than as
// an internal fault.
func systemError(err error) *appErrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.ErrServiceUnavailable.WithInternal(err)
	}
	return appErrors.ErrInternalServer.WithInternal(err)
}
