package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/mhersche/docgate/internal/auth"
	"github.com/mhersche/docgate/internal/models"
	"github.com/mhersche/docgate/pkg/errors"
	"github.com/mhersche/docgate/pkg/response"
)

const (
	CtxActorKey   = "actorContext"
	CtxActorIDKey = "actorID"
)

// Auth enforces session credential validation using the supplied JWT service.
// Validation is purely cryptographic; no storage is consulted.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthenticated)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthenticated)
			c.Abort()
			return
		}

		actor := claims.ActorContext()
		c.Set(CtxActorKey, actor)
		c.Set(CtxActorIDKey, actor.ActorID)

		c.Next()
	}
}

// Actor retrieves the authenticated actor context set by Auth.
func Actor(c *gin.Context) (models.ActorContext, bool) {
	v, ok := c.Get(CtxActorKey)
	if !ok {
		return models.ActorContext{}, false
	}
	actor, ok := v.(models.ActorContext)
	return actor, ok
}
