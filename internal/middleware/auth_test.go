package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/mhersche/docgate/internal/auth"
	"github.com/mhersche/docgate/internal/models"
)

func TestAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	router, _ := setupAuthRouter(t)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "Bearer bad.token.here"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuthInjectsActorContext(t *testing.T) {
	router, jwtService := setupAuthRouter(t)

	actor := models.ActorContext{
		ActorID:      "11111111-0000-0000-0000-000000000001",
		Role:         models.RoleDeptAdmin,
		DepartmentID: "22222222-0000-0000-0000-000000000001",
	}
	token, err := jwtService.GenerateAccessToken(actor)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "role-secret", AccessTokenTTL: time.Hour})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/admin", Auth(jwtService), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	cases := []struct {
		role models.Role
		want int
	}{
		{models.RoleReader, http.StatusForbidden},
		{models.RoleReviewer, http.StatusForbidden},
		{models.RoleDeptAdmin, http.StatusOK},
		{models.RoleGlobalAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		token, err := jwtService.GenerateAccessToken(models.ActorContext{ActorID: "u1", Role: tc.role})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, tc.want, rec.Code, "role %s", tc.role)
	}
}

func TestRequireRoleWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimit(3, time.Minute))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitResetsAfterWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimit(1, 30*time.Millisecond))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve := func() int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, serve())
	require.Equal(t, http.StatusTooManyRequests, serve())

	// Once the window lapses the stale counter is swept in the handler and
	// the budget starts over.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, http.StatusOK, serve())
}

func setupAuthRouter(t *testing.T) (*gin.Engine, *iauth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "middleware-secret", AccessTokenTTL: time.Hour})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/protected", Auth(jwtService), func(c *gin.Context) {
		actor, ok := Actor(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, actor)
	})
	return router, jwtService
}
