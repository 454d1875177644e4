package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/mhersche/docgate/internal/app"
	"github.com/mhersche/docgate/internal/audit"
	iauth "github.com/mhersche/docgate/internal/auth"
	"github.com/mhersche/docgate/internal/catalog"
	"github.com/mhersche/docgate/internal/handlers"
	"github.com/mhersche/docgate/internal/middleware"
	"github.com/mhersche/docgate/internal/models"
	"github.com/mhersche/docgate/internal/requests"
	"github.com/mhersche/docgate/internal/storage"
)

// Dependencies collects the services the router wires into handlers.
type Dependencies struct {
	DB       *gorm.DB
	JWT      *iauth.JWTService
	Sessions *iauth.SessionService
	Identity *iauth.IdentityService
	Catalog  *catalog.Service
	Requests *requests.Service
	Files    storage.FileStore
	Audit    *audit.Service
	Config   *app.Config
}

func (d Dependencies) validate() error {
	switch {
	case d.DB == nil:
		return fmt.Errorf("database handle must be provided")
	case d.JWT == nil:
		return fmt.Errorf("jwt service must be provided")
	case d.Sessions == nil:
		return fmt.Errorf("session service must be provided")
	case d.Identity == nil:
		return fmt.Errorf("identity service must be provided")
	case d.Catalog == nil:
		return fmt.Errorf("catalog service must be provided")
	case d.Requests == nil:
		return fmt.Errorf("request service must be provided")
	case d.Files == nil:
		return fmt.Errorf("file store must be provided")
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	if deps.Config.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(deps.DB))
	}
	if deps.Config.Monitoring.Prometheus.Enabled {
		endpoint := deps.Config.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(deps.Identity, deps.Sessions, deps.Audit)
	documentHandler := handlers.NewDocumentHandler(deps.Catalog, deps.Requests, deps.Files, deps.Audit)
	requestHandler := handlers.NewRequestHandler(deps.Requests, deps.Audit)

	// Public auth routes: exchange, renew and logout authenticate through the
	// credentials they carry, not through a session.
	auth := r.Group("/api/auth")
	{
		auth.POST("/exchange", authHandler.Exchange)
		auth.POST("/renew", authHandler.Renew)
		auth.POST("/logout", authHandler.Logout)
	}

	requireAuth := middleware.Auth(deps.JWT)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	docs := api.Group("/documents")
	{
		docs.GET("", documentHandler.List)
		docs.GET("/:id", documentHandler.Get)
		docs.GET("/:id/content", documentHandler.Content)
		docs.POST("/:id/archive", middleware.RequireAdmin(), documentHandler.Archive)
		docs.POST("/:id/unarchive", middleware.RequireAdmin(), documentHandler.Unarchive)
	}

	reqs := api.Group("/requests")
	{
		reqs.POST("", middleware.RequireRole(models.RoleReader, models.RoleReviewer), requestHandler.Create)
		reqs.GET("", requestHandler.ListMine)
		reqs.GET("/pending", middleware.RequireAdmin(), requestHandler.ListPending)
		reqs.POST("/:id/decision", middleware.RequireAdmin(), requestHandler.Decide)
		reqs.DELETE("/:id", requestHandler.Delete)
	}

	return r, nil
}
