package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mhersche/docgate/internal/api"
	"github.com/mhersche/docgate/internal/app"
	"github.com/mhersche/docgate/internal/app/maintenance"
	"github.com/mhersche/docgate/internal/audit"
	iauth "github.com/mhersche/docgate/internal/auth"
	"github.com/mhersche/docgate/internal/catalog"
	"github.com/mhersche/docgate/internal/database"
	"github.com/mhersche/docgate/internal/requests"
	"github.com/mhersche/docgate/internal/storage"
	"github.com/mhersche/docgate/pkg/logger"
)

// runtimeStack bundles the long-lived services constructed at start-up so the
// server can tear them down in one place.
type runtimeStack struct {
	Router  *gin.Engine
	Cleaner *maintenance.Cleaner
}

// Shutdown stops background workers. Safe to call on a partially built stack.
func (s *runtimeStack) Shutdown() {
	if s == nil {
		return
	}
	if s.Cleaner != nil {
		<-s.Cleaner.Stop().Done()
	}
}

func bootstrapRuntime(ctx context.Context, cfg *app.Config) (*runtimeStack, error) {
	if os.Getenv("GIN_DEBUG") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(databaseConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	if err := database.SeedBootstrapAdmin(db, cfg.Bootstrap.AdminEmail); err != nil {
		return nil, fmt.Errorf("seed bootstrap admin: %w", err)
	}

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         cfg.Auth.JWT.Secret,
		Issuer:         cfg.Auth.JWT.Issuer,
		AccessTokenTTL: cfg.Auth.JWT.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("init jwt service: %w", err)
	}

	sessions, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{
		RenewalTokenTTL:     cfg.Auth.Session.RenewalTTL,
		RenewalLength:       cfg.Auth.Session.RenewalLength,
		RevokeFamilyOnReuse: cfg.Auth.Session.RevokeFamilyOnReuse,
	})
	if err != nil {
		return nil, fmt.Errorf("init session service: %w", err)
	}

	verifier, err := iauth.NewOIDCVerifier(ctx, iauth.OIDCVerifierConfig{
		Issuer:       cfg.Identity.Issuer,
		ClientID:     cfg.Identity.ClientID,
		ClientSecret: cfg.Identity.ClientSecret,
		RedirectURL:  cfg.Identity.RedirectURL,
		Timeout:      cfg.Identity.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init identity verifier: %w", err)
	}

	identity, err := iauth.NewIdentityService(db, verifier, sessions, cfg.Identity.AllowedDomain, time.Now)
	if err != nil {
		return nil, fmt.Errorf("init identity service: %w", err)
	}

	catalogService, err := catalog.NewService(db, time.Now)
	if err != nil {
		return nil, fmt.Errorf("init catalog service: %w", err)
	}

	requestService, err := requests.NewService(db, catalogService, time.Now)
	if err != nil {
		return nil, fmt.Errorf("init request service: %w", err)
	}

	files, err := storage.NewLocalStore(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("init file store: %w", err)
	}

	auditService, err := audit.NewService(db)
	if err != nil {
		return nil, fmt.Errorf("init audit service: %w", err)
	}

	cleaner := maintenance.NewCleaner(sessions, auditService,
		maintenance.WithCredentialSchedule(cfg.Maintenance.CredentialSchedule),
		maintenance.WithAuditSchedule(cfg.Maintenance.AuditSchedule),
		maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
	)
	if err := cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	router, err := api.NewRouter(api.Dependencies{
		DB:       db,
		JWT:      jwtService,
		Sessions: sessions,
		Identity: identity,
		Catalog:  catalogService,
		Requests: requestService,
		Files:    files,
		Audit:    auditService,
		Config:   cfg,
	})
	if err != nil {
		<-cleaner.Stop().Done()
		return nil, fmt.Errorf("init router: %w", err)
	}

	logger.Info("runtime initialised",
		zap.String("database", cfg.Database.Driver),
		zap.String("allowed_domain", cfg.Identity.AllowedDomain))

	return &runtimeStack{Router: router, Cleaner: cleaner}, nil
}

func databaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	}

	var host app.DBAuthConfig
	switch cfg.Database.Driver {
	case "postgres":
		host = cfg.Database.Postgres
	case "mysql":
		host = cfg.Database.MySQL
	}
	dbCfg.Host = host.Host
	dbCfg.Port = host.Port
	dbCfg.Name = host.Database
	dbCfg.User = host.Username
	dbCfg.Password = host.Password

	return dbCfg
}
