package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/mhersche/docgate/internal/models"
)

var (
	// ErrInvalidIdentityToken covers every verification failure of the
	// federated credential; details stay server-side.
	ErrInvalidIdentityToken = errors.New("identity: invalid token")
	// ErrDomainNotAllowed rejects verified identities outside the configured domain.
	ErrDomainNotAllowed = errors.New("identity: email domain not allowed")
)

// VerifiedIdentity is what the trusted identity provider hands back after
// signature, issuer, audience and expiry checks.
type VerifiedIdentity struct {
	Subject string
	Email   string
	Name    string
}

// IdentityVerifier abstracts the external identity provider. Implementations
// own all cryptographic verification; the rest of the core treats the result
// as trusted.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*VerifiedIdentity, error)
}

// OIDCVerifierConfig configures the OIDC-backed identity verifier. When
// ClientSecret and RedirectURL are set, the verifier can also exchange an
// authorization code for the ID token itself.
type OIDCVerifierConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

type oidcVerifier struct {
	verifier    *oidc.IDTokenVerifier
	oauthConfig *oauth2.Config
	timeout     time.Duration
}

// NewOIDCVerifier performs issuer discovery and returns a verifier for ID
// tokens minted by the configured provider.
func NewOIDCVerifier(ctx context.Context, cfg OIDCVerifierConfig) (IdentityVerifier, error) {
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("oidc verifier: issuer is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("oidc verifier: client id is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if cfg.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, cfg.HTTPClient)
	}

	discoverCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	provider, err := oidc.NewProvider(discoverCtx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc verifier: discovery failed: %w", err)
	}

	var oauthConfig *oauth2.Config
	if cfg.ClientSecret != "" && cfg.RedirectURL != "" {
		oauthConfig = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		}
	}

	return &oidcVerifier{
		verifier:    provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauthConfig: oauthConfig,
		timeout:     timeout,
	}, nil
}

// VerifyCode redeems an authorization code and verifies the resulting ID
// token. Requires client secret and redirect URL configuration.
func (v *oidcVerifier) VerifyCode(ctx context.Context, code string) (*VerifiedIdentity, error) {
	if v.oauthConfig == nil {
		return nil, ErrInvalidIdentityToken
	}
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidIdentityToken
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	token, err := v.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", ErrInvalidIdentityToken, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrInvalidIdentityToken
	}

	return v.Verify(ctx, rawIDToken)
}

func (v *oidcVerifier) Verify(ctx context.Context, rawToken string) (*VerifiedIdentity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrInvalidIdentityToken
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdentityToken, err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %v", ErrInvalidIdentityToken, err)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" || !claims.EmailVerified {
		return nil, ErrInvalidIdentityToken
	}

	return &VerifiedIdentity{
		Subject: idToken.Subject,
		Email:   email,
		Name:    strings.TrimSpace(claims.Name),
	}, nil
}

// IdentityService exchanges a verified federated credential for docgate
// session credentials, provisioning the actor on first login.
type IdentityService struct {
	db            *gorm.DB
	verifier      IdentityVerifier
	sessions      *SessionService
	allowedDomain string
	now           func() time.Time
}

// NewIdentityService wires the verifier, session issuance and actor
// provisioning together.
func NewIdentityService(db *gorm.DB, verifier IdentityVerifier, sessions *SessionService, allowedDomain string, clock func() time.Time) (*IdentityService, error) {
	if db == nil {
		return nil, errors.New("identity service: db is required")
	}
	if verifier == nil {
		return nil, errors.New("identity service: verifier is required")
	}
	if sessions == nil {
		return nil, errors.New("identity service: session service is required")
	}
	if strings.TrimSpace(allowedDomain) == "" {
		return nil, errors.New("identity service: allowed domain is required")
	}
	if clock == nil {
		clock = time.Now
	}

	return &IdentityService{
		db:            db,
		verifier:      verifier,
		sessions:      sessions,
		allowedDomain: strings.ToLower(strings.TrimSpace(allowedDomain)),
		now:           clock,
	}, nil
}

// Exchange verifies the federated credential, enforces the domain policy,
// provisions the actor if needed, and issues a token pair.
func (s *IdentityService) Exchange(ctx context.Context, rawToken string) (TokenPair, *models.User, error) {
	identity, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		return TokenPair{}, nil, err
	}

	if emailDomain(identity.Email) != s.allowedDomain {
		return TokenPair{}, nil, ErrDomainNotAllowed
	}

	user, err := s.ensureActor(ctx, identity)
	if err != nil {
		return TokenPair{}, nil, err
	}
	if !user.IsActive {
		return TokenPair{}, nil, ErrActorDisabled
	}

	pair, _, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, user, nil
}

// ensureActor finds the user by email or provisions a reader account on first
// login. Accounts are never deleted, so a revisit always finds the row.
func (s *IdentityService) ensureActor(ctx context.Context, identity *VerifiedIdentity) (*models.User, error) {
	user := models.User{
		Email:    identity.Email,
		Name:     identity.Name,
		Role:     models.RoleReader,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).
		Where(models.User{Email: identity.Email}).
		Attrs(user).
		FirstOrCreate(&user).Error; err != nil {
		return nil, fmt.Errorf("identity service: provision actor: %w", err)
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("identity service: record login: %w", err)
	}
	user.LastLoginAt = &now

	return &user, nil
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
