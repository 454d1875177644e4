package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mhersche/docgate/internal/models"
)

// DefaultAccessTokenTTL defines the fallback validity period for session credentials.
const DefaultAccessTokenTTL = 60 * time.Minute

// JWTConfig bundles the configuration required to build a JWTService.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
	Clock          func() time.Time
}

// Claims represents the custom claims embedded in issued session credentials.
// The full actor context travels inside the token so validation never touches
// storage.
type Claims struct {
	ActorID      string      `json:"uid"`
	Role         models.Role `json:"role"`
	DepartmentID string      `json:"dept,omitempty"`
	jwt.RegisteredClaims
}

// ActorContext converts validated claims into the request-scoped identity.
func (c *Claims) ActorContext() models.ActorContext {
	return models.ActorContext{
		ActorID:      c.ActorID,
		Role:         c.Role,
		DepartmentID: c.DepartmentID,
	}
}

// JWTService is responsible for issuing and validating JSON Web Tokens.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService constructs a JWTService instance when provided with the required configuration.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// GenerateAccessToken issues a signed session credential for the actor.
func (s *JWTService) GenerateAccessToken(actor models.ActorContext) (string, error) {
	if actor.ActorID == "" {
		return "", errors.New("jwt: actor id is required")
	}
	if !actor.Role.Valid() {
		return "", fmt.Errorf("jwt: invalid role %q", actor.Role)
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		ActorID:      actor.ActorID,
		Role:         actor.Role,
		DepartmentID: actor.DepartmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ActorID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, nil
}

// ValidateAccessToken parses and validates a signed session credential,
// returning the embedded claims. Purely cryptographic: no storage lookups.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("jwt: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("jwt: invalid issuer")
	}

	if claims.ActorID == "" {
		return nil, errors.New("jwt: missing actor id claim")
	}
	if !claims.Role.Valid() {
		return nil, errors.New("jwt: missing or invalid role claim")
	}

	return &claims, nil
}
