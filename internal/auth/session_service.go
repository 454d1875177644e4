package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mhersche/docgate/internal/models"
	"github.com/mhersche/docgate/pkg/crypto"
	"github.com/mhersche/docgate/pkg/logger"
	"github.com/mhersche/docgate/pkg/metrics"
)

// DefaultRenewalTokenTTL is the fallback renewal credential lifetime.
const DefaultRenewalTokenTTL = 30 * 24 * time.Hour

// consumedRetention keeps consumed credentials around long enough for replay
// detection before the cleanup job removes them.
const consumedRetention = 7 * 24 * time.Hour

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	RenewalTokenTTL time.Duration
	RenewalLength   int
	Clock           func() time.Time

	// RevokeFamilyOnReuse escalates replay handling: presenting a consumed
	// credential revokes every outstanding credential of that actor instead
	// of just rejecting the presented one.
	RevokeFamilyOnReuse bool
}

// TokenPair represents a session credential and renewal credential pair.
type TokenPair struct {
	AccessToken  string
	RenewalToken string
}

var (
	// ErrCredentialNotFound indicates that no renewal credential matches the presented token.
	ErrCredentialNotFound = errors.New("session: credential not found")
	// ErrCredentialExpired signals that a renewal credential has reached its expiry.
	ErrCredentialExpired = errors.New("session: credential expired")
	// ErrInvalidCredential is returned when the presented token is malformed.
	ErrInvalidCredential = errors.New("session: invalid credential")
	// ErrActorDisabled rejects renewal for deactivated accounts.
	ErrActorDisabled = errors.New("session: actor disabled")
)

// ReuseError marks the presentation of an already-consumed renewal credential.
// This is a replay signal, not a routine failure; callers surface it the same
// as a revoked credential but may record it separately.
type ReuseError struct {
	ActorID string
}

func (e *ReuseError) Error() string {
	return "session: consumed credential presented again"
}

// SessionService issues, rotates, and revokes renewal credentials and the
// session credentials derived from them.
type SessionService struct {
	db           *gorm.DB
	jwt          *JWTService
	renewalTTL   time.Duration
	tokenLen     int
	now          func() time.Time
	revokeFamily bool
}

// NewSessionService constructs a session manager backed by the provided database and JWT service.
func NewSessionService(db *gorm.DB, jwtService *JWTService, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("session service: jwt service is required")
	}

	ttl := cfg.RenewalTokenTTL
	if ttl <= 0 {
		ttl = DefaultRenewalTokenTTL
	}

	length := cfg.RenewalLength
	if length <= 0 {
		length = 48
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		db:           db,
		jwt:          jwtService,
		renewalTTL:   ttl,
		tokenLen:     length,
		now:          clock,
		revokeFamily: cfg.RevokeFamilyOnReuse,
	}, nil
}

// Issue creates a fresh renewal credential for the user and signs a matching
// session credential. Called after the identity provider has verified the
// login.
func (s *SessionService) Issue(ctx context.Context, user *models.User) (TokenPair, *models.RenewalCredential, error) {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return TokenPair{}, nil, errors.New("session service: user is required")
	}

	token, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate renewal token: %w", err)
	}

	now := s.now()
	credential := &models.RenewalCredential{
		ActorID:   user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.renewalTTL),
	}

	if err := s.db.WithContext(ctx).Create(credential).Error; err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: create credential: %w", err)
	}

	metrics.ActiveCredentials.Inc()

	accessToken, err := s.jwt.GenerateAccessToken(user.Context())
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate access token: %w", err)
	}

	return TokenPair{AccessToken: accessToken, RenewalToken: token}, credential, nil
}

// Renew rotates the presented renewal credential and issues a new session
// credential.
//
// Consuming the presented token and inserting its replacement happen in one
// transaction, with the consume step as a conditional update keyed on
// consumed = false. Two concurrent renewals of the same token therefore
// produce exactly one winner; the loser observes a consumed row, which is the
// replay signal. The actor's active flag is checked inside the same
// transaction, so a disabled actor's renew rolls back without burning the
// presented token or leaving an unclaimed replacement behind.
func (s *SessionService) Renew(ctx context.Context, presented string) (TokenPair, *models.RenewalCredential, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return TokenPair{}, nil, ErrInvalidCredential
	}

	newToken, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate renewal token: %w", err)
	}

	now := s.now()
	var replacement *models.RenewalCredential
	var user models.User

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RenewalCredential{}).
			Where("token = ? AND consumed = ? AND expires_at > ?", presented, false, now).
			Updates(map[string]any{"consumed": true, "consumed_at": now})
		if result.Error != nil {
			return fmt.Errorf("consume credential: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			var stale models.RenewalCredential
			err := tx.Where("token = ?", presented).Take(&stale).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCredentialNotFound
			}
			if err != nil {
				return fmt.Errorf("inspect credential: %w", err)
			}
			if stale.Consumed {
				return &ReuseError{ActorID: stale.ActorID}
			}
			return ErrCredentialExpired
		}

		var consumed models.RenewalCredential
		if err := tx.Where("token = ?", presented).Take(&consumed).Error; err != nil {
			return fmt.Errorf("load consumed credential: %w", err)
		}

		if err := tx.Take(&user, "id = ?", consumed.ActorID).Error; err != nil {
			return fmt.Errorf("load actor: %w", err)
		}
		if !user.IsActive {
			// Rolls back the consume above: the presented token stays
			// usable and no unclaimed replacement is written.
			return ErrActorDisabled
		}

		replacement = &models.RenewalCredential{
			ActorID:   consumed.ActorID,
			Token:     newToken,
			ExpiresAt: now.Add(s.renewalTTL),
		}
		if err := tx.Create(replacement).Error; err != nil {
			return fmt.Errorf("create replacement credential: %w", err)
		}
		return nil
	})
	if err != nil {
		var reuse *ReuseError
		if errors.As(err, &reuse) {
			s.handleReuse(ctx, reuse)
		}
		return TokenPair{}, nil, err
	}

	accessToken, err := s.jwt.GenerateAccessToken(user.Context())
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate access token: %w", err)
	}

	return TokenPair{AccessToken: accessToken, RenewalToken: newToken}, replacement, nil
}

func (s *SessionService) handleReuse(ctx context.Context, reuse *ReuseError) {
	metrics.RenewalReuseSignals.Inc()
	log := logger.WithModule("session")
	log.Warn("consumed renewal credential presented again",
		zap.String("actor_id", reuse.ActorID),
		zap.Bool("family_revoked", s.revokeFamily),
	)

	if !s.revokeFamily {
		return
	}
	if _, err := s.RevokeActorCredentials(ctx, reuse.ActorID); err != nil {
		log.Error("family revocation failed", zap.String("actor_id", reuse.ActorID), zap.Error(err))
	}
}

// Logout consumes the presented renewal credential. Idempotent: logging out an
// unknown or already-consumed token succeeds.
func (s *SessionService) Logout(ctx context.Context, presented string) error {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return nil
	}

	now := s.now()
	result := s.db.WithContext(ctx).Model(&models.RenewalCredential{}).
		Where("token = ? AND consumed = ?", presented, false).
		Updates(map[string]any{"consumed": true, "consumed_at": now})
	if result.Error != nil {
		return fmt.Errorf("session service: logout: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.ActiveCredentials.Sub(float64(result.RowsAffected))
	}
	return nil
}

// RevokeActorCredentials consumes every outstanding renewal credential for an
// actor. Used for the configurable reuse escalation and for administrative
// deactivation.
func (s *SessionService) RevokeActorCredentials(ctx context.Context, actorID string) (int64, error) {
	if strings.TrimSpace(actorID) == "" {
		return 0, errors.New("session service: actor id is required")
	}

	now := s.now()
	result := s.db.WithContext(ctx).Model(&models.RenewalCredential{}).
		Where("actor_id = ? AND consumed = ?", actorID, false).
		Updates(map[string]any{"consumed": true, "consumed_at": now})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: revoke actor credentials: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.ActiveCredentials.Sub(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// CleanupExpired removes expired credentials and consumed credentials past the
// replay-detection retention window.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now()

	var activeExpired int64
	if err := s.db.WithContext(ctx).
		Model(&models.RenewalCredential{}).
		Where("expires_at < ? AND consumed = ?", now, false).
		Count(&activeExpired).Error; err != nil {
		return 0, fmt.Errorf("session service: count expired credentials: %w", err)
	}

	result := s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Or("consumed = ? AND consumed_at < ?", true, now.Add(-consumedRetention)).
		Delete(&models.RenewalCredential{})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: cleanup credentials: %w", result.Error)
	}

	if activeExpired > 0 {
		metrics.ActiveCredentials.Sub(float64(activeExpired))
	}

	return result.RowsAffected, nil
}
