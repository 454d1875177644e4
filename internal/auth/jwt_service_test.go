package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mhersche/docgate/internal/models"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	clock := &testClock{current: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)}

	svc, err := NewJWTService(JWTConfig{
		Secret:         "unit-secret",
		Issuer:         "docgate-test",
		AccessTokenTTL: time.Hour,
		Clock:          clock.Now,
	})
	require.NoError(t, err)

	actor := models.ActorContext{
		ActorID:      "11111111-0000-0000-0000-000000000001",
		Role:         models.RoleDeptAdmin,
		DepartmentID: "22222222-0000-0000-0000-000000000001",
	}

	token, err := svc.GenerateAccessToken(actor)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, actor, claims.ActorContext())
	require.Equal(t, "docgate-test", claims.Issuer)
}

func TestValidateAccessTokenExpiry(t *testing.T) {
	clock := &testClock{current: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)}
	svc, err := NewJWTService(JWTConfig{
		Secret:         "unit-secret",
		AccessTokenTTL: time.Hour,
		Clock:          clock.Now,
	})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(models.ActorContext{ActorID: "u1", Role: models.RoleReader})
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = svc.ValidateAccessToken(token)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestValidateAccessTokenRejectsWrongSecret(t *testing.T) {
	issuerSvc, err := NewJWTService(JWTConfig{Secret: "secret-a"})
	require.NoError(t, err)
	otherSvc, err := NewJWTService(JWTConfig{Secret: "secret-b"})
	require.NoError(t, err)

	token, err := issuerSvc.GenerateAccessToken(models.ActorContext{ActorID: "u1", Role: models.RoleReader})
	require.NoError(t, err)

	_, err = otherSvc.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestValidateAccessTokenRejectsWrongIssuer(t *testing.T) {
	signer, err := NewJWTService(JWTConfig{Secret: "shared", Issuer: "someone-else"})
	require.NoError(t, err)
	verifier, err := NewJWTService(JWTConfig{Secret: "shared", Issuer: "docgate"})
	require.NoError(t, err)

	token, err := signer.GenerateAccessToken(models.ActorContext{ActorID: "u1", Role: models.RoleReader})
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestGenerateAccessTokenRejectsInvalidRole(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "unit-secret"})
	require.NoError(t, err)

	_, err = svc.GenerateAccessToken(models.ActorContext{ActorID: "u1", Role: models.Role("root")})
	require.Error(t, err)

	_, err = svc.GenerateAccessToken(models.ActorContext{Role: models.RoleReader})
	require.Error(t, err)
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
}
