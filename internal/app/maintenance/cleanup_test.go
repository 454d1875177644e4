package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mhersche/docgate/internal/audit"
	iauth "github.com/mhersche/docgate/internal/auth"
	"github.com/mhersche/docgate/internal/database/testutil"
	"github.com/mhersche/docgate/internal/models"
)

func TestRunOnceCleansCredentialsAndAuditLogs(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "maintenance-secret"})
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{})
	require.NoError(t, err)
	auditService, err := audit.NewService(db)
	require.NoError(t, err)

	user := &models.User{Email: "cleanup@example.com", Role: models.RoleReader, IsActive: true}
	require.NoError(t, db.Create(user).Error)

	require.NoError(t, db.Create(&models.RenewalCredential{
		ActorID:   user.ID,
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.RenewalCredential{
		ActorID:   user.ID,
		Token:     "live-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	require.NoError(t, db.Create(&models.AuditLog{
		Action:    "old",
		Result:    "success",
		CreatedAt: time.Now().AddDate(0, 0, -10),
	}).Error)
	require.NoError(t, db.Create(&models.AuditLog{
		Action:    "recent",
		Result:    "success",
		CreatedAt: time.Now(),
	}).Error)

	cleaner := NewCleaner(sessions, auditService, WithAuditRetentionDays(7))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var credentials []models.RenewalCredential
	require.NoError(t, db.Find(&credentials).Error)
	require.Len(t, credentials, 1)
	require.Equal(t, "live-token", credentials[0].Token)

	var logs []models.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Equal(t, "recent", logs[0].Action)
}

func TestRunOnceToleratesMissingDependencies(t *testing.T) {
	cleaner := NewCleaner(nil, nil)
	require.NoError(t, cleaner.RunOnce(context.Background()))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "maintenance-secret"})
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{})
	require.NoError(t, err)

	cleaner := NewCleaner(sessions, nil, WithCredentialSchedule("not a cron spec"))
	require.Error(t, cleaner.Start())
}

func TestStartAndStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "maintenance-secret"})
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{})
	require.NoError(t, err)
	auditService, err := audit.NewService(db)
	require.NoError(t, err)

	cleaner := NewCleaner(sessions, auditService)
	require.NoError(t, cleaner.Start())

	select {
	case <-cleaner.Stop().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}
