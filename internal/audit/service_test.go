package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mhersche/docgate/internal/database/testutil"
	"github.com/mhersche/docgate/internal/models"
)

func TestLogPersistsEntry(t *testing.T) {
	db, svc := setupAudit(t)

	user := &models.User{Email: "auditor@example.com", Role: models.RoleReader, IsActive: true}
	require.NoError(t, db.Create(user).Error)

	err := svc.Log(context.Background(), Entry{
		ActorID:   &user.ID,
		Action:    "document.fetch",
		Resource:  "documents/doc-1",
		Result:    "success",
		IPAddress: "10.0.0.1",
		Details:   map[string]any{"department_id": "dept-1"},
	})
	require.NoError(t, err)

	var stored models.AuditLog
	require.NoError(t, db.Take(&stored).Error)
	require.Equal(t, "document.fetch", stored.Action)
	require.Equal(t, "success", stored.Result)
	require.NotNil(t, stored.ActorID)
	require.Equal(t, user.ID, *stored.ActorID)

	var details map[string]any
	require.NoError(t, json.Unmarshal(stored.Details, &details))
	require.Equal(t, "dept-1", details["department_id"])
}

func TestLogRequiresActionAndResult(t *testing.T) {
	_, svc := setupAudit(t)

	require.Error(t, svc.Log(context.Background(), Entry{Result: "success"}))
	require.Error(t, svc.Log(context.Background(), Entry{Action: "document.fetch"}))
}

func TestLogAnonymousEntry(t *testing.T) {
	db, svc := setupAudit(t)

	// Failed exchanges have no actor yet.
	require.NoError(t, svc.Log(context.Background(), Entry{
		Action: "auth.exchange",
		Result: "denied",
	}))

	var stored models.AuditLog
	require.NoError(t, db.Take(&stored).Error)
	require.Nil(t, stored.ActorID)
}

func TestListNewestFirst(t *testing.T) {
	db, svc := setupAudit(t)

	for i, action := range []string{"first", "second", "third"} {
		require.NoError(t, db.Create(&models.AuditLog{
			Action:    action,
			Result:    "success",
			CreatedAt: time.Date(2024, 1, 1, i, 0, 0, 0, time.UTC),
		}).Error)
	}

	entries, err := svc.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "third", entries[0].Action)
	require.Equal(t, "second", entries[1].Action)
}

func TestCleanupOlderThan(t *testing.T) {
	db, svc := setupAudit(t)

	require.NoError(t, db.Create(&models.AuditLog{
		Action:    "stale",
		Result:    "success",
		CreatedAt: time.Now().AddDate(0, 0, -120),
	}).Error)
	require.NoError(t, db.Create(&models.AuditLog{
		Action:    "fresh",
		Result:    "success",
		CreatedAt: time.Now(),
	}).Error)

	removed, err := svc.CleanupOlderThan(context.Background(), 90)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining []models.AuditLog
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "fresh", remaining[0].Action)

	// Non-positive retention disables cleanup instead of deleting everything.
	removed, err = svc.CleanupOlderThan(context.Background(), 0)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func setupAudit(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewService(db)
	require.NoError(t, err)
	return db, svc
}
