package database_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mhersche/docgate/internal/database"
	"github.com/mhersche/docgate/internal/database/testutil"
	"github.com/mhersche/docgate/internal/models"
)

func TestActiveKeyUniquenessGuard(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	dept := &models.Department{Name: "Engineering"}
	require.NoError(t, db.Create(dept).Error)
	user := &models.User{Email: "reader@example.com", Role: models.RoleReader, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	doc := &models.Document{DepartmentID: dept.ID, Title: "Handbook", FilePath: "h.pdf"}
	require.NoError(t, db.Create(doc).Error)

	key := models.ActiveKeyFor(user.ID, doc.ID)

	first := &models.AccessRequest{ActorID: user.ID, DocumentID: doc.ID, Status: models.RequestPending, ActiveKey: &key}
	require.NoError(t, db.Create(first).Error)

	// Second open request for the same pair collides in the storage engine.
	second := &models.AccessRequest{ActorID: user.ID, DocumentID: doc.ID, Status: models.RequestPending, ActiveKey: &key}
	err := db.Create(second).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// NULL keys never collide: two rejected rows for the same pair coexist.
	require.NoError(t, db.Model(first).Updates(map[string]any{
		"status":     models.RequestRejected,
		"active_key": nil,
	}).Error)

	third := &models.AccessRequest{ActorID: user.ID, DocumentID: doc.ID, Status: models.RequestPending, ActiveKey: &key}
	require.NoError(t, db.Create(third).Error)
}

func TestDeactivatedUserStaysDeactivated(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	user := &models.User{Email: "dormant@example.com", Role: models.RoleReader, IsActive: false}
	require.NoError(t, db.Create(user).Error)

	var stored models.User
	require.NoError(t, db.Take(&stored, "id = ?", user.ID).Error)
	require.False(t, stored.IsActive)
}

func TestSeedDataIsIdempotent(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	require.NoError(t, database.SeedData(db))
	require.NoError(t, database.SeedData(db))

	var count int64
	require.NoError(t, db.Model(&models.Department{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestSeedBootstrapAdmin(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	require.NoError(t, database.SeedBootstrapAdmin(db, ""))

	require.NoError(t, database.SeedBootstrapAdmin(db, "Root@Example.com"))

	var admin models.User
	require.NoError(t, db.Take(&admin, "email = ?", "root@example.com").Error)
	require.Equal(t, models.RoleGlobalAdmin, admin.Role)
	require.True(t, admin.IsActive)

	// An existing reader account gets promoted, not duplicated.
	reader := &models.User{Email: "promoted@example.com", Role: models.RoleReader, IsActive: false}
	require.NoError(t, db.Create(reader).Error)
	require.NoError(t, database.SeedBootstrapAdmin(db, "promoted@example.com"))

	var promoted models.User
	require.NoError(t, db.Take(&promoted, "id = ?", reader.ID).Error)
	require.Equal(t, models.RoleGlobalAdmin, promoted.Role)
	require.True(t, promoted.IsActive)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "promoted@example.com").Count(&count).Error)
	require.EqualValues(t, 1, count)
}
