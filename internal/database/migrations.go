package database

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mhersche/docgate/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
//
// The one-open-request invariant on access requests rides on the unique index
// over AccessRequest.ActiveKey (NULL for rejected rows, so rejected history
// never blocks a resubmission). AutoMigrate creates that index from the model
// tag on every supported driver.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Department{},
		&models.User{},
		&models.Document{},
		&models.AccessRequest{},
		&models.RenewalCredential{},
		&models.AuditLog{},
	)
}

// SeedData populates the default departments used by fresh installs.
func SeedData(db *gorm.DB) error {
	departments := []models.Department{
		{ID: "d0000000-0000-0000-0000-000000000001", Name: "General"},
	}

	for _, dept := range departments {
		if err := db.Where(models.Department{ID: dept.ID}).Attrs(dept).FirstOrCreate(&models.Department{}).Error; err != nil {
			return err
		}
	}

	return nil
}

// SeedBootstrapAdmin guarantees a global admin exists for the configured
// email. A fresh install creates the row; an existing account (for example a
// reader provisioned by an earlier login) is promoted. No-op for an empty
// email.
func SeedBootstrapAdmin(db *gorm.DB, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	var user models.User
	err := db.Where(models.User{Email: email}).
		Attrs(models.User{
			Email:    email,
			Name:     "Bootstrap Admin",
			Role:     models.RoleGlobalAdmin,
			IsActive: true,
		}).
		FirstOrCreate(&user).Error
	if err != nil {
		return err
	}

	if user.Role == models.RoleGlobalAdmin && user.IsActive {
		return nil
	}

	return db.Model(&user).Updates(map[string]any{
		"role":          models.RoleGlobalAdmin,
		"department_id": nil,
		"is_active":     true,
	}).Error
}
