package entitlement

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/linklocker/LinkLocker/app/models"
	"github.com/linklocker/LinkLocker/internal/pkg/database"
)

// newTestDB opens a fresh in-memory database with the full schema and the
// seeded plan catalog. cache=shared keeps the database alive across pooled
// connections.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// createTestUser inserts a user and returns its ID.
func createTestUser(t *testing.T, db *gorm.DB, email string) uint {
	t.Helper()

	user := &models.User{
		Name:     "Test User",
		Email:    email,
		Password: "irrelevant-hash",
		Role:     models.ROLE_USER,
		Status:   models.STATUS_ACTIVE,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user.ID
}

// createTestProfile inserts a ledger row pointing at the given plan.
func createTestProfile(t *testing.T, db *gorm.DB, userID uint, planID string, credits uint) {
	t.Helper()

	profile := &models.Profile{
		UserID:         userID,
		CreditsBalance: credits,
	}
	if planID != "" {
		profile.PlanID = &planID
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
}
