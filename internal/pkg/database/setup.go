package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/linklocker/LinkLocker/app/models"
	"github.com/linklocker/LinkLocker/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

func SetupDatabase() {
	var err error
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{})
		if err == nil {
			if migrateErr := Migrate(DB); migrateErr != nil {
				panic(migrateErr)
			}
			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// Migrate runs the schema migration and seeds the default plan catalog.
// Exposed so tests can run it against their own database handle.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Plan{},
		&models.Profile{},
		&models.Link{},
		&models.Transaction{},
		&models.PaymentWebhookEvent{},
	); err != nil {
		return err
	}
	return SeedDefaultPlans(db)
}

// SeedDefaultPlans inserts the built-in plan catalog if it is missing.
// Existing rows are left untouched so price/limit edits survive restarts.
func SeedDefaultPlans(db *gorm.DB) error {
	explorerExpiry := 7
	voyagerExpiry := 30
	defaults := []models.Plan{
		{
			ID:                "explorer",
			Name:              "Explorer",
			Description:       "Get started with secure link sharing",
			PriceCents:        0,
			LinksLimit:        5,
			MaxExpirationDays: &explorerExpiry,
		},
		{
			ID:                "voyager",
			Name:              "Voyager",
			Description:       "For regular sharers: file uploads and longer expirations",
			PriceCents:        999,
			LinksLimit:        50,
			MaxExpirationDays: &voyagerExpiry,
			AllowAnalytics:    true,
		},
		{
			ID:             "navigator",
			Name:           "Navigator",
			Description:    "Unlimited links, no expiration cap",
			PriceCents:     2499,
			LinksLimit:     models.LinksUnlimited,
			AllowAnalytics: true,
		},
	}

	for _, plan := range defaults {
		var existing models.Plan
		err := db.Where("id = ?", plan.ID).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&plan).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetDB returns the global database handle.
func GetDB() *gorm.DB {
	return DB
}

// SetDB swaps the global handle; used by tests with an in-memory database.
func SetDB(db *gorm.DB) {
	DB = db
}
