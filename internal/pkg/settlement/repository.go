package settlement

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linklocker/LinkLocker/app/models"
)

// Repository provides the DB operations used by the settlement service.
// WithinTransaction yields a repository bound to one database transaction so
// that the idempotency claim and the ledger mutation commit or roll back
// together.
type Repository interface {
	WithinTransaction(fn func(r Repository) error) error
	CreateTransactionIfNotExists(t *models.Transaction) (bool, error)
	GetPlan(planID string) (*models.Plan, error)
	EnsureProfile(userID uint) error
	SelectPlan(userID uint, planID string, cycleStart time.Time) error
	AddCredits(userID uint, credits uint) error
	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a settlement repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithinTransaction(fn func(repo Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

// CreateTransactionIfNotExists inserts the transaction unless one with the
// same external reference already exists. Returns whether a row was created.
func (r *gormRepository) CreateTransactionIfNotExists(t *models.Transaction) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_reference"}},
		DoNothing: true,
	}).Create(t)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) GetPlan(planID string) (*models.Plan, error) {
	return models.FindPlanByID(r.db, planID)
}

func (r *gormRepository) EnsureProfile(userID uint) error {
	_, err := models.GetOrCreateProfile(r.db, userID)
	return err
}

func (r *gormRepository) SelectPlan(userID uint, planID string, cycleStart time.Time) error {
	return r.db.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"plan_id":             planID,
			"billing_cycle_start": cycleStart,
		}).Error
}

func (r *gormRepository) AddCredits(userID uint, credits uint) error {
	return r.db.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		UpdateColumn("credits_balance", gorm.Expr("credits_balance + ?", credits)).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
