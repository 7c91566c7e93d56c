package entitlement

import (
	"time"

	"gorm.io/gorm"

	"github.com/linklocker/LinkLocker/app/models"
)

// Repository provides the ledger's DB operations. All counter mutations are
// single conditional UPDATE statements; the service never reads counters and
// writes them back.
type Repository interface {
	GetProfile(userID uint) (*models.Profile, error)
	GetOrCreateProfile(userID uint) (*models.Profile, error)
	GetPlan(planID string) (*models.Plan, error)
	SelectPlan(userID uint, planID string, cycleStart time.Time) error
	IncrementLinksCreatedBelow(userID uint, limit int) (bool, error)
	SpendCredit(userID uint) (bool, error)
	AddCredits(userID uint, credits uint) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetProfile(userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Preload("Plan").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *gormRepository) GetOrCreateProfile(userID uint) (*models.Profile, error) {
	return models.GetOrCreateProfile(r.db, userID)
}

func (r *gormRepository) GetPlan(planID string) (*models.Plan, error) {
	return models.FindPlanByID(r.db, planID)
}

func (r *gormRepository) SelectPlan(userID uint, planID string, cycleStart time.Time) error {
	// links_created is deliberately untouched: switching plans does not
	// refund quota usage.
	return r.db.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"plan_id":             planID,
			"billing_cycle_start": cycleStart,
		}).Error
}

func (r *gormRepository) IncrementLinksCreatedBelow(userID uint, limit int) (bool, error) {
	tx := r.db.Model(&models.Profile{}).
		Where("user_id = ? AND links_created < ?", userID, limit).
		UpdateColumn("links_created", gorm.Expr("links_created + 1"))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) SpendCredit(userID uint) (bool, error) {
	tx := r.db.Model(&models.Profile{}).
		Where("user_id = ? AND credits_balance > 0", userID).
		UpdateColumn("credits_balance", gorm.Expr("credits_balance - 1"))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) AddCredits(userID uint, credits uint) error {
	return r.db.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		UpdateColumn("credits_balance", gorm.Expr("credits_balance + ?", credits)).Error
}
