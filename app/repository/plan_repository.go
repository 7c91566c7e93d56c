package repository

import (
	"gorm.io/gorm"

	"github.com/linklocker/LinkLocker/app/models"
)

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// GetAll returns the plan catalog ordered by price, cheapest first.
func (r *planRepository) GetAll() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Order("price_cents ASC").Find(&plans).Error
	return plans, err
}

// GetByID retrieves a plan by its ID
func (r *planRepository) GetByID(id string) (*models.Plan, error) {
	return models.FindPlanByID(r.db, id)
}
