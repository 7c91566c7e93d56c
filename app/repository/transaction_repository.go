package repository

import (
	"gorm.io/gorm"

	"github.com/linklocker/LinkLocker/app/models"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a read-only view over settled transactions
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// GetByUserID retrieves a user's settled transactions, newest first
func (r *transactionRepository) GetByUserID(userID uint, offset, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&txs).Error
	return txs, err
}

// GetByExternalReference resolves a provider reference to its transaction
func (r *transactionRepository) GetByExternalReference(ref string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.Where("external_reference = ?", ref).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
