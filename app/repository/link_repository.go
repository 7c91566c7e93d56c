package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/linklocker/LinkLocker/app/models"
)

// linkRepository implements the LinkRepository interface
type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a new link repository instance
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

// Create persists a new link. The slug ID is generated in the model's
// BeforeCreate hook when not set.
func (r *linkRepository) Create(link *models.Link) error {
	return r.db.Create(link).Error
}

// GetByID retrieves a link by its slug ID
func (r *linkRepository) GetByID(id string) (*models.Link, error) {
	var link models.Link
	err := r.db.Where("id = ?", id).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetByUserID retrieves a paginated list of a user's links, newest first
func (r *linkRepository) GetByUserID(userID uint, offset, limit int) ([]models.Link, error) {
	var links []models.Link
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&links).Error
	return links, err
}

// CountByUserID returns the number of links owned by a user
func (r *linkRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Link{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Delete removes a link by its ID
func (r *linkRepository) Delete(id string) error {
	return r.db.Delete(&models.Link{}, "id = ?", id).Error
}

// RecordView increments the view counter by exactly 1 inside the database.
// The increment happens in a single UPDATE so simultaneous visitors cannot
// lose each other's views.
func (r *linkRepository) RecordView(id string) error {
	return r.db.Model(&models.Link{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// GetStatsByUserID aggregates a user's dashboard numbers: total, active and
// expired links plus accumulated views.
func (r *linkRepository) GetStatsByUserID(userID uint) (*LinkStats, error) {
	var stats LinkStats
	now := time.Now()

	err := r.db.Model(&models.Link{}).Where("user_id = ?", userID).Count(&stats.TotalLinks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count links: %w", err)
	}

	err = r.db.Model(&models.Link{}).
		Where("user_id = ? AND expires_at IS NOT NULL AND expires_at < ?", userID, now).
		Count(&stats.ExpiredLinks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count expired links: %w", err)
	}
	stats.ActiveLinks = stats.TotalLinks - stats.ExpiredLinks

	err = r.db.Model(&models.Link{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(view_count), 0)").Row().Scan(&stats.TotalViews)
	if err != nil {
		return nil, fmt.Errorf("failed to sum link views: %w", err)
	}

	return &stats, nil
}
