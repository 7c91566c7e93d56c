package models

import (
	"time"

	"gorm.io/gorm"
)

// LinksUnlimited is the stored sentinel for plans without a link cap.
// Application code must not compare against it directly; use
// entitlement.AllowanceFromLimit to obtain a tagged value.
const LinksUnlimited = -1

// Plan is immutable reference data describing a pricing tier. Many profiles
// may point to one plan.
type Plan struct {
	ID                string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name              string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description       string    `gorm:"type:text" json:"description"`
	PriceCents        int64     `gorm:"not null;default:0" json:"price_cents"`
	LinksLimit        int       `gorm:"not null;default:0" json:"links_limit"`
	MaxExpirationDays *int      `gorm:"default:null" json:"max_expiration_days,omitempty"`
	AllowPassword     bool      `gorm:"default:true" json:"allow_password"`
	AllowAnalytics    bool      `gorm:"default:false" json:"allow_analytics"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsFree reports whether selecting this plan requires no payment.
func (p *Plan) IsFree() bool {
	return p.PriceCents == 0
}

// AllowsFileUpload reports whether links may be backed by uploaded files.
// Only paying tiers may upload files.
func (p *Plan) AllowsFileUpload() bool {
	return p.PriceCents > 0
}

// MaxExpiration returns the latest allowed expiry relative to now, or nil if
// the plan does not cap expiration dates.
func (p *Plan) MaxExpiration(now time.Time) *time.Time {
	if p.MaxExpirationDays == nil {
		return nil
	}
	t := now.AddDate(0, 0, *p.MaxExpirationDays)
	return &t
}

// FindPlanByID loads a single plan by its ID.
func FindPlanByID(db *gorm.DB, id string) (*Plan, error) {
	var plan Plan
	result := db.Where("id = ?", id).First(&plan)
	return &plan, result.Error
}
