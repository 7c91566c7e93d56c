package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Profile is the per-account entitlement ledger row: active plan, quota usage
// for the current billing cycle and the spendable credit balance.
//
// LinksCreated and CreditsBalance are mutated exclusively through the
// conditional single-statement updates in the profile repository; they must
// never be written back from stale in-memory copies.
type Profile struct {
	UserID            uint       `gorm:"primaryKey" json:"user_id"`
	User              User       `gorm:"foreignKey:UserID" json:"-"`
	PlanID            *string    `gorm:"type:varchar(36);index;default:null" json:"plan_id,omitempty"`
	Plan              *Plan      `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	LinksCreated      uint       `gorm:"not null;default:0" json:"links_created"`
	CreditsBalance    uint       `gorm:"not null;default:0" json:"credits_balance"`
	BillingCycleStart *time.Time `gorm:"type:timestamp;default:null" json:"billing_cycle_start,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasPlan reports whether the account completed plan selection.
func (p *Profile) HasPlan() bool {
	return p.PlanID != nil && *p.PlanID != ""
}

// GetOrCreateProfile returns the profile for a user, creating an empty one
// (no plan, zero counters) if it does not exist yet.
func GetOrCreateProfile(db *gorm.DB, userID uint) (*Profile, error) {
	var profile Profile
	err := db.Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile = Profile{UserID: userID}
	if err := db.Create(&profile).Error; err != nil {
		// Lost a create race; the row exists now.
		if lookupErr := db.Where("user_id = ?", userID).First(&profile).Error; lookupErr == nil {
			return &profile, nil
		}
		return nil, err
	}
	return &profile, nil
}
