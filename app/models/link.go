package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/linklocker/LinkLocker/internal/pkg/shortener"
)

// Funding sources recorded on a link at creation time.
const (
	FundingSourcePlan   = "plan"
	FundingSourceCredit = "credit"
)

// LinkIDLength is the slug length for shareable link identifiers. 22 Base62
// characters carry about 131 bits of entropy, enough to treat the ID itself
// as the access capability.
const LinkIDLength = 22

// Link is a shared resource behind an unguessable identifier. The target is
// either a user-supplied external URL or the public URL of an uploaded file.
type Link struct {
	ID            string         `gorm:"type:varchar(32);primaryKey" json:"id"`
	UserID        uint           `gorm:"index;not null" json:"user_id"`
	User          User           `gorm:"foreignKey:UserID" json:"-"`
	Title         string         `gorm:"type:varchar(255);not null" json:"title"`
	TargetURL     string         `gorm:"type:text;not null" json:"target_url"`
	PasswordHash  *string        `gorm:"type:text;default:null" json:"-"`
	ExpiresAt     *time.Time     `gorm:"type:timestamp;default:null;index" json:"expires_at,omitempty"`
	ViewCount     uint           `gorm:"not null;default:0" json:"view_count"`
	FundingSource string         `gorm:"type:varchar(10);not null;default:'plan'" json:"funding_source"`
	FileName      *string        `gorm:"type:varchar(255);default:null" json:"file_name,omitempty"`
	FileSize      *int64         `gorm:"default:null" json:"file_size,omitempty"`
	ObjectKey     *string        `gorm:"type:varchar(300);default:null" json:"-"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a fresh slug when none was provided.
func (l *Link) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		slug, err := shortener.GenerateSecureSlug(LinkIDLength)
		if err != nil {
			return err
		}
		l.ID = slug
	}
	return nil
}

// HasPassword reports whether access requires a password.
func (l *Link) HasPassword() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}

// IsExpired reports whether the link's expiry has passed at the given time.
// Links without an expiry never expire.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// IsFileBacked reports whether the target is an uploaded object we store.
func (l *Link) IsFileBacked() bool {
	return l.ObjectKey != nil && *l.ObjectKey != ""
}

// SetPassword hashes and stores the access password.
func (l *Link) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s := string(hash)
	l.PasswordHash = &s
	return nil
}

// CheckPassword verifies a submitted password against the stored hash.
// bcrypt's comparison is constant time; plaintext is never stored.
func (l *Link) CheckPassword(password string) bool {
	if !l.HasPassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*l.PasswordHash), []byte(password)) == nil
}
