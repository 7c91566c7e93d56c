package models

import "time"

// Transaction kinds and statuses written by the settlement handler.
const (
	TransactionKindSubscription = "subscription"
	TransactionKindTopUp        = "top-up"

	TransactionStatusCompleted = "completed"

	PaymentMethodStripe   = "stripe"
	PaymentMethodCoinbase = "coinbase"
)

// Transaction is an append-only audit record of a settled payment. The unique
// index on ExternalReference is the idempotency guard: a provider may redeliver
// the same confirmation any number of times, at most one completed row exists.
type Transaction struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"index;not null" json:"user_id"`
	AmountCents       int64     `gorm:"not null;default:0" json:"amount_cents"`
	Kind              string    `gorm:"type:varchar(20);not null;index" json:"kind"`
	PaymentMethod     string    `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status            string    `gorm:"type:varchar(20);not null" json:"status"`
	ExternalReference string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"external_reference"`
	PlanID            *string   `gorm:"type:varchar(36);default:null" json:"plan_id,omitempty"`
	CreditsGranted    *uint     `gorm:"default:null" json:"credits_granted,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
