package settlement

import "github.com/linklocker/LinkLocker/app/models"

// SubscriptionSettlement is the provider-agnostic shape of a confirmed
// subscription payment. ExternalReference is the provider's charge/session id
// and is the idempotency key.
type SubscriptionSettlement struct {
	AccountID         uint
	PlanID            string
	AmountCents       int64
	PaymentMethod     string
	ExternalReference string
}

// TopUpSettlement is the provider-agnostic shape of a confirmed credit
// purchase.
type TopUpSettlement struct {
	AccountID         uint
	CreditsGranted    uint
	AmountCents       int64
	PaymentMethod     string
	ExternalReference string
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

// Result reports the outcome of a settlement. Duplicate means the reference
// was settled before; the redelivery was a no-op and is not an error.
type Result struct {
	Duplicate   bool
	Transaction *models.Transaction
}
