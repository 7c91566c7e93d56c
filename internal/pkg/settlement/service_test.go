package settlement

import (
	"context"
	"strings"
	"testing"

	"github.com/linklocker/LinkLocker/app/models"
	"github.com/linklocker/LinkLocker/internal/pkg/entitlement"
)

func TestSettleSubscription_AppliesPlanAndRecordsTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userID := createTestUser(t, db, "sub@example.com")
	svc := NewServiceFromDB(db)

	res, err := svc.SettleSubscription(context.Background(), SubscriptionSettlement{
		AccountID:         userID,
		PlanID:            "voyager",
		AmountCents:       999,
		PaymentMethod:     models.PaymentMethodStripe,
		ExternalReference: "cs_test_001",
	})
	if err != nil {
		t.Fatalf("settlement failed: %v", err)
	}
	if res.Duplicate {
		t.Fatalf("first settlement must not be a duplicate")
	}
	if res.Transaction == nil || res.Transaction.Kind != models.TransactionKindSubscription {
		t.Fatalf("expected a subscription transaction record, got %+v", res.Transaction)
	}

	profile := loadProfile(t, db, userID)
	if profile.PlanID == nil || *profile.PlanID != "voyager" {
		t.Fatalf("plan not applied, got %v", profile.PlanID)
	}
	if profile.BillingCycleStart == nil {
		t.Fatalf("settlement must stamp the billing cycle start")
	}
	if countTransactions(t, db) != 1 {
		t.Fatalf("expected exactly one transaction row")
	}
}

func TestSettleSubscription_RedeliveryIsNoOp(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userID := createTestUser(t, db, "redelivery@example.com")
	svc := NewServiceFromDB(db)

	in := SubscriptionSettlement{
		AccountID:         userID,
		PlanID:            "voyager",
		AmountCents:       999,
		PaymentMethod:     models.PaymentMethodStripe,
		ExternalReference: "cs_test_dup",
	}

	if _, err := svc.SettleSubscription(context.Background(), in); err != nil {
		t.Fatalf("first settlement failed: %v", err)
	}
	res, err := svc.SettleSubscription(context.Background(), in)
	if err != nil {
		t.Fatalf("redelivery must not error: %v", err)
	}
	if !res.Duplicate {
		t.Fatalf("redelivery must report duplicate")
	}
	if countTransactions(t, db) != 1 {
		t.Fatalf("redelivery created a second transaction row")
	}
}

func TestSettleTopUp_GrantsCreditsExactlyOnce(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userID := createTestUser(t, db, "topup@example.com")
	svc := NewServiceFromDB(db)

	in := TopUpSettlement{
		AccountID:         userID,
		CreditsGranted:    10,
		AmountCents:       500,
		PaymentMethod:     models.PaymentMethodCoinbase,
		ExternalReference: "charge_abc",
	}

	res, err := svc.SettleTopUp(context.Background(), in)
	if err != nil {
		t.Fatalf("top-up failed: %v", err)
	}
	if res.Duplicate {
		t.Fatalf("first top-up must not be a duplicate")
	}

	// The processor redelivers the same confirmation twice more.
	for i := 0; i < 2; i++ {
		res, err = svc.SettleTopUp(context.Background(), in)
		if err != nil {
			t.Fatalf("redelivery %d errored: %v", i+1, err)
		}
		if !res.Duplicate {
			t.Fatalf("redelivery %d must be a no-op", i+1)
		}
	}

	profile := loadProfile(t, db, userID)
	if profile.CreditsBalance != 10 {
		t.Fatalf("credits_balance = %d, want 10 (granted once)", profile.CreditsBalance)
	}
	if countTransactions(t, db) != 1 {
		t.Fatalf("expected exactly one transaction row")
	}
}

func TestSettleTopUp_DoesNotTouchPlan(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userID := createTestUser(t, db, "topup-plan@example.com")

	ledger := entitlement.NewServiceFromDB(db)
	if _, err := ledger.ApplyPlanSelection(context.Background(), userID, "explorer"); err != nil {
		t.Fatalf("failed to select plan: %v", err)
	}

	svc := NewServiceFromDB(db)
	if _, err := svc.SettleTopUp(context.Background(), TopUpSettlement{
		AccountID:         userID,
		CreditsGranted:    5,
		AmountCents:       250,
		PaymentMethod:     models.PaymentMethodStripe,
		ExternalReference: "cs_topup_1",
	}); err != nil {
		t.Fatalf("top-up failed: %v", err)
	}

	profile := loadProfile(t, db, userID)
	if profile.PlanID == nil || *profile.PlanID != "explorer" {
		t.Fatalf("top-up changed the plan: %v", profile.PlanID)
	}
	if profile.CreditsBalance != 5 {
		t.Fatalf("credits_balance = %d, want 5", profile.CreditsBalance)
	}
}

func TestSettleSubscription_UnknownPlanReleasesClaim(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userID := createTestUser(t, db, "badplan@example.com")
	svc := NewServiceFromDB(db)

	in := SubscriptionSettlement{
		AccountID:         userID,
		PlanID:            "gold-tier",
		AmountCents:       999,
		PaymentMethod:     models.PaymentMethodStripe,
		ExternalReference: "cs_badplan",
	}
	if _, err := svc.SettleSubscription(context.Background(), in); err == nil {
		t.Fatalf("expected error for unknown plan")
	}

	// The failed attempt must leave no claim behind: the same reference can
	// settle once the problem is fixed.
	if countTransactions(t, db) != 0 {
		t.Fatalf("failed settlement left a transaction row behind")
	}

	in.PlanID = "voyager"
	res, err := svc.SettleSubscription(context.Background(), in)
	if err != nil {
		t.Fatalf("retry after fix failed: %v", err)
	}
	if res.Duplicate {
		t.Fatalf("retry after released claim must settle, not dedupe")
	}
}

func TestFreePlanSelectionWritesNoTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userID := createTestUser(t, db, "freeplan@example.com")

	// Free plans apply directly through the ledger; settlement never runs.
	ledger := entitlement.NewServiceFromDB(db)
	ent, err := ledger.ApplyPlanSelection(context.Background(), userID, "explorer")
	if err != nil {
		t.Fatalf("free plan selection failed: %v", err)
	}
	if ent.PlanID != "explorer" {
		t.Fatalf("plan not applied, got %s", ent.PlanID)
	}

	if countTransactions(t, db) != 0 {
		t.Fatalf("free plan selection must not write settlement records")
	}
}

func TestRecordWebhookEvent_Deduplicates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewServiceFromDB(db)

	in := WebhookEventInput{
		Provider:        models.PaymentMethodStripe,
		ProviderEventID: "evt_123",
		EventType:       "checkout.session.completed",
		PayloadJSON:     `{"id":"evt_123"}`,
		SignatureValid:  true,
	}

	created, record, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("failed to record event: %v", err)
	}
	if !created || record == nil {
		t.Fatalf("first delivery must create a record")
	}

	created, again, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("failed to record redelivered event: %v", err)
	}
	if created {
		t.Fatalf("redelivered event must not create a second record")
	}
	if again.ID != record.ID {
		t.Fatalf("redelivery must resolve to the stored record")
	}
}

func TestRecordWebhookEvent_HashesMissingEventID(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewServiceFromDB(db)

	payload := `{"event":{"type":"charge:confirmed"}}`
	created, record, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:    models.PaymentMethodCoinbase,
		PayloadJSON: payload,
	})
	if err != nil {
		t.Fatalf("failed to record event: %v", err)
	}
	if !created {
		t.Fatalf("expected a fresh record")
	}
	if !strings.HasPrefix(record.ProviderEventID, "hash:") {
		t.Fatalf("missing event id must fall back to a payload hash, got %q", record.ProviderEventID)
	}

	// Same payload again dedupes on the hash.
	created, _, err = svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:    models.PaymentMethodCoinbase,
		PayloadJSON: payload,
	})
	if err != nil {
		t.Fatalf("failed to record redelivery: %v", err)
	}
	if created {
		t.Fatalf("identical payload must dedupe on the hash id")
	}
}

func TestMarkWebhookProcessed(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewServiceFromDB(db)

	_, record, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:        models.PaymentMethodStripe,
		ProviderEventID: "evt_done",
		PayloadJSON:     "{}",
	})
	if err != nil {
		t.Fatalf("failed to record event: %v", err)
	}

	if err := svc.MarkWebhookProcessed(context.Background(), record.ID, nil); err != nil {
		t.Fatalf("failed to mark processed: %v", err)
	}

	var stored models.PaymentWebhookEvent
	if err := db.First(&stored, record.ID).Error; err != nil {
		t.Fatalf("failed to reload event: %v", err)
	}
	if stored.ProcessedAt == nil {
		t.Fatalf("processed_at not set")
	}
	if stored.ProcessingError != "" {
		t.Fatalf("unexpected processing error: %q", stored.ProcessingError)
	}
}
