package entitlement

import (
	"context"
	"errors"
	"testing"

	"github.com/linklocker/LinkLocker/app/models"
)

func TestGetEntitlement_NoPlanSelected(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userID := createTestUser(t, db, "ent-noplan@example.com")

	svc := NewServiceFromDB(db)
	if _, err := svc.GetEntitlement(context.Background(), userID); !errors.Is(err, ErrNoPlanSelected) {
		t.Fatalf("expected ErrNoPlanSelected, got %v", err)
	}
}

func TestGetEntitlement_MapsPlanFields(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userID := createTestUser(t, db, "ent-fields@example.com")
	createTestProfile(t, db, userID, "voyager", 7)

	svc := NewServiceFromDB(db)
	ent, err := svc.GetEntitlement(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to load entitlement: %v", err)
	}

	if ent.PlanID != "voyager" || ent.PlanName != "Voyager" {
		t.Fatalf("unexpected plan mapping: %s/%s", ent.PlanID, ent.PlanName)
	}
	if ent.Allowance.IsUnlimited() || ent.Allowance.Limit() != 50 {
		t.Fatalf("unexpected allowance: %s", ent.Allowance)
	}
	if !ent.AllowsFileUpload {
		t.Fatalf("paid plan must allow file uploads")
	}
	if ent.MaxExpirationDays == nil || *ent.MaxExpirationDays != 30 {
		t.Fatalf("unexpected expiration cap: %v", ent.MaxExpirationDays)
	}
	if ent.CreditsBalance != 7 {
		t.Fatalf("credits_balance = %d, want 7", ent.CreditsBalance)
	}
}

func TestApplyPlanSelection_NeverResetsLinksCreated(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userID := createTestUser(t, db, "ent-switch@example.com")
	createTestProfile(t, db, userID, "explorer", 0)

	if err := db.Model(&models.Profile{}).Where("user_id = ?", userID).
		UpdateColumn("links_created", 3).Error; err != nil {
		t.Fatalf("failed to prime links_created: %v", err)
	}

	svc := NewServiceFromDB(db)
	ent, err := svc.ApplyPlanSelection(context.Background(), userID, "voyager")
	if err != nil {
		t.Fatalf("plan selection failed: %v", err)
	}

	if ent.PlanID != "voyager" {
		t.Fatalf("plan not switched, got %s", ent.PlanID)
	}
	if ent.LinksCreated != 3 {
		t.Fatalf("plan switch reset links_created to %d, must stay 3", ent.LinksCreated)
	}
	if ent.BillingCycleStart == nil {
		t.Fatalf("plan selection must stamp the billing cycle start")
	}
}

func TestApplyPlanSelection_CreatesProfileForNewAccount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userID := createTestUser(t, db, "ent-fresh@example.com")

	svc := NewServiceFromDB(db)
	ent, err := svc.ApplyPlanSelection(context.Background(), userID, "explorer")
	if err != nil {
		t.Fatalf("plan selection failed: %v", err)
	}
	if ent.PlanID != "explorer" || ent.LinksCreated != 0 || ent.CreditsBalance != 0 {
		t.Fatalf("fresh profile state wrong: %+v", ent)
	}
}

func TestApplyPlanSelection_UnknownPlan(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userID := createTestUser(t, db, "ent-unknown@example.com")

	svc := NewServiceFromDB(db)
	if _, err := svc.ApplyPlanSelection(context.Background(), userID, "gold-tier"); err == nil {
		t.Fatalf("expected error for unknown plan")
	}
}

func TestAddCredits(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userID := createTestUser(t, db, "ent-credits@example.com")
	createTestProfile(t, db, userID, "explorer", 1)

	svc := NewServiceFromDB(db)
	if err := svc.AddCredits(context.Background(), userID, 10); err != nil {
		t.Fatalf("failed to add credits: %v", err)
	}

	ent, err := svc.GetEntitlement(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to load entitlement: %v", err)
	}
	if ent.CreditsBalance != 11 {
		t.Fatalf("credits_balance = %d, want 11", ent.CreditsBalance)
	}
}
