package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/linklocker/LinkLocker/app/repository"
	"github.com/linklocker/LinkLocker/internal/pkg/database"
	"github.com/linklocker/LinkLocker/internal/pkg/entitlement"
	"github.com/linklocker/LinkLocker/internal/pkg/events"
	"github.com/linklocker/LinkLocker/internal/pkg/usercontext"
)

// HandleListPlans returns the plan catalog, cheapest first. Public: the
// pricing page renders from this.
func HandleListPlans(c *fiber.Ctx) error {
	planRepo := repository.GetGlobalFactory().GetPlanRepository()
	plans, err := planRepo.GetAll()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load plans")
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleGetEntitlement returns the authenticated user's ledger view: plan,
// usage, and credit balance.
func HandleGetEntitlement(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	ledger := entitlement.NewServiceFromDB(database.GetDB())

	ent, err := ledger.GetEntitlement(c.Context(), userCtx.UserID)
	if err != nil {
		if errors.Is(err, entitlement.ErrNoPlanSelected) {
			return jsonError(c, fiber.StatusNotFound, "no_plan_selected", "No plan selected yet")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load entitlement")
	}

	return c.JSON(entitlementResponse(ent))
}

type selectPlanRequest struct {
	PlanID string `json:"plan_id"`
}

// HandleSelectPlan starts a plan change. Free plans apply immediately; paid
// plans only change the ledger once the payment processor confirms via
// webhook, so the response here is a checkout handoff, not a grant.
func HandleSelectPlan(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req selectPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}
	req.PlanID = strings.TrimSpace(req.PlanID)
	if req.PlanID == "" {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", "plan_id is required")
	}

	planRepo := repository.GetGlobalFactory().GetPlanRepository()
	plan, err := planRepo.GetByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "unknown_plan", "Unknown plan")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load plan")
	}

	if !plan.IsFree() {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status":      "checkout_required",
			"plan_id":     plan.ID,
			"price_cents": plan.PriceCents,
		})
	}

	ledger := entitlement.NewServiceFromDB(database.GetDB())
	ent, err := ledger.ApplyPlanSelection(c.Context(), userCtx.UserID, plan.ID)
	if err != nil {
		log.Errorf("[PlanController] plan selection failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to apply plan selection")
	}

	events.Publish(c.Context(), events.EventEntitlementUpdated, userCtx.UserID, "")
	return c.JSON(entitlementResponse(ent))
}

// HandleListTransactions returns the user's settlement audit trail.
func HandleListTransactions(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit := getPagination(c)

	txRepo := repository.GetGlobalFactory().GetTransactionRepository()
	transactions, err := txRepo.GetByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load transactions")
	}
	return c.JSON(fiber.Map{"transactions": transactions})
}

// entitlementResponse flattens the ledger view for JSON. Unlimited plans
// report links_limit null rather than leaking a sentinel number.
func entitlementResponse(ent *entitlement.Entitlement) fiber.Map {
	var linksLimit interface{}
	if !ent.Allowance.IsUnlimited() {
		linksLimit = ent.Allowance.Limit()
	}
	return fiber.Map{
		"plan_id":             ent.PlanID,
		"plan_name":           ent.PlanName,
		"unlimited_links":     ent.Allowance.IsUnlimited(),
		"links_limit":         linksLimit,
		"links_created":       ent.LinksCreated,
		"credits_balance":     ent.CreditsBalance,
		"allows_file_upload":  ent.AllowsFileUpload,
		"max_expiration_days": ent.MaxExpirationDays,
		"billing_cycle_start": ent.BillingCycleStart,
	}
}
