package controllers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/linklocker/LinkLocker/app/models"
	"github.com/linklocker/LinkLocker/internal/pkg/database"
	"github.com/linklocker/LinkLocker/internal/pkg/env"
	"github.com/linklocker/LinkLocker/internal/pkg/events"
	"github.com/linklocker/LinkLocker/internal/pkg/settlement"
)

// Metadata travels with the checkout session and names what was bought. The
// processor echoes it back verbatim on confirmation.
type checkoutMetadata struct {
	UserID       string `json:"user_id"`
	PurchaseType string `json:"purchase_type"`
	PlanID       string `json:"plan_id"`
	Credits      string `json:"credits"`
}

type cardWebhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID          string           `json:"id"`
			AmountTotal int64            `json:"amount_total"`
			Metadata    checkoutMetadata `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

type cryptoWebhookPayload struct {
	ID    string `json:"id"`
	Event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Code     string           `json:"code"`
			Metadata checkoutMetadata `json:"metadata"`
			Pricing  struct {
				Local struct {
					Amount string `json:"amount"`
				} `json:"local"`
			} `json:"pricing"`
		} `json:"data"`
	} `json:"event"`
}

// HandleCardWebhook receives card-processor confirmations. Signature check,
// audit record, settle. The settlement layer makes redeliveries no-ops, so
// this handler never needs to reason about retries.
func HandleCardWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	valid := settlement.VerifyCardWebhookSignature(payload, signature, secret, time.Now())

	var event cardWebhookPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Malformed webhook payload")
	}

	svc := settlement.NewServiceFromDB(database.GetDB())
	_, record, err := svc.RecordWebhookEvent(c.Context(), settlement.WebhookEventInput{
		Provider:        models.PaymentMethodStripe,
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(payload),
		SignatureValid:  valid,
	})
	if err != nil {
		log.Errorf("[Webhook] failed to record card event %s: %v", event.ID, err)
	}

	if !valid {
		log.Warnf("[Webhook] rejected card webhook with bad signature (event=%s)", event.ID)
		return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "Signature verification failed")
	}

	if event.Type != "checkout.session.completed" {
		return c.JSON(fiber.Map{"received": true})
	}

	settleErr := dispatchSettlement(c, svc, event.Data.Object.Metadata,
		event.Data.Object.ID, event.Data.Object.AmountTotal, models.PaymentMethodStripe)

	if record != nil {
		if err := svc.MarkWebhookProcessed(c.Context(), record.ID, settleErr); err != nil {
			log.Warnf("[Webhook] failed to mark card event processed: %v", err)
		}
	}
	if settleErr != nil {
		log.Errorf("[Webhook] card settlement failed (ref=%s): %v", event.Data.Object.ID, settleErr)
		// Non-2xx makes the processor redeliver; the released claim lets the
		// retry settle cleanly.
		return jsonError(c, fiber.StatusInternalServerError, "settlement_failed", "Settlement failed, retry expected")
	}
	return c.JSON(fiber.Map{"received": true})
}

// HandleCryptoWebhook receives crypto-processor confirmations, same flow as
// the card handler with the processor's own signature scheme and payload shape.
func HandleCryptoWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("X-CC-Webhook-Signature")
	secret := env.GetEnv("COINBASE_WEBHOOK_SECRET", "")

	valid := settlement.VerifyCryptoWebhookSignature(payload, signature, secret)

	var event cryptoWebhookPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Malformed webhook payload")
	}

	svc := settlement.NewServiceFromDB(database.GetDB())
	_, record, err := svc.RecordWebhookEvent(c.Context(), settlement.WebhookEventInput{
		Provider:        models.PaymentMethodCoinbase,
		ProviderEventID: event.Event.ID,
		EventType:       event.Event.Type,
		PayloadJSON:     string(payload),
		SignatureValid:  valid,
	})
	if err != nil {
		log.Errorf("[Webhook] failed to record crypto event %s: %v", event.Event.ID, err)
	}

	if !valid {
		log.Warnf("[Webhook] rejected crypto webhook with bad signature (event=%s)", event.Event.ID)
		return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "Signature verification failed")
	}

	if event.Event.Type != "charge:confirmed" {
		return c.JSON(fiber.Map{"received": true})
	}

	amountCents := parseAmountCents(event.Event.Data.Pricing.Local.Amount)
	settleErr := dispatchSettlement(c, svc, event.Event.Data.Metadata,
		event.Event.Data.Code, amountCents, models.PaymentMethodCoinbase)

	if record != nil {
		if err := svc.MarkWebhookProcessed(c.Context(), record.ID, settleErr); err != nil {
			log.Warnf("[Webhook] failed to mark crypto event processed: %v", err)
		}
	}
	if settleErr != nil {
		log.Errorf("[Webhook] crypto settlement failed (ref=%s): %v", event.Event.Data.Code, settleErr)
		return jsonError(c, fiber.StatusInternalServerError, "settlement_failed", "Settlement failed, retry expected")
	}
	return c.JSON(fiber.Map{"received": true})
}

// dispatchSettlement routes a confirmed payment to the right ledger mutation
// based on the echoed metadata.
func dispatchSettlement(c *fiber.Ctx, svc *settlement.Service, meta checkoutMetadata, externalRef string, amountCents int64, method string) error {
	userID, err := strconv.ParseUint(strings.TrimSpace(meta.UserID), 10, 64)
	if err != nil || userID == 0 {
		return errors.New("webhook metadata missing a valid user_id")
	}

	switch meta.PurchaseType {
	case "subscription":
		_, err := svc.SettleSubscription(c.Context(), settlement.SubscriptionSettlement{
			AccountID:         uint(userID),
			PlanID:            meta.PlanID,
			AmountCents:       amountCents,
			PaymentMethod:     method,
			ExternalReference: externalRef,
		})
		if err == nil {
			events.Publish(c.Context(), events.EventEntitlementUpdated, uint(userID), "")
		}
		return err
	case "top_up":
		credits, convErr := strconv.ParseUint(strings.TrimSpace(meta.Credits), 10, 32)
		if convErr != nil || credits == 0 {
			return errors.New("webhook metadata missing a valid credits amount")
		}
		_, err := svc.SettleTopUp(c.Context(), settlement.TopUpSettlement{
			AccountID:         uint(userID),
			CreditsGranted:    uint(credits),
			AmountCents:       amountCents,
			PaymentMethod:     method,
			ExternalReference: externalRef,
		})
		if err == nil {
			events.Publish(c.Context(), events.EventEntitlementUpdated, uint(userID), "")
		}
		return err
	default:
		return errors.New("webhook metadata has unknown purchase_type " + strconv.Quote(meta.PurchaseType))
	}
}

// parseAmountCents converts a decimal money string like "9.99" to cents.
// Unparseable amounts settle as zero; the audit payload keeps the original.
func parseAmountCents(amount string) int64 {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0
	}
	f, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0
	}
	return int64(f*100 + 0.5)
}
