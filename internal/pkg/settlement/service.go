package settlement

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/linklocker/LinkLocker/app/models"
)

// Service converts confirmed payment events into ledger state changes,
// exactly once per external reference. Which processor delivered the
// confirmation is irrelevant here; signature verification happens before the
// service is invoked.
type Service struct {
	repo Repository
}

// NewService creates a settlement service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a settlement service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// SettleSubscription applies a confirmed subscription payment: plan selection
// plus one completed transaction record. Redeliveries of the same external
// reference are no-ops. The claim on the reference and the ledger mutation
// share one database transaction; a failed mutation releases the claim so
// the provider's retry can settle cleanly rather than double-applying.
func (s *Service) SettleSubscription(ctx context.Context, in SubscriptionSettlement) (*Result, error) {
	_ = ctx
	if in.AccountID == 0 || strings.TrimSpace(in.PlanID) == "" || strings.TrimSpace(in.ExternalReference) == "" {
		return nil, errors.New("account_id, plan_id and external_reference are required")
	}

	res := &Result{}
	err := s.repo.WithinTransaction(func(r Repository) error {
		plan, err := r.GetPlan(in.PlanID)
		if err != nil {
			return fmt.Errorf("unknown plan %q: %w", in.PlanID, err)
		}

		planID := plan.ID
		record := &models.Transaction{
			UserID:            in.AccountID,
			AmountCents:       in.AmountCents,
			Kind:              models.TransactionKindSubscription,
			PaymentMethod:     in.PaymentMethod,
			Status:            models.TransactionStatusCompleted,
			ExternalReference: strings.TrimSpace(in.ExternalReference),
			PlanID:            &planID,
		}
		created, err := r.CreateTransactionIfNotExists(record)
		if err != nil {
			return err
		}
		if !created {
			res.Duplicate = true
			return nil
		}
		res.Transaction = record

		if err := r.EnsureProfile(in.AccountID); err != nil {
			return err
		}
		return r.SelectPlan(in.AccountID, plan.ID, time.Now())
	})
	if err != nil {
		return nil, err
	}

	if res.Duplicate {
		log.Infof("[Settlement] duplicate subscription settlement ignored: ref=%s account=%d", in.ExternalReference, in.AccountID)
	}
	return res, nil
}

// SettleTopUp applies a confirmed credit purchase: an atomic credit grant
// plus one completed transaction record, with the same idempotency and
// transaction semantics as SettleSubscription.
func (s *Service) SettleTopUp(ctx context.Context, in TopUpSettlement) (*Result, error) {
	_ = ctx
	if in.AccountID == 0 || in.CreditsGranted == 0 || strings.TrimSpace(in.ExternalReference) == "" {
		return nil, errors.New("account_id, credits_granted and external_reference are required")
	}

	res := &Result{}
	err := s.repo.WithinTransaction(func(r Repository) error {
		credits := in.CreditsGranted
		record := &models.Transaction{
			UserID:            in.AccountID,
			AmountCents:       in.AmountCents,
			Kind:              models.TransactionKindTopUp,
			PaymentMethod:     in.PaymentMethod,
			Status:            models.TransactionStatusCompleted,
			ExternalReference: strings.TrimSpace(in.ExternalReference),
			CreditsGranted:    &credits,
		}
		created, err := r.CreateTransactionIfNotExists(record)
		if err != nil {
			return err
		}
		if !created {
			res.Duplicate = true
			return nil
		}
		res.Transaction = record

		if err := r.EnsureProfile(in.AccountID); err != nil {
			return err
		}
		return r.AddCredits(in.AccountID, in.CreditsGranted)
	})
	if err != nil {
		return nil, err
	}

	if res.Duplicate {
		log.Infof("[Settlement] duplicate top-up settlement ignored: ref=%s account=%d", in.ExternalReference, in.AccountID)
	}
	return res, nil
}

// RecordWebhookEvent persists raw webhook payloads idempotently for audit.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.PaymentWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
