package entitlement

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/linklocker/LinkLocker/app/models"
)

// Entitlement is the caller-facing view of an account's ledger row.
type Entitlement struct {
	AccountID         uint
	PlanID            string
	PlanName          string
	Allowance         Allowance
	AllowsFileUpload  bool
	MaxExpirationDays *int
	LinksCreated      uint
	CreditsBalance    uint
	BillingCycleStart *time.Time
}

// Service is the entitlement ledger: the single source of truth for what an
// account may spend and how much it already has.
type Service struct {
	repo Repository
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// GetEntitlement loads the ledger row for an account. Accounts that never
// selected a plan get ErrNoPlanSelected.
func (s *Service) GetEntitlement(ctx context.Context, accountID uint) (*Entitlement, error) {
	_ = ctx
	profile, err := s.repo.GetProfile(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPlanSelected
		}
		return nil, err
	}
	return s.toEntitlement(profile)
}

func (s *Service) toEntitlement(profile *models.Profile) (*Entitlement, error) {
	if !profile.HasPlan() {
		return nil, ErrNoPlanSelected
	}
	plan := profile.Plan
	if plan == nil {
		loaded, err := s.repo.GetPlan(*profile.PlanID)
		if err != nil {
			return nil, err
		}
		plan = loaded
	}

	return &Entitlement{
		AccountID:         profile.UserID,
		PlanID:            plan.ID,
		PlanName:          plan.Name,
		Allowance:         AllowanceFromLimit(plan.LinksLimit),
		AllowsFileUpload:  plan.AllowsFileUpload(),
		MaxExpirationDays: plan.MaxExpirationDays,
		LinksCreated:      profile.LinksCreated,
		CreditsBalance:    profile.CreditsBalance,
		BillingCycleStart: profile.BillingCycleStart,
	}, nil
}

// ApplyPlanSelection sets the account's plan and restamps the billing cycle
// start. Re-selecting the current plan is a no-op on counters but still
// restamps the cycle. links_created is never reset here.
func (s *Service) ApplyPlanSelection(ctx context.Context, accountID uint, planID string) (*Entitlement, error) {
	_ = ctx
	plan, err := s.repo.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetOrCreateProfile(accountID); err != nil {
		return nil, err
	}
	if err := s.repo.SelectPlan(accountID, plan.ID, time.Now()); err != nil {
		return nil, err
	}

	profile, err := s.repo.GetProfile(accountID)
	if err != nil {
		return nil, err
	}
	return s.toEntitlement(profile)
}

// AddCredits atomically grants purchased credits to the account.
func (s *Service) AddCredits(ctx context.Context, accountID uint, credits uint) error {
	_ = ctx
	if credits == 0 {
		return nil
	}
	if _, err := s.repo.GetOrCreateProfile(accountID); err != nil {
		return err
	}
	return s.repo.AddCredits(accountID, credits)
}
