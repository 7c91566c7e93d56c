package entitlement

import "context"

// FundingSource records which pool paid for a link creation.
type FundingSource string

const (
	FundingPlan   FundingSource = "plan"
	FundingCredit FundingSource = "credit"
)

// ReserveLinkSlot is the ledger's one mutating read-modify-write: it decides
// whether a new link may be created and consumes the winning funding source.
// Concurrent reservations for the same account cannot both succeed on the
// last remaining slot because both counter mutations are conditional
// single-statement updates decided by rows-affected.
func (s *Service) ReserveLinkSlot(ctx context.Context, accountID uint) (FundingSource, error) {
	ent, err := s.GetEntitlement(ctx, accountID)
	if err != nil {
		return "", err
	}

	// Unlimited plans authorize immediately; no counters change.
	if ent.Allowance.IsUnlimited() {
		return FundingPlan, nil
	}

	ok, err := s.repo.IncrementLinksCreatedBelow(accountID, ent.Allowance.Limit())
	if err != nil {
		return "", err
	}
	if ok {
		return FundingPlan, nil
	}

	ok, err = s.repo.SpendCredit(accountID)
	if err != nil {
		return "", err
	}
	if ok {
		return FundingCredit, nil
	}

	return "", &QuotaExhaustedError{PlanName: ent.PlanName, Limit: ent.Allowance.Limit()}
}

// AuthorizeCreation is the gatekeeper in front of link persistence. File
// uploads are rejected early on plans that only allow URL links; everything
// else runs through ReserveLinkSlot. A consumed slot is not refunded when the
// subsequent persist fails.
func (s *Service) AuthorizeCreation(ctx context.Context, accountID uint, fileUpload bool) (FundingSource, error) {
	if fileUpload {
		ent, err := s.GetEntitlement(ctx, accountID)
		if err != nil {
			return "", err
		}
		if !ent.AllowsFileUpload {
			return "", ErrUploadNotAllowed
		}
	}
	return s.ReserveLinkSlot(ctx, accountID)
}
