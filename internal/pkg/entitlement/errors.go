package entitlement

import (
	"errors"
	"fmt"
)

// ErrNoPlanSelected marks an account that has not completed onboarding.
// Callers should route the user to plan selection.
var ErrNoPlanSelected = errors.New("no plan selected")

// ErrUploadNotAllowed marks a file-backed creation request on a plan that
// only permits URL links.
var ErrUploadNotAllowed = errors.New("plan does not allow file uploads")

// QuotaExhaustedError is returned when neither plan quota nor credits can
// fund another link creation. It carries enough detail for the caller to
// offer an upgrade or top-up.
type QuotaExhaustedError struct {
	PlanName string
	Limit    int
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("link quota exhausted: plan %s allows %d links and no credits remain", e.PlanName, e.Limit)
}

// IsQuotaExhausted reports whether err is a quota refusal.
func IsQuotaExhausted(err error) bool {
	var qe *QuotaExhaustedError
	return errors.As(err, &qe)
}
