package entitlement

import "fmt"

// Allowance is the tagged link-creation allowance of a plan: either unlimited
// or a finite cap. The stored -1 sentinel never leaks past AllowanceFromLimit,
// and a cap of 0 ("no links allowed") stays distinguishable from unlimited.
type Allowance struct {
	unlimited bool
	limit     int
}

// Unlimited returns the allowance of plans without a link cap.
func Unlimited() Allowance {
	return Allowance{unlimited: true}
}

// LimitOf returns a finite allowance of n links per cycle.
func LimitOf(n int) Allowance {
	if n < 0 {
		n = 0
	}
	return Allowance{limit: n}
}

// AllowanceFromLimit converts a stored links_limit column value into a tagged
// allowance. Negative values are the unlimited sentinel.
func AllowanceFromLimit(raw int) Allowance {
	if raw < 0 {
		return Unlimited()
	}
	return LimitOf(raw)
}

// IsUnlimited reports whether the allowance has no cap.
func (a Allowance) IsUnlimited() bool {
	return a.unlimited
}

// Limit returns the finite cap. Only meaningful when IsUnlimited is false.
func (a Allowance) Limit() int {
	return a.limit
}

// Permits reports whether one more link may be created after `used` links
// have already been counted this cycle.
func (a Allowance) Permits(used uint) bool {
	if a.unlimited {
		return true
	}
	return used < uint(a.limit)
}

func (a Allowance) String() string {
	if a.unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", a.limit)
}
