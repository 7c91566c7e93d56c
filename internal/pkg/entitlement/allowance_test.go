package entitlement

import "testing"

func TestAllowanceFromLimit(t *testing.T) {
	t.Parallel()

	if a := AllowanceFromLimit(-1); !a.IsUnlimited() {
		t.Fatalf("expected negative stored limit to be unlimited")
	}
	if a := AllowanceFromLimit(0); a.IsUnlimited() {
		t.Fatalf("a zero cap must stay a finite cap, not unlimited")
	}
	if a := AllowanceFromLimit(5); a.IsUnlimited() || a.Limit() != 5 {
		t.Fatalf("expected finite allowance of 5, got %s", a)
	}
}

func TestAllowancePermits(t *testing.T) {
	t.Parallel()

	if !Unlimited().Permits(1 << 30) {
		t.Fatalf("unlimited must permit any usage")
	}

	five := LimitOf(5)
	if !five.Permits(0) || !five.Permits(4) {
		t.Fatalf("cap of 5 must permit usage below 5")
	}
	if five.Permits(5) || five.Permits(6) {
		t.Fatalf("cap of 5 must refuse usage at or above 5")
	}

	if LimitOf(0).Permits(0) {
		t.Fatalf("cap of 0 must refuse the first link")
	}
}

func TestAllowanceString(t *testing.T) {
	t.Parallel()

	if got := Unlimited().String(); got != "unlimited" {
		t.Fatalf("expected unlimited, got %q", got)
	}
	if got := LimitOf(3).String(); got != "3" {
		t.Fatalf("expected 3, got %q", got)
	}
}
