package linkgate

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/linklocker/LinkLocker/app/models"
)

// State is a terminal or waiting outcome of a visit. Expired and NotFound are
// expected, common outcomes, so they are states rather than errors.
type State string

const (
	StateNotFound         State = "not_found"
	StateExpired          State = "expired"
	StatePasswordRequired State = "password_required"
	StateGranted          State = "granted"
)

// Result describes where the visitor stands. TargetURL is only revealed on
// Granted; everything else is safe to show while a password is pending.
type Result struct {
	State     State  `json:"state"`
	Title     string `json:"title,omitempty"`
	TargetURL string `json:"target_url,omitempty"`
	ViewCount uint   `json:"view_count,omitempty"`
}

// Store is the minimal link-store surface the gate needs. RecordView must be
// an atomic increment; concurrent visitors must not lose updates.
type Store interface {
	GetByID(id string) (*models.Link, error)
	RecordView(id string) error
}

// Gate is the per-visit state machine in front of a protected link:
// existence check, expiration check, password check, view recording.
// Each visit starts fresh; prior authentications are not remembered.
type Gate struct {
	store Store
	now   func() time.Time
}

// NewGate creates a gate over the given link store.
func NewGate(store Store) *Gate {
	return &Gate{store: store, now: time.Now}
}

// Visit runs the machine without a password: the outcome is NotFound,
// Expired, PasswordRequired, or Granted (for unprotected links, recording
// exactly one view).
func (g *Gate) Visit(ctx context.Context, linkID string) (*Result, error) {
	return g.enter(ctx, linkID, nil)
}

// SubmitPassword runs the machine with a submitted password. A wrong password
// stays in PasswordRequired and is not counted as a view. Expiration is
// checked before the password, so a correct password never revives an
// expired link.
func (g *Gate) SubmitPassword(ctx context.Context, linkID, password string) (*Result, error) {
	return g.enter(ctx, linkID, &password)
}

func (g *Gate) enter(ctx context.Context, linkID string, password *string) (*Result, error) {
	_ = ctx
	link, err := g.store.GetByID(linkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Result{State: StateNotFound}, nil
		}
		return nil, err
	}

	if link.IsExpired(g.now()) {
		return &Result{State: StateExpired, Title: link.Title}, nil
	}

	if link.HasPassword() {
		if password == nil || !link.CheckPassword(*password) {
			return &Result{State: StatePasswordRequired, Title: link.Title}, nil
		}
	}

	if err := g.store.RecordView(link.ID); err != nil {
		return nil, err
	}

	return &Result{
		State:     StateGranted,
		Title:     link.Title,
		TargetURL: link.TargetURL,
		ViewCount: link.ViewCount + 1,
	}, nil
}
