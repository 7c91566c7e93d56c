package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/linklocker/LinkLocker/internal/pkg/cache"
)

// ChannelMutations is the Redis pub/sub channel the external realtime relay
// subscribes to. The core only emits; fan-out to clients happens elsewhere.
const ChannelMutations = "linklocker:mutations"

// Event types emitted on state changes.
const (
	EventLinkCreated        = "link.created"
	EventLinkViewed         = "link.viewed"
	EventLinkDeleted        = "link.deleted"
	EventEntitlementUpdated = "entitlement.updated"
)

// Event is a single mutation notification. Delivery is best-effort and
// unordered; consumers needing current state must re-read it.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	AccountID uint      `json:"account_id,omitempty"`
	LinkID    string    `json:"link_id,omitempty"`
	At        time.Time `json:"at"`
}

// Publish emits a mutation event. Failures are logged and swallowed; the
// relay is an observer, never part of the mutation's success.
func Publish(ctx context.Context, eventType string, accountID uint, linkID string) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AccountID: accountID,
		LinkID:    linkID,
		At:        time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Warnf("[Events] failed to marshal %s event: %v", eventType, err)
		return
	}

	if err := cache.GetClient().Publish(ctx, ChannelMutations, payload).Err(); err != nil {
		log.Warnf("[Events] failed to publish %s event: %v", eventType, err)
	}
}
