package ports

import (
	"context"
	"errors"

	"github.com/settleflow/payment-orchestrator/internal/webhooks/domain"
)

// EventLedger is the durable, uniqueness-enforcing store of processed
// notification identities. CheckAndCreate is the exactly-once boundary:
// everything downstream assumes at most one invocation per distinct event id.
type EventLedger interface {
	// ExistsByEventID reports whether an event with the given provider id
	// has already been recorded.
	ExistsByEventID(ctx context.Context, eventID string) (bool, error)

	// CheckAndCreate atomically records the event on first sight. It returns
	// (nil, nil) when the event id is already present, including when a
	// concurrent insert wins the race at the storage layer. Any returned
	// error is a storage fault, not a duplicate.
	CheckAndCreate(ctx context.Context, event domain.Event) (*domain.Event, error)

	// MarkProcessed flags the event as handled.
	MarkProcessed(ctx context.Context, id string) error

	// MarkFailed flags the event as handled with a terminal error message.
	MarkFailed(ctx context.Context, id string, errorMessage string) error
}

var (
	// ErrNotFound is returned when the requested event does not exist.
	ErrNotFound = errors.New("webhook event not found")
)
