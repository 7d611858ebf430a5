package memory

import (
	"context"
	"sync"
	"time"

	"github.com/settleflow/payment-orchestrator/internal/webhooks/domain"
	"github.com/settleflow/payment-orchestrator/internal/webhooks/ports"
)

// Ledger keeps webhook events in memory, keyed by provider event id.
// Useful for local dev and unit tests before wiring Postgres.
type Ledger struct {
	mu     sync.Mutex
	events map[string]domain.Event
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{events: make(map[string]domain.Event)}
}

func (l *Ledger) ExistsByEventID(_ context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.events[eventID]
	return ok, nil
}

func (l *Ledger) CheckAndCreate(_ context.Context, event domain.Event) (*domain.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.events[event.EventID]; ok {
		return nil, nil
	}

	l.events[event.EventID] = event
	created := event
	return &created, nil
}

func (l *Ledger) MarkProcessed(_ context.Context, id string) error {
	return l.update(id, func(event *domain.Event) {
		now := time.Now().UTC()
		event.Processed = true
		event.ProcessedAt = &now
		event.UpdatedAt = now
	})
}

func (l *Ledger) MarkFailed(_ context.Context, id string, errorMessage string) error {
	return l.update(id, func(event *domain.Event) {
		now := time.Now().UTC()
		event.Processed = true
		event.ErrorMessage = errorMessage
		event.ProcessedAt = &now
		event.UpdatedAt = now
	})
}

func (l *Ledger) update(id string, apply func(*domain.Event)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for eventID, event := range l.events {
		if event.ID == id {
			apply(&event)
			l.events[eventID] = event
			return nil
		}
	}
	return ports.ErrNotFound
}

// GetByEventID returns a copy of the stored event, if present. Test helper.
func (l *Ledger) GetByEventID(eventID string) (domain.Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	event, ok := l.events[eventID]
	return event, ok
}
