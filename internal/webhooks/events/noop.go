package events

import (
	"context"
	"log/slog"
)

// NoopPublisher logs lifecycle events without sending them to a broker.
// Placeholder until a downstream consumer needs a real bus.
type NoopPublisher struct{}

// NewNoopPublisher returns a new no-op lifecycle publisher.
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (n *NoopPublisher) PublishNotificationReceived(_ context.Context, eventID string) error {
	slog.Debug("event::notification_received", "event_id", eventID)
	return nil
}

func (n *NoopPublisher) PublishSettlementCompleted(_ context.Context, eventID string, orderID string) error {
	slog.Debug("event::settlement_completed", "event_id", eventID, "order_id", orderID)
	return nil
}

func (n *NoopPublisher) PublishSettlementFailed(_ context.Context, eventID string, reason string) error {
	slog.Debug("event::settlement_failed", "event_id", eventID, "reason", reason)
	return nil
}
