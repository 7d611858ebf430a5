package ports

import "context"

// EventBus publishes webhook lifecycle events for downstream consumers.
type EventBus interface {
	PublishNotificationReceived(ctx context.Context, eventID string) error
	PublishSettlementCompleted(ctx context.Context, eventID string, orderID string) error
	PublishSettlementFailed(ctx context.Context, eventID string, reason string) error
}
