package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/settleflow/payment-orchestrator/internal/database"
	"github.com/settleflow/payment-orchestrator/internal/telemetry"
	"github.com/settleflow/payment-orchestrator/internal/webhooks/domain"
	"github.com/settleflow/payment-orchestrator/internal/webhooks/ports"
)

// ObservableLedger decorates an EventLedger with spans and query metrics.
type ObservableLedger struct {
	ledger  ports.EventLedger
	metrics *database.Metrics
}

func NewObservableLedger(ledger ports.EventLedger, metrics *database.Metrics) *ObservableLedger {
	return &ObservableLedger{
		ledger:  ledger,
		metrics: metrics,
	}
}

func (l *ObservableLedger) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "EventLedger.ExistsByEventID")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("event.id", eventID),
		attribute.String("operation", "exists_by_event_id"),
	)

	start := time.Now()
	exists, err := l.ledger.ExistsByEventID(ctx, eventID)
	duration := time.Since(start).Seconds()

	l.metrics.RecordQuery(ctx, "exists_webhook_event", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return false, err
	}

	telemetry.SetSpanSuccess(span)
	return exists, nil
}

func (l *ObservableLedger) CheckAndCreate(ctx context.Context, event domain.Event) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "EventLedger.CheckAndCreate")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("event.id", event.EventID),
		attribute.String("event.type", event.EventType),
		attribute.String("operation", "check_and_create"),
	)

	start := time.Now()
	created, err := l.ledger.CheckAndCreate(ctx, event)
	duration := time.Since(start).Seconds()

	l.metrics.RecordQuery(ctx, "check_and_create_webhook_event", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Bool("event.duplicate", created == nil))
	telemetry.SetSpanSuccess(span)
	return created, nil
}

func (l *ObservableLedger) MarkProcessed(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventLedger.MarkProcessed")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("event.ledger_id", id),
		attribute.String("operation", "mark_processed"),
	)

	start := time.Now()
	err := l.ledger.MarkProcessed(ctx, id)
	duration := time.Since(start).Seconds()

	l.metrics.RecordQuery(ctx, "mark_webhook_event_processed", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (l *ObservableLedger) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventLedger.MarkFailed")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("event.ledger_id", id),
		attribute.String("operation", "mark_failed"),
	)

	start := time.Now()
	err := l.ledger.MarkFailed(ctx, id, errorMessage)
	duration := time.Since(start).Seconds()

	l.metrics.RecordQuery(ctx, "mark_webhook_event_failed", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
