package commerce

import (
	"context"
	"log/slog"
	"time"

	"github.com/settleflow/payment-orchestrator/internal/commerce/metrics"
	"github.com/settleflow/payment-orchestrator/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableOrchestrator struct {
	inner   Settler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableOrchestrator(inner Settler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableOrchestrator {
	return &ObservableOrchestrator{
		inner:   inner,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableOrchestrator) Settle(ctx context.Context, cartID string) *SettlementResult {
	ctx, span := telemetry.StartSpan(ctx, "SettlementOrchestrator.Settle")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("cart.id", cartID))

	start := time.Now()
	result := o.inner.Settle(ctx, cartID)
	duration := time.Since(start).Seconds()

	o.metrics.RecordSettlementDuration(ctx, duration)
	o.metrics.RecordSettlement(ctx, result != nil)

	if result == nil {
		o.logger.ErrorContext(ctx, "settlement aborted", "cart_id", cartID)
		telemetry.AddSpanAttributes(span, attribute.Bool("settlement.aborted", true))
		return nil
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", result.OrderID),
		attribute.String("payment.id", result.PaymentID),
	)
	telemetry.SetSpanSuccess(span)

	return result
}
