package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	notificationsTotal metric.Int64Counter
	duplicatesTotal    metric.Int64Counter
	intakeDuration     metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.notificationsTotal, err = meter.Int64Counter(
		"webhook_notifications_total",
		metric.WithDescription("Total number of PSP notifications received"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create webhook_notifications_total counter: %w", err)
	}

	m.duplicatesTotal, err = meter.Int64Counter(
		"webhook_duplicates_total",
		metric.WithDescription("Total number of duplicate PSP notifications"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create webhook_duplicates_total counter: %w", err)
	}

	m.intakeDuration, err = meter.Float64Histogram(
		"webhook_intake_duration_seconds",
		metric.WithDescription("Duration of webhook intake handling"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create webhook_intake_duration histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordNotification(ctx context.Context, eventType string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.notificationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordDuplicate(ctx context.Context, eventType string) {
	m.duplicatesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}

func (m *Metrics) RecordIntakeDuration(ctx context.Context, durationSeconds float64) {
	m.intakeDuration.Record(ctx, durationSeconds)
}
