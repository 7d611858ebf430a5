package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	settlementsTotal   metric.Int64Counter
	settlementDuration metric.Float64Histogram
	authRefreshesTotal metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.settlementsTotal, err = meter.Int64Counter(
		"settlements_total",
		metric.WithDescription("Total number of settlement saga runs"),
		metric.WithUnit("{settlement}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create settlements_total counter: %w", err)
	}

	m.settlementDuration, err = meter.Float64Histogram(
		"settlement_duration_seconds",
		metric.WithDescription("Duration of settlement saga runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create settlement_duration histogram: %w", err)
	}

	m.authRefreshesTotal, err = meter.Int64Counter(
		"commerce_auth_refreshes_total",
		metric.WithDescription("Total number of commerce token refreshes"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create commerce_auth_refreshes_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordSettlement(ctx context.Context, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.settlementsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordSettlementDuration(ctx context.Context, durationSeconds float64) {
	m.settlementDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordAuthRefresh(ctx context.Context) {
	m.authRefreshesTotal.Add(ctx, 1)
}
