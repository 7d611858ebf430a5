package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func TestStartSpan(t *testing.T) {
	t.Run("records span with the given name", func(t *testing.T) {
		exp, cleanup := setupTracerProvider(t)
		defer cleanup()

		ctx, span := StartSpan(context.Background(), "SettlementOrchestrator.Settle")
		span.End()

		spans := exp.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("expected 1 span, got %d", len(spans))
		}
		if spans[0].Name != "SettlementOrchestrator.Settle" {
			t.Errorf("expected span name SettlementOrchestrator.Settle, got %q", spans[0].Name)
		}
		if TraceID(ctx) == "" {
			t.Error("expected context to carry the trace id")
		}
	})

	t.Run("nests child spans under the parent trace", func(t *testing.T) {
		exp, cleanup := setupTracerProvider(t)
		defer cleanup()

		ctx, parent := StartSpan(context.Background(), "WebhookIntake.Handle")
		_, child := StartSpan(ctx, "EventLedger.CheckAndCreate")
		child.End()
		parent.End()

		spans := exp.GetSpans()
		if len(spans) != 2 {
			t.Fatalf("expected 2 spans, got %d", len(spans))
		}
		if spans[0].SpanContext.TraceID() != spans[1].SpanContext.TraceID() {
			t.Error("expected child span to share the parent trace id")
		}
	})
}

func TestAddSpanAttributes(t *testing.T) {
	t.Run("attaches attributes to the span", func(t *testing.T) {
		exp, cleanup := setupTracerProvider(t)
		defer cleanup()

		_, span := StartSpan(context.Background(), "SettlementOrchestrator.Settle")
		AddSpanAttributes(span,
			attribute.String("cart.id", "cart_123"),
			attribute.String("order.id", "order_456"),
		)
		span.End()

		spans := exp.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("expected 1 span, got %d", len(spans))
		}

		attrs := map[attribute.Key]attribute.Value{}
		for _, attr := range spans[0].Attributes {
			attrs[attr.Key] = attr.Value
		}
		if attrs["cart.id"].AsString() != "cart_123" {
			t.Errorf("expected cart.id attribute, got %v", attrs["cart.id"])
		}
		if attrs["order.id"].AsString() != "order_456" {
			t.Errorf("expected order.id attribute, got %v", attrs["order.id"])
		}
	})

	t.Run("tolerates nil span", func(t *testing.T) {
		AddSpanAttributes(nil, attribute.String("cart.id", "cart_123"))
	})
}

func TestAddSpanEvent(t *testing.T) {
	t.Run("records the event with attributes", func(t *testing.T) {
		exp, cleanup := setupTracerProvider(t)
		defer cleanup()

		_, span := StartSpan(context.Background(), "WebhookIntake.Handle")
		AddSpanEvent(span, "duplicate_detected", attribute.String("event.id", "evt_123"))
		span.End()

		spans := exp.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("expected 1 span, got %d", len(spans))
		}
		if len(spans[0].Events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(spans[0].Events))
		}
		if spans[0].Events[0].Name != "duplicate_detected" {
			t.Errorf("expected event duplicate_detected, got %q", spans[0].Events[0].Name)
		}
	})

	t.Run("tolerates nil span", func(t *testing.T) {
		AddSpanEvent(nil, "duplicate_detected")
	})
}

func TestRecordSpanError(t *testing.T) {
	t.Run("marks the span as errored", func(t *testing.T) {
		exp, cleanup := setupTracerProvider(t)
		defer cleanup()

		_, span := StartSpan(context.Background(), "EventLedger.CheckAndCreate")
		RecordSpanError(span, errors.New("insert webhook event: connection refused"))
		span.End()

		spans := exp.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("expected 1 span, got %d", len(spans))
		}
		if spans[0].Status.Code != codes.Error {
			t.Errorf("expected error status, got %v", spans[0].Status.Code)
		}
		if len(spans[0].Events) == 0 {
			t.Error("expected a recorded error event")
		}
	})

	t.Run("ignores nil error", func(t *testing.T) {
		exp, cleanup := setupTracerProvider(t)
		defer cleanup()

		_, span := StartSpan(context.Background(), "EventLedger.CheckAndCreate")
		RecordSpanError(span, nil)
		span.End()

		spans := exp.GetSpans()
		if spans[0].Status.Code == codes.Error {
			t.Error("expected status to remain unset for nil error")
		}
	})

	t.Run("tolerates nil span", func(t *testing.T) {
		RecordSpanError(nil, errors.New("boom"))
	})
}

func TestSetSpanSuccess(t *testing.T) {
	t.Run("marks the span ok", func(t *testing.T) {
		exp, cleanup := setupTracerProvider(t)
		defer cleanup()

		_, span := StartSpan(context.Background(), "SettlementOrchestrator.Settle")
		SetSpanSuccess(span)
		span.End()

		spans := exp.GetSpans()
		if spans[0].Status.Code != codes.Ok {
			t.Errorf("expected ok status, got %v", spans[0].Status.Code)
		}
	})

	t.Run("tolerates nil span", func(t *testing.T) {
		SetSpanSuccess(nil)
	})
}

func TestTraceAndSpanID(t *testing.T) {
	t.Run("returns ids inside a span", func(t *testing.T) {
		_, cleanup := setupTracerProvider(t)
		defer cleanup()

		ctx, span := StartSpan(context.Background(), "WebhookIntake.Handle")
		defer span.End()

		if TraceID(ctx) == "" {
			t.Error("expected non-empty trace id")
		}
		if SpanID(ctx) == "" {
			t.Error("expected non-empty span id")
		}
		if TraceID(ctx) != span.SpanContext().TraceID().String() {
			t.Error("expected TraceID to match the active span context")
		}
	})

	t.Run("returns empty strings without a span", func(t *testing.T) {
		ctx := context.Background()

		if TraceID(ctx) != "" {
			t.Error("expected empty trace id")
		}
		if SpanID(ctx) != "" {
			t.Error("expected empty span id")
		}
	})

	t.Run("returns empty strings for an invalid span context", func(t *testing.T) {
		ctx := trace.ContextWithSpanContext(context.Background(), trace.SpanContext{})

		if TraceID(ctx) != "" {
			t.Error("expected empty trace id")
		}
		if SpanID(ctx) != "" {
			t.Error("expected empty span id")
		}
	})
}
