package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/settleflow/payment-orchestrator/internal/commerce"
	"github.com/settleflow/payment-orchestrator/internal/webhooks/domain"
	"github.com/settleflow/payment-orchestrator/internal/webhooks/metrics"
	"github.com/settleflow/payment-orchestrator/internal/webhooks/ports"
)

var (
	// ErrInvalidNotification marks a notification the ledger cannot record.
	ErrInvalidNotification = errors.New("invalid notification")

	// ErrSettlementFailed marks a qualifying notification whose saga aborted.
	ErrSettlementFailed = errors.New("settlement failed")
)

// Notification is one inbound PSP event, already decoded by the HTTP layer.
type Notification struct {
	EventID     string
	PSP         string
	EventType   string
	CartID      string
	OrderStatus string
	Payload     json.RawMessage
}

// Result is the intake outcome surfaced to the HTTP layer.
type Result struct {
	Message    string
	Duplicate  bool
	Settlement *commerce.SettlementResult
}

// Service coordinates intake: dedupe through the ledger, then dispatch
// qualifying notifications to the settlement saga.
type Service struct {
	ledger  ports.EventLedger
	settler commerce.Settler
	bus     ports.EventBus
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService wires required dependencies.
func NewService(ledger ports.EventLedger, settler commerce.Settler, bus ports.EventBus, logger *slog.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		ledger:  ledger,
		settler: settler,
		bus:     bus,
		logger:  logger,
		metrics: metrics,
	}
}

// Handle records the notification exactly once and runs the settlement saga
// when the order status qualifies. Ledger storage faults are the only
// outcomes returned as hard errors besides validation and saga failure.
func (s *Service) Handle(ctx context.Context, n Notification) (result Result, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordIntakeDuration(ctx, time.Since(start).Seconds())
		s.metrics.RecordNotification(ctx, n.EventType, err == nil)
	}()

	event := domain.NewEvent(n.EventID, n.PSP, n.EventType, n.CartID, n.Payload)
	if err := event.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidNotification, err)
	}

	created, err := s.ledger.CheckAndCreate(ctx, event)
	if err != nil {
		return Result{}, fmt.Errorf("record notification: %w", err)
	}
	if created == nil {
		s.logger.InfoContext(ctx, "webhook already processed", "event_id", n.EventID)
		s.metrics.RecordDuplicate(ctx, n.EventType)
		return Result{Duplicate: true, Message: "Event already processed"}, nil
	}

	if err := s.bus.PublishNotificationReceived(ctx, created.EventID); err != nil {
		s.logger.WarnContext(ctx, "failed to publish notification event", "event_id", created.EventID, "error", err)
	}

	if n.OrderStatus != domain.StatusSettleOK {
		s.markProcessed(ctx, created.ID)
		return Result{Message: "Webhook processed"}, nil
	}

	settlement := s.settler.Settle(ctx, n.CartID)
	if settlement == nil {
		if err := s.ledger.MarkFailed(ctx, created.ID, "settlement aborted"); err != nil {
			s.logger.ErrorContext(ctx, "failed to mark event failed", "event_id", created.EventID, "error", err)
		}
		if err := s.bus.PublishSettlementFailed(ctx, created.EventID, "settlement aborted"); err != nil {
			s.logger.WarnContext(ctx, "failed to publish settlement failure", "event_id", created.EventID, "error", err)
		}
		return Result{}, fmt.Errorf("%w: cart %s", ErrSettlementFailed, n.CartID)
	}

	s.markProcessed(ctx, created.ID)
	if err := s.bus.PublishSettlementCompleted(ctx, created.EventID, settlement.OrderID); err != nil {
		s.logger.WarnContext(ctx, "failed to publish settlement completion", "event_id", created.EventID, "error", err)
	}

	return Result{
		Message:    fmt.Sprintf("%s successfully settled", settlement.OrderID),
		Settlement: settlement,
	}, nil
}

func (s *Service) markProcessed(ctx context.Context, id string) {
	if err := s.ledger.MarkProcessed(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark event processed", "id", id, "error", err)
	}
}
