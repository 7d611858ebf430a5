package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/settleflow/payment-orchestrator/internal/psp/solidgate"
)

// IntentCreator builds signed payment intents. Satisfied by the PSP client.
type IntentCreator interface {
	CreatePaymentIntent(req solidgate.IntentRequest) (*solidgate.PaymentIntent, error)
}

// InitializeInput captures payload for initializing a payment.
type InitializeInput struct {
	OrderID       string `json:"order_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customer_email"`
}

// Validate ensures the input satisfies the PSP contract.
func (i InitializeInput) Validate() error {
	if strings.TrimSpace(i.OrderID) == "" {
		return errors.New("order_id is required")
	}
	if i.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if strings.TrimSpace(i.CustomerEmail) == "" {
		return errors.New("customer_email is required")
	}
	return nil
}

// Session is the signed checkout material handed to the storefront.
type Session struct {
	SessionID     string `json:"session_id"`
	PSP           string `json:"psp"`
	Merchant      string `json:"merchant"`
	Signature     string `json:"signature"`
	PaymentIntent string `json:"payment_intent"`
}

// Config carries the merchant-side redirect URLs.
type Config struct {
	SuccessURL string
	FailURL    string
}

// Service initializes payments against the PSP.
type Service struct {
	psp    IntentCreator
	cfg    Config
	logger *slog.Logger
}

// NewService wires required dependencies.
func NewService(psp IntentCreator, cfg Config, logger *slog.Logger) *Service {
	return &Service{psp: psp, cfg: cfg, logger: logger}
}

// Initialize creates a signed payment intent for the order.
func (s *Service) Initialize(ctx context.Context, input InitializeInput) (*Session, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	intent, err := s.psp.CreatePaymentIntent(solidgate.IntentRequest{
		OrderID:       input.OrderID,
		Amount:        input.Amount,
		Currency:      currency,
		CustomerEmail: input.CustomerEmail,
		SuccessURL:    s.cfg.SuccessURL,
		FailURL:       s.cfg.FailURL,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "payment initialization failed", "order_id", input.OrderID, "error", err)
		return nil, err
	}

	return &Session{
		SessionID:     input.OrderID,
		PSP:           "solidgate",
		Merchant:      intent.Merchant,
		Signature:     intent.Signature,
		PaymentIntent: intent.PaymentIntent,
	}, nil
}
