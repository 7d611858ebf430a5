package commerce

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// SettlementResult confirms a fully settled order.
type SettlementResult struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	CartID    string `json:"cart_id"`
}

// Settler runs the settlement workflow for a cart.
type Settler interface {
	Settle(ctx context.Context, cartID string) *SettlementResult
}

// Orchestrator drives the settlement saga: complete the cart, resolve its
// payment session, resolve the payment, capture. Steps run strictly in order;
// any failure aborts without compensation and the saga reports no result.
type Orchestrator struct {
	exec   Executor
	logger *slog.Logger
}

// NewOrchestrator constructs an Orchestrator over the given client.
func NewOrchestrator(exec Executor, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{exec: exec, logger: logger}
}

// Settle runs the four-step saga for a cart. Returns nil when any step
// aborts; the responsible step has already been logged.
func (o *Orchestrator) Settle(ctx context.Context, cartID string) *SettlementResult {
	orderID, ok := o.completeCart(ctx, cartID)
	if !ok {
		return nil
	}

	sessionID, ok := o.paymentSessionFromCart(ctx, cartID)
	if !ok {
		return nil
	}

	paymentID, ok := o.paymentBySession(ctx, sessionID)
	if !ok {
		return nil
	}

	if !o.capturePayment(ctx, paymentID) {
		return nil
	}

	o.logger.InfoContext(ctx, "order settled", "order_id", orderID, "payment_id", paymentID, "cart_id", cartID)

	return &SettlementResult{
		OrderID:   orderID,
		PaymentID: paymentID,
		CartID:    cartID,
	}
}

// completeCart converts the cart into an order. A response whose type is not
// "order" means the cart is not ready for completion.
func (o *Orchestrator) completeCart(ctx context.Context, cartID string) (string, bool) {
	resp := o.exec.Execute(ctx, fmt.Sprintf("/store/carts/%s/complete", cartID), http.MethodPost, nil, nil)
	if !resp.Success {
		o.logger.ErrorContext(ctx, "complete cart failed", "cart_id", cartID, "status", resp.StatusCode)
		return "", false
	}

	if resp.Data["type"] != "order" {
		o.logger.WarnContext(ctx, "cart not ready for completion", "cart_id", cartID)
		return "", false
	}

	order, _ := resp.Data["order"].(map[string]any)
	orderID, _ := order["id"].(string)
	if orderID == "" {
		o.logger.ErrorContext(ctx, "completed cart carried no order id", "cart_id", cartID)
		return "", false
	}

	o.logger.InfoContext(ctx, "cart completed", "cart_id", cartID, "order_id", orderID)
	return orderID, true
}

// paymentSessionFromCart fetches the cart with its payment collection
// expanded and takes the first listed session.
func (o *Orchestrator) paymentSessionFromCart(ctx context.Context, cartID string) (string, bool) {
	resp := o.exec.Execute(ctx, fmt.Sprintf("/store/carts/%s", cartID), http.MethodGet, nil, map[string]string{
		"fields": "+payment_collection.payment_sessions",
	})
	if !resp.Success {
		o.logger.ErrorContext(ctx, "get cart failed", "cart_id", cartID, "status", resp.StatusCode)
		return "", false
	}

	cart, _ := resp.Data["cart"].(map[string]any)
	collection, _ := cart["payment_collection"].(map[string]any)
	sessions, _ := collection["payment_sessions"].([]any)

	if len(sessions) == 0 {
		o.logger.WarnContext(ctx, "no payment session found for cart", "cart_id", cartID)
		return "", false
	}

	session, _ := sessions[0].(map[string]any)
	sessionID, _ := session["id"].(string)
	if sessionID == "" {
		o.logger.WarnContext(ctx, "payment session carried no id", "cart_id", cartID)
		return "", false
	}

	return sessionID, true
}

// paymentBySession looks up administrative payment records for the session
// and takes the first match.
func (o *Orchestrator) paymentBySession(ctx context.Context, sessionID string) (string, bool) {
	resp := o.exec.Execute(ctx, "/admin/payments", http.MethodGet, nil, map[string]string{
		"payment_session_id": sessionID,
	})
	if !resp.Success {
		o.logger.ErrorContext(ctx, "payment lookup failed", "payment_session_id", sessionID, "status", resp.StatusCode)
		return "", false
	}

	payments, _ := resp.Data["payments"].([]any)
	if len(payments) == 0 {
		o.logger.WarnContext(ctx, "no payment found for session", "payment_session_id", sessionID)
		return "", false
	}

	payment, _ := payments[0].(map[string]any)
	paymentID, _ := payment["id"].(string)
	if paymentID == "" {
		o.logger.WarnContext(ctx, "payment record carried no id", "payment_session_id", sessionID)
		return "", false
	}

	return paymentID, true
}

func (o *Orchestrator) capturePayment(ctx context.Context, paymentID string) bool {
	resp := o.exec.Execute(ctx, fmt.Sprintf("/admin/payments/%s/capture", paymentID), http.MethodPost, nil, nil)
	if !resp.Success {
		o.logger.ErrorContext(ctx, "capture failed", "payment_id", paymentID, "status", resp.StatusCode)
		return false
	}

	o.logger.InfoContext(ctx, "payment captured", "payment_id", paymentID)
	return true
}
