package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/settleflow/payment-orchestrator/internal/webhooks/app"
	"github.com/settleflow/payment-orchestrator/internal/webhooks/domain"
)

// Provider headers carrying the event identity.
const (
	headerEventID   = "Solidgate-Event-Id"
	headerEventType = "Solidgate-Event-Type"
	headerSignature = "Signature"
)

// SignatureVerifier checks the PSP signature over the raw request body.
type SignatureVerifier interface {
	Verify(payload, signature, method string) bool
}

// Handler exposes the PSP webhook endpoint.
type Handler struct {
	service          *app.Service
	verifier         SignatureVerifier
	verifySignatures bool
}

// NewHandler constructs a Handler. When verifySignatures is false the
// verifier may be nil (trusted ingress strips untrusted traffic upstream).
func NewHandler(service *app.Service, verifier SignatureVerifier, verifySignatures bool) *Handler {
	return &Handler{
		service:          service,
		verifier:         verifier,
		verifySignatures: verifySignatures,
	}
}

// Register binds the webhook handlers to the provided ServeMux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/webhooks/solidgate", h.handleSolidgate)
}

func (h *Handler) handleSolidgate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read request body")
		return
	}

	if h.verifySignatures {
		signature := r.Header.Get(headerSignature)
		if signature == "" || !h.verifier.Verify(string(body), signature, r.Method) {
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	var payload struct {
		Order struct {
			OrderID string `json:"order_id"`
			Status  string `json:"status"`
		} `json:"order"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	notification := app.Notification{
		EventID:     r.Header.Get(headerEventID),
		PSP:         domain.PSPSolidgate,
		EventType:   r.Header.Get(headerEventType),
		CartID:      payload.Order.OrderID,
		OrderStatus: payload.Order.Status,
		Payload:     body,
	}

	result, err := h.service.Handle(r.Context(), notification)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidNotification):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrSettlementFailed):
			writeError(w, http.StatusInternalServerError, "Failed to process settle_ok")
		default:
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		}
		return
	}

	if result.Settlement != nil {
		writeJSON(w, http.StatusOK, envelope{
			Success: true,
			Message: result.Message,
			Data:    result.Settlement,
		})
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: result.Message,
	})
}

// envelope is the generic response shape returned for every code path.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}
