package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PSPSolidgate tags events originating from the Solidgate PSP.
const PSPSolidgate = "solidgate"

// StatusSettleOK is the order status that triggers settlement.
const StatusSettleOK = "settle_ok"

// Event is one received PSP notification. EventID is the provider-assigned
// idempotency key; exactly one Event may exist per EventID.
type Event struct {
	ID           string          `json:"id"`
	EventID      string          `json:"event_id"`
	PSP          string          `json:"psp"`
	EventType    string          `json:"event_type"`
	CartID       string          `json:"cart_id,omitempty"`
	Payload      json.RawMessage `json:"payload"`
	Processed    bool            `json:"processed"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
}

// NewEvent builds an unprocessed Event with a generated internal id.
func NewEvent(eventID, psp, eventType, cartID string, payload json.RawMessage) Event {
	now := time.Now().UTC()
	return Event{
		ID:        "wh_evt_" + uuid.NewString(),
		EventID:   eventID,
		PSP:       psp,
		EventType: eventType,
		CartID:    cartID,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate ensures the event carries the fields the ledger requires.
func (e Event) Validate() error {
	if strings.TrimSpace(e.EventID) == "" {
		return errors.New("event_id is required")
	}
	if strings.TrimSpace(e.PSP) == "" {
		return errors.New("psp is required")
	}
	if strings.TrimSpace(e.EventType) == "" {
		return errors.New("event_type is required")
	}
	return nil
}
