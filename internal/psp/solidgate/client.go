package solidgate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// Response is the normalized outcome of a PSP API call. Remote failures are
// carried as values; a transport-level failure yields StatusCode 0.
type Response struct {
	Success    bool           `json:"success"`
	StatusCode int            `json:"status_code"`
	Data       map[string]any `json:"data,omitempty"`
}

// Client issues signed requests against the Solidgate API.
type Client struct {
	apiURL     string
	publicKey  string
	signer     *Signer
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a Client for the given API base URL and merchant keys.
func NewClient(apiURL, publicKey, secretKey string, logger *slog.Logger) *Client {
	return &Client{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		publicKey:  publicKey,
		signer:     NewSigner(publicKey, secretKey),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}
}

// Signer exposes the client's signature helper for webhook verification.
func (c *Client) Signer() *Signer {
	return c.signer
}

// Execute sends a signed request and normalizes the response. payload is
// serialized to canonical JSON (sorted keys, no whitespace) before signing,
// so the Signature header matches the bytes on the wire.
func (c *Client) Execute(ctx context.Context, endpoint, method string, payload map[string]any) Response {
	payloadJSON := ""
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Response{Success: false, StatusCode: 0, Data: map[string]any{"message": err.Error()}}
		}
		payloadJSON = string(raw)
	}

	var body *bytes.Reader
	switch method {
	case http.MethodGet, http.MethodDelete:
		body = bytes.NewReader(nil)
	default:
		body = bytes.NewReader([]byte(payloadJSON))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+endpoint, body)
	if err != nil {
		return Response{Success: false, StatusCode: 0, Data: map[string]any{"message": err.Error()}}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("merchant", c.publicKey)
	req.Header.Set("Signature", c.signer.Sign(payloadJSON, method))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "psp request error", "endpoint", endpoint, "error", err)
		return Response{Success: false, StatusCode: 0, Data: map[string]any{"message": err.Error()}}
	}
	defer resp.Body.Close()

	data := decodeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		if _, hasError := data["error"]; hasError {
			return Response{Success: false, StatusCode: resp.StatusCode, Data: data}
		}
		return Response{Success: true, StatusCode: resp.StatusCode, Data: data}
	default:
		if len(data) == 0 {
			data = map[string]any{"error": "HTTP " + resp.Status}
		}
		return Response{Success: false, StatusCode: resp.StatusCode, Data: data}
	}
}

// OrderStatus queries the PSP for the current status of an order.
func (c *Client) OrderStatus(ctx context.Context, orderID string) Response {
	return c.Execute(ctx, "/status", http.MethodPost, map[string]any{"order_id": orderID})
}

// PaymentIntent carries the signed triple the hosted payment page expects.
type PaymentIntent struct {
	PaymentIntent string `json:"payment_intent"`
	Merchant      string `json:"merchant"`
	Signature     string `json:"signature"`
}

// IntentRequest describes a payment to initialize.
type IntentRequest struct {
	OrderID          string
	Amount           int64
	Currency         string
	CustomerEmail    string
	OrderDescription string
	SuccessURL       string
	FailURL          string
}

// CreatePaymentIntent builds the merchant data for the hosted payment page:
// the canonical JSON intent, base64-encoded, signed with the merchant keys.
func (c *Client) CreatePaymentIntent(req IntentRequest) (*PaymentIntent, error) {
	description := req.OrderDescription
	if description == "" {
		description = "Payment"
	}

	intent := map[string]any{
		"order_id":          req.OrderID,
		"amount":            req.Amount,
		"currency":          req.Currency,
		"order_description": description,
		"customer_email":    req.CustomerEmail,
		"success_url":       req.SuccessURL,
		"fail_url":          req.FailURL,
	}

	raw, err := json.Marshal(intent)
	if err != nil {
		return nil, err
	}

	return &PaymentIntent{
		PaymentIntent: base64.StdEncoding.EncodeToString(raw),
		Merchant:      c.publicKey,
		Signature:     c.signer.Sign(string(raw), http.MethodPost),
	}, nil
}

func decodeBody(resp *http.Response) map[string]any {
	if resp.StatusCode == http.StatusNoContent {
		return map[string]any{}
	}

	data := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return map[string]any{}
	}
	return data
}
