package solidgate_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/settleflow/payment-orchestrator/internal/psp/solidgate"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecute(t *testing.T) {
	t.Run("signs the canonical payload", func(t *testing.T) {
		signer := solidgate.NewSigner("pk_test", "sk_test")

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)

			if r.Header.Get("merchant") != "pk_test" {
				t.Errorf("expected merchant header pk_test, got %q", r.Header.Get("merchant"))
			}
			if !signer.Verify(string(body), r.Header.Get("Signature"), r.Method) {
				t.Error("expected request signature to verify against the body")
			}

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"settle_ok"}`))
		}))
		defer server.Close()

		client := solidgate.NewClient(server.URL, "pk_test", "sk_test", newTestLogger())

		resp := client.OrderStatus(context.Background(), "ord_1")

		if !resp.Success {
			t.Fatalf("expected success, got %+v", resp)
		}
		if resp.Data["status"] != "settle_ok" {
			t.Errorf("expected status settle_ok, got %v", resp.Data["status"])
		}
	})

	t.Run("treats an error body on 200 as failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"code":"2.01"}}`))
		}))
		defer server.Close()

		client := solidgate.NewClient(server.URL, "pk_test", "sk_test", newTestLogger())

		resp := client.Execute(context.Background(), "/status", http.MethodPost, map[string]any{"order_id": "ord_1"})

		if resp.Success {
			t.Fatal("expected failure for error-carrying 200 response")
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("reports transport failures with status zero", func(t *testing.T) {
		client := solidgate.NewClient("http://127.0.0.1:1", "pk_test", "sk_test", newTestLogger())

		resp := client.Execute(context.Background(), "/status", http.MethodPost, nil)

		if resp.Success {
			t.Fatal("expected failure")
		}
		if resp.StatusCode != 0 {
			t.Errorf("expected status 0, got %d", resp.StatusCode)
		}
		if resp.Data["message"] == "" {
			t.Error("expected transport error message in data")
		}
	})
}

func TestCreatePaymentIntent(t *testing.T) {
	client := solidgate.NewClient("https://pay.solidgate.com/api/v1", "pk_test", "sk_test", newTestLogger())

	intent, err := client.CreatePaymentIntent(solidgate.IntentRequest{
		OrderID:       "cart_42",
		Amount:        1999,
		Currency:      "USD",
		CustomerEmail: "buyer@example.com",
		SuccessURL:    "https://merchant.example/success",
		FailURL:       "https://merchant.example/fail",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if intent.Merchant != "pk_test" {
		t.Errorf("expected merchant pk_test, got %q", intent.Merchant)
	}

	raw, err := base64.StdEncoding.DecodeString(intent.PaymentIntent)
	if err != nil {
		t.Fatalf("payment intent is not valid base64: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("payment intent is not valid JSON: %v", err)
	}
	if decoded["order_id"] != "cart_42" {
		t.Errorf("expected order_id cart_42, got %v", decoded["order_id"])
	}
	if decoded["order_description"] != "Payment" {
		t.Errorf("expected default description, got %v", decoded["order_description"])
	}

	signer := solidgate.NewSigner("pk_test", "sk_test")
	if !signer.Verify(string(raw), intent.Signature, http.MethodPost) {
		t.Error("expected intent signature to verify against the decoded payload")
	}
}
