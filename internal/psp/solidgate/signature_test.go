package solidgate_test

import (
	"net/http"
	"testing"

	"github.com/settleflow/payment-orchestrator/internal/psp/solidgate"
)

func TestSign(t *testing.T) {
	signer := solidgate.NewSigner("pk_test", "sk_test")

	t.Run("round trips for body-carrying methods", func(t *testing.T) {
		payload := `{"order":{"order_id":"cart_42","status":"settle_ok"}}`

		sig := signer.Sign(payload, http.MethodPost)

		if sig == "" {
			t.Fatal("expected non-empty signature")
		}
		if !signer.Verify(payload, sig, http.MethodPost) {
			t.Error("expected signature to verify")
		}
	})

	t.Run("safe methods ignore the payload", func(t *testing.T) {
		a := signer.Sign(`{"a":1}`, http.MethodGet)
		b := signer.Sign(`{"b":2}`, http.MethodGet)

		if a != b {
			t.Errorf("expected identical GET signatures, got %q and %q", a, b)
		}
	})

	t.Run("delete signs the same material as get", func(t *testing.T) {
		a := signer.Sign("", http.MethodGet)
		b := signer.Sign("", http.MethodDelete)

		if a != b {
			t.Errorf("expected %q, got %q", a, b)
		}
	})
}

func TestVerify(t *testing.T) {
	signer := solidgate.NewSigner("pk_test", "sk_test")
	payload := `{"order":{"order_id":"cart_42"}}`
	sig := signer.Sign(payload, http.MethodPost)

	t.Run("rejects tampered payload", func(t *testing.T) {
		if signer.Verify(payload+" ", sig, http.MethodPost) {
			t.Error("expected tampered payload to fail verification")
		}
	})

	t.Run("rejects tampered signature", func(t *testing.T) {
		tampered := []byte(sig)
		tampered[0] ^= 0x01

		if signer.Verify(payload, string(tampered), http.MethodPost) {
			t.Error("expected tampered signature to fail verification")
		}
	})

	t.Run("rejects signature from a different key pair", func(t *testing.T) {
		other := solidgate.NewSigner("pk_other", "sk_other")

		if signer.Verify(payload, other.Sign(payload, http.MethodPost), http.MethodPost) {
			t.Error("expected foreign signature to fail verification")
		}
	})

	t.Run("rejects signature computed for another method", func(t *testing.T) {
		if signer.Verify(payload, signer.Sign(payload, http.MethodGet), http.MethodPost) {
			t.Error("expected method mismatch to fail verification")
		}
	})
}
