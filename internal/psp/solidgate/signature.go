package solidgate

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"net/http"
)

// Signer produces and checks Solidgate request signatures.
//
// The signed material depends on the HTTP method: safe methods (GET, DELETE)
// sign publicKey+publicKey, everything else signs publicKey+payload+publicKey.
// The signature is the base64 encoding of the hex-encoded HMAC-SHA512 digest.
type Signer struct {
	publicKey string
	secretKey string
}

// NewSigner constructs a Signer for a merchant key pair.
func NewSigner(publicKey, secretKey string) *Signer {
	return &Signer{publicKey: publicKey, secretKey: secretKey}
}

// Sign computes the signature for a payload sent with the given method.
func (s *Signer) Sign(payload, method string) string {
	var material string
	switch method {
	case http.MethodGet, http.MethodDelete:
		material = s.publicKey + s.publicKey
	default:
		material = s.publicKey + payload + s.publicKey
	}

	mac := hmac.New(sha512.New, []byte(s.secretKey))
	mac.Write([]byte(material))
	digest := hex.EncodeToString(mac.Sum(nil))

	return base64.StdEncoding.EncodeToString([]byte(digest))
}

// Verify reports whether the received signature matches the payload.
// Comparison is constant-time.
func (s *Signer) Verify(payload, signature, method string) bool {
	expected := s.Sign(payload, method)
	return hmac.Equal([]byte(expected), []byte(signature))
}
