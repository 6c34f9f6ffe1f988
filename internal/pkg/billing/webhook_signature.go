package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// SignatureVerifier authenticates an inbound webhook payload. It is a
// required, injected capability of the webhook endpoint: production code uses
// the HMAC implementation below, tests inject their own double. There is no
// bypass path.
type SignatureVerifier interface {
	Verify(payload []byte, signatureHeader string) bool
}

// HMACSHA256Verifier verifies payloads against an `sha256=<hex>` signature
// header computed over the raw request body with a shared secret.
type HMACSHA256Verifier struct {
	secret []byte
}

func NewHMACSHA256Verifier(secret string) *HMACSHA256Verifier {
	return &HMACSHA256Verifier{secret: []byte(strings.TrimSpace(secret))}
}

func (v *HMACSHA256Verifier) Verify(payload []byte, signatureHeader string) bool {
	return VerifyWebhookSignature(payload, signatureHeader, string(v.secret))
}

// VerifyWebhookSignature checks an HMAC-SHA256 signature of the raw request
// body. The header value is matched case-insensitively and compared in
// constant time. Fails closed: a missing header or missing secret rejects the
// payload.
func VerifyWebhookSignature(payload []byte, signatureHeader, sharedSecret string) bool {
	sig := strings.ToLower(strings.TrimSpace(signatureHeader))
	secret := strings.TrimSpace(sharedSecret)
	if sig == "" || secret == "" {
		return false
	}

	if !strings.HasPrefix(sig, signaturePrefix) {
		return false
	}
	decodedSig, err := hex.DecodeString(strings.TrimPrefix(sig, signaturePrefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}
