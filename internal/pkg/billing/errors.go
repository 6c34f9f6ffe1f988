package billing

import "errors"

// Failure taxonomy for webhook processing. Callers classify with errors.Is;
// none of these should ever crash the host process.
var (
	// ErrVerificationFailed rejects a payload whose signature does not match.
	ErrVerificationFailed = errors.New("webhook signature verification failed")
	// ErrDeserializationFailed rejects a malformed payload.
	ErrDeserializationFailed = errors.New("webhook payload deserialization failed")
	// ErrAccountNotFound means no billing account matched the event's
	// customer/subscription identifier. Never synthesize a placeholder account.
	ErrAccountNotFound = errors.New("billing account not found")
	// ErrPersistenceFailed wraps store errors so the caller can report the
	// event as failed and let the provider retry.
	ErrPersistenceFailed = errors.New("billing state persistence failed")
)
