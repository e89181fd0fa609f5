package checkin

import "errors"

var (
	// ErrInvalidCredential means the submitted token or ID was malformed.
	// Surfaced before any store lookup; not retryable.
	ErrInvalidCredential = errors.New("checkin: invalid credential")

	// ErrUnknownRegistration means no registration matches the credential.
	ErrUnknownRegistration = errors.New("checkin: registration not found")

	// ErrStoreUnavailable wraps transient store faults. Retrying the whole
	// Verify call is safe: the conditional transition is idempotent.
	ErrStoreUnavailable = errors.New("checkin: store unavailable")
)
