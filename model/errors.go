package model

import (
	"errors"
	"fmt"
)

// Error taxonomy shared across the core. Adapters wrap their SDK errors
// with these sentinels so callers can classify failures with errors.Is
// without importing provider packages.
var (
	// ErrNotConfigured means a credential is missing or invalid. Fatal
	// for any dispatch attempt; never retried.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrCapacity means the provider rejected the payload as too large.
	// Recovered locally by shrinking the history budget for the profile
	// on subsequent turns; the failed turn itself is surfaced.
	ErrCapacity = errors.New("provider rejected payload as too large")

	// ErrTransport covers network and provider outages. Surfaced as a
	// failed turn; no automatic retry.
	ErrTransport = errors.New("provider transport error")

	// ErrUnsupportedFormat means the attachment bytes are not a
	// decodable image in a supported format.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrImageTooLarge means no quality step brought the encoded image
	// under the provider's transport ceiling.
	ErrImageTooLarge = errors.New("image too large for provider")
)

// AttachmentError is surfaced to the user when an attachment cannot be
// processed, with a specific remediation message. The turn proceeds
// text-only only if the user re-submits without the attachment.
type AttachmentError struct {
	Remediation string
	Err         error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment rejected: %v (%s)", e.Err, e.Remediation)
}

func (e *AttachmentError) Unwrap() error { return e.Err }
