package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Infrastructure wraps these so the pipeline and handlers can branch without leaking backend details.
var (
	ErrNotFound         = errors.New("not found")
	ErrPreviewFailed    = errors.New("preview processing failed")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidURL       = errors.New("invalid youtube url")
	ErrInvalidEmail     = errors.New("invalid email")
)
