package domain

import "time"

// Outcome is the terminal state of one gatekeeper evaluation.
type Outcome string

const (
	OutcomeAccepted           Outcome = "accepted"
	OutcomeRejectedHoneypot   Outcome = "rejected_honeypot"
	OutcomeRejectedValidation Outcome = "rejected_validation"
	OutcomeRejectedSecurity   Outcome = "rejected_security"
	OutcomeRejectedDuplicate  Outcome = "rejected_duplicate"
	OutcomeInternalError      Outcome = "internal_error"
)

// RejectionKind distinguishes why a submission did not proceed.
type RejectionKind string

const (
	KindNone                    RejectionKind = ""
	KindIPBlocked               RejectionKind = "ip_blocked"
	KindRateLimited             RejectionKind = "rate_limited"
	KindValidationFailed        RejectionKind = "validation_failed"
	KindHoneypotTriggered       RejectionKind = "honeypot_triggered"
	KindCSRFInvalid             RejectionKind = "csrf_invalid"
	KindInvalidURL              RejectionKind = "invalid_url"
	KindInvalidEmail            RejectionKind = "invalid_email"
	KindDuplicateSubmission     RejectionKind = "duplicate_submission"
	KindPreviewProcessingFailed RejectionKind = "preview_processing_failed"
)

// Verdict is what the gatekeeper returns for a submission.
type Verdict struct {
	Outcome Outcome
	Kind    RejectionKind
	Message string

	// FieldErrors maps field name to message for OutcomeRejectedValidation.
	FieldErrors map[string]string
	// RetryAfter is set when Kind is KindRateLimited.
	RetryAfter time.Duration

	PreviewID     string
	EstimatedCost *float64
}

// Succeeded reports whether the caller should be shown a success response.
// Honeypot rejections deliberately look like success.
func (v Verdict) Succeeded() bool {
	return v.Outcome == OutcomeAccepted || v.Outcome == OutcomeRejectedHoneypot
}
