package domain

import "time"

// Severity tiers for security events, ordered info < low < medium < high.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities; unknown values rank as info.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// Security event types recorded by the submission pipeline.
const (
	EventIPBlocked         = "ip_blocked"
	EventRateLimited       = "rate_limited"
	EventValidationFailed  = "validation_failed"
	EventHoneypotTriggered = "honeypot_triggered"
	EventCSRFFailed        = "csrf_validation_failed"
	EventInvalidYouTubeURL = "invalid_youtube_url"
	EventInvalidEmail      = "invalid_email"
	EventDuplicate         = "duplicate_submission"
	EventPreviewFailed     = "preview_failed"
	EventPreviewCompleted  = "preview_completed"
	EventSubmissionSuccess = "submission_success"
)

// SecurityEvent is one audit record.
type SecurityEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	IP        string         `json:"ip"`
	UserAgent string         `json:"userAgent"`
	Details   map[string]any `json:"details,omitempty"`
	Severity  Severity       `json:"severity"`
}
