package domain

import "time"

// SubmissionRequest is one candidate form submission. It lives for a single HTTP call.
type SubmissionRequest struct {
	URL       string `json:"url" validate:"required,max=500,url,youtube_url"`
	Email     string `json:"email" validate:"required,max=100,email,not_disposable"`
	Honeypot  string `json:"_honeypot" validate:"max=0"`
	CSRFToken string `json:"csrfToken"`

	// HeaderCSRFToken carries X-CSRF-Token; the alternative token transport.
	HeaderCSRFToken string `json:"-"`
	ClientIP        string `json:"-"`
	UserAgent       string `json:"-"`
}

// SubmissionKey identifies a RecentSubmissionRecord: (clientIp, email, videoId).
func SubmissionKey(clientIP, email, videoID string) string {
	return clientIP + "-" + email + "-" + videoID
}

// RecentSubmission is the stored form of a RecentSubmissionRecord.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type RecentSubmission struct {
	Key         string    `json:"key" dynamodbav:"submission_key"`
	SubmittedAt time.Time `json:"submitted_at" dynamodbav:"submitted_at"`
	ExpiresAt   int64     `json:"expires_at" dynamodbav:"expires_at"`
}

// FieldError is a single schema-validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidatedURL is the outcome of deep YouTube URL validation.
type ValidatedURL struct {
	VideoID      string
	SanitizedURL string
}
