package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-video-intake/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorEnvelope is returned for every rejected request.
type ErrorEnvelope struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Details []domain.FieldError `json:"details,omitempty"`
	// RetryAfter is in minutes.
	RetryAfter int `json:"retryAfter,omitempty"`
}

// SubmitEnvelope is the success body of POST /api/submit.
type SubmitEnvelope struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	PreviewID     string   `json:"previewId,omitempty"`
	EstimatedCost *float64 `json:"estimatedCost,omitempty"`
}

// TokenEnvelope is the body of GET /api/csrf-token. Expires is epoch millis.
type TokenEnvelope struct {
	Token   string `json:"token"`
	Expires int64  `json:"expires"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errMsg, message string) {
	writeJSON(w, status, ErrorEnvelope{Error: errMsg, Message: message})
}

// MethodNotAllowed answers requests whose method a route does not serve.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "Method "+r.Method+" is not allowed on "+r.URL.Path)
}

func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not found", "The requested resource does not exist")
}
