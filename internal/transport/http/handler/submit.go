package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-video-intake/internal/application/csrf"
	"github.com/go-video-intake/internal/application/gatekeeper"
	"github.com/go-video-intake/internal/domain"
	"github.com/go-video-intake/internal/pkg/validate"
	"github.com/go-video-intake/internal/transport/http/middleware"
)

// MaxSubmitBody bounds the JSON body of a submission.
const MaxSubmitBody = 1 << 20

// SubmitHandler runs form submissions through the gatekeeper.
type SubmitHandler struct {
	gate gatekeeper.Service
	csrf csrf.Service
}

func NewSubmitHandler(gate gatekeeper.Service, csrfSvc csrf.Service) *SubmitHandler {
	return &SubmitHandler{gate: gate, csrf: csrfSvc}
}

func (h *SubmitHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxSubmitBody)
	var req domain.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Payload too large", "Request body exceeds 1MB")
			return
		}
		writeError(w, http.StatusBadRequest, "Validation failed", "Request body must be a JSON object")
		return
	}
	req.HeaderCSRFToken = r.Header.Get("X-CSRF-Token")
	req.UserAgent = r.UserAgent()
	req.ClientIP, _ = middleware.ClientIPFromContext(r.Context())

	var session gatekeeper.SessionLookup
	if sid := sessionID(r); sid != "" {
		session = h.csrf.Lookup(sid)
	}

	v := h.gate.Evaluate(r.Context(), &req, session)
	writeVerdict(w, v)
}

func writeVerdict(w http.ResponseWriter, v domain.Verdict) {
	switch v.Outcome {
	case domain.OutcomeAccepted:
		writeJSON(w, http.StatusOK, SubmitEnvelope{
			Success:       true,
			Message:       v.Message,
			PreviewID:     v.PreviewID,
			EstimatedCost: v.EstimatedCost,
		})
		return
	case domain.OutcomeRejectedHoneypot:
		writeJSON(w, http.StatusOK, SubmitEnvelope{Success: true, Message: v.Message})
		return
	}

	switch v.Kind {
	case domain.KindValidationFailed:
		writeJSON(w, http.StatusBadRequest, ErrorEnvelope{
			Error:   "Validation failed",
			Message: v.Message,
			Details: validate.FieldErrors(v.FieldErrors),
		})
	case domain.KindInvalidURL:
		writeError(w, http.StatusBadRequest, "Invalid YouTube URL", v.Message)
	case domain.KindInvalidEmail:
		writeError(w, http.StatusBadRequest, "Invalid email", v.Message)
	case domain.KindIPBlocked:
		writeError(w, http.StatusForbidden, "Access denied", v.Message)
	case domain.KindCSRFInvalid:
		writeError(w, http.StatusForbidden, "CSRF validation failed", v.Message)
	case domain.KindRateLimited:
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(v.RetryAfter.Seconds()))))
		writeJSON(w, http.StatusTooManyRequests, ErrorEnvelope{
			Error:      "Too many requests",
			Message:    v.Message,
			RetryAfter: int(math.Ceil(v.RetryAfter.Minutes())),
		})
	case domain.KindDuplicateSubmission:
		writeError(w, http.StatusTooManyRequests, "Duplicate submission", v.Message)
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error", v.Message)
	}
}
