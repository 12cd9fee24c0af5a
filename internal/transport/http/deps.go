package http

import (
	"github.com/go-video-intake/internal/application/csrf"
	"github.com/go-video-intake/internal/application/gatekeeper"
)

// Deps holds the infrastructure the router wires into the application services.
type Deps struct {
	// Limiter is the authoritative per-(ip, email) submission limiter.
	Limiter     gatekeeper.RateLimiter
	Submissions gatekeeper.SubmissionStore
	Sessions    csrf.SessionStore
	Preview     gatekeeper.PreviewProcessor
	Events      gatekeeper.EventRecorder
}
