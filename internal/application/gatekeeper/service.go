package gatekeeper

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/go-video-intake/internal/application/ipreputation"
	"github.com/go-video-intake/internal/domain"
	"github.com/go-video-intake/internal/pkg/emailcheck"
	"github.com/go-video-intake/internal/pkg/validate"
	"github.com/go-video-intake/internal/pkg/youtube"
)

const anonymousKey = "anonymous"

// Messages shown to the submitter.
const (
	msgAccepted      = "Preview processed, please check your email"
	msgFakeSuccess   = "Submission received, please check your email"
	msgAccessDenied  = "Access denied"
	msgRateLimited   = "Too many submissions, please try again later"
	msgValidation    = "Input validation failed"
	msgCSRF          = "Security check failed, please refresh the page and try again"
	msgInvalidURL    = "The link is not a valid YouTube video link"
	msgEmailFormat   = "Invalid email format"
	msgEmailTooLong  = "Email address is too long"
	msgEmailDisposed = "Disposable email addresses are not accepted"
	msgDuplicate     = "This video has already been submitted, please do not submit it again"
	msgInternal      = "Internal server error, please try again later"
)

// RateLimiter admits at most limit events per key within window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// SubmissionStore records recent submissions; Claim is insert-if-absent with expiry.
type SubmissionStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type PreviewProcessor interface {
	Process(ctx context.Context, req domain.PreviewRequest) (*domain.PreviewResult, error)
}

type EventRecorder interface {
	Record(ctx context.Context, ev domain.SecurityEvent)
}

// SessionLookup exposes the CSRF token of the caller's session, if one exists.
type SessionLookup interface {
	CSRFToken(ctx context.Context) (string, bool)
}

type Options struct {
	RateLimit       int
	RateWindow      time.Duration
	DuplicateWindow time.Duration
	PreviewTimeout  time.Duration
}

// Deps are the collaborators of the pipeline.
type Deps struct {
	IPReputation ipreputation.Service
	Limiter      RateLimiter
	Validator    *validate.Validator
	Blocklist    *emailcheck.Blocklist
	Submissions  SubmissionStore
	Preview      PreviewProcessor
	Events       EventRecorder
}

type Service interface {
	Evaluate(ctx context.Context, req *domain.SubmissionRequest, session SessionLookup) domain.Verdict
}

type service struct {
	deps Deps
	opts Options
	now  func() time.Time
}

func NewService(deps Deps, opts Options) Service {
	return &service{deps: deps, opts: opts, now: time.Now}
}

// Evaluate runs the ordered checks against req and stops at the first rejection.
// session may be nil when the caller has no session.
func (s *service) Evaluate(ctx context.Context, req *domain.SubmissionRequest, session SessionLookup) domain.Verdict {
	start := s.now()
	record := func(typ string, sev domain.Severity, details map[string]any) {
		s.deps.Events.Record(ctx, domain.SecurityEvent{
			Type:      typ,
			IP:        req.ClientIP,
			UserAgent: req.UserAgent,
			Details:   details,
			Severity:  sev,
		})
	}

	if rep := s.deps.IPReputation.Check(req.ClientIP); rep.Blocked() {
		record(domain.EventIPBlocked, domain.SeverityMedium, map[string]any{"reason": rep.Reason})
		return security(domain.KindIPBlocked, msgAccessDenied)
	}

	rateKey := req.ClientIP + "-" + identity(req.Email)
	allowed, retry, err := s.deps.Limiter.Allow(ctx, rateKey, s.opts.RateLimit, s.opts.RateWindow)
	switch {
	case err != nil:
		slog.Warn("rate limiter unavailable, admitting submission", "ip", req.ClientIP, "err", err)
	case !allowed:
		record(domain.EventRateLimited, domain.SeverityMedium, map[string]any{
			"limit":    s.opts.RateLimit,
			"window":   s.opts.RateWindow.String(),
			"nextSlot": retry.Round(time.Second).String(),
		})
		v := security(domain.KindRateLimited, msgRateLimited)
		v.RetryAfter = s.opts.RateWindow
		return v
	}

	schema := s.deps.Validator.Submission(req)
	if !schema.OK() && !schema.HoneypotFilled {
		record(domain.EventValidationFailed, domain.SeverityLow, map[string]any{
			"issues": validate.FieldErrors(schema.Errors),
		})
		return domain.Verdict{
			Outcome:     domain.OutcomeRejectedValidation,
			Kind:        domain.KindValidationFailed,
			Message:     msgValidation,
			FieldErrors: schema.Errors,
		}
	}

	if schema.HoneypotFilled {
		record(domain.EventHoneypotTriggered, domain.SeverityHigh, map[string]any{"reason": "Bot detected via honeypot"})
		return domain.Verdict{
			Outcome: domain.OutcomeRejectedHoneypot,
			Kind:    domain.KindHoneypotTriggered,
			Message: msgFakeSuccess,
		}
	}

	if !s.csrfValid(ctx, req, session) {
		record(domain.EventCSRFFailed, domain.SeverityHigh, map[string]any{"reason": "Invalid CSRF token"})
		return security(domain.KindCSRFInvalid, msgCSRF)
	}

	link, err := youtube.Validate(req.URL)
	if err != nil {
		record(domain.EventInvalidYouTubeURL, domain.SeverityMedium, map[string]any{"url": req.URL, "error": err.Error()})
		return security(domain.KindInvalidURL, msgInvalidURL)
	}

	if err := s.deps.Blocklist.Validate(req.Email); err != nil {
		record(domain.EventInvalidEmail, domain.SeverityMedium, map[string]any{
			"domain": emailcheck.Domain(req.Email),
			"error":  err.Error(),
		})
		return security(domain.KindInvalidEmail, emailMessage(err))
	}

	key := domain.SubmissionKey(req.ClientIP, req.Email, link.VideoID)
	fresh, err := s.deps.Submissions.Claim(ctx, key, s.opts.DuplicateWindow)
	switch {
	case err != nil:
		slog.Warn("submission store unavailable, skipping duplicate check", "video_id", link.VideoID, "err", err)
	case !fresh:
		record(domain.EventDuplicate, domain.SeverityMedium, map[string]any{"email": req.Email, "videoId": link.VideoID})
		return domain.Verdict{
			Outcome: domain.OutcomeRejectedDuplicate,
			Kind:    domain.KindDuplicateSubmission,
			Message: msgDuplicate,
		}
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.PreviewTimeout)
	defer cancel()
	res, err := s.deps.Preview.Process(pctx, domain.PreviewRequest{
		URL:       link.SanitizedURL,
		Email:     req.Email,
		VideoID:   link.VideoID,
		ClientIP:  req.ClientIP,
		UserAgent: req.UserAgent,
	})
	if err != nil {
		record(domain.EventPreviewFailed, domain.SeverityHigh, map[string]any{
			"email":          req.Email,
			"videoId":        link.VideoID,
			"error":          err.Error(),
			"processingTime": s.since(start),
		})
		return domain.Verdict{
			Outcome: domain.OutcomeInternalError,
			Kind:    domain.KindPreviewProcessingFailed,
			Message: msgInternal,
		}
	}

	record(domain.EventPreviewCompleted, domain.SeverityInfo, map[string]any{
		"videoId":   link.VideoID,
		"previewId": res.PreviewID,
		"cost":      res.SuggestedPriceUSD,
	})
	record(domain.EventSubmissionSuccess, domain.SeverityInfo, map[string]any{
		"email":          req.Email,
		"videoId":        link.VideoID,
		"processingTime": s.since(start),
	})
	return domain.Verdict{
		Outcome:       domain.OutcomeAccepted,
		Message:       msgAccepted,
		PreviewID:     res.PreviewID,
		EstimatedCost: res.SuggestedPriceUSD,
	}
}

// csrfValid compares the submitted token with the session's token, falling
// back to the X-CSRF-Token header when the session holds none.
func (s *service) csrfValid(ctx context.Context, req *domain.SubmissionRequest, session SessionLookup) bool {
	var expected string
	if session != nil {
		expected, _ = session.CSRFToken(ctx)
	}
	if expected == "" {
		expected = req.HeaderCSRFToken
	}
	if req.CSRFToken == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(req.CSRFToken), []byte(expected)) == 1
}

// since is in milliseconds.
func (s *service) since(start time.Time) int64 {
	return s.now().Sub(start).Milliseconds()
}

func identity(email string) string {
	if email == "" {
		return anonymousKey
	}
	return email
}

func security(kind domain.RejectionKind, msg string) domain.Verdict {
	return domain.Verdict{Outcome: domain.OutcomeRejectedSecurity, Kind: kind, Message: msg}
}

func emailMessage(err error) string {
	switch {
	case errors.Is(err, emailcheck.ErrTooLong):
		return msgEmailTooLong
	case errors.Is(err, emailcheck.ErrDisposable):
		return msgEmailDisposed
	default:
		return msgEmailFormat
	}
}
