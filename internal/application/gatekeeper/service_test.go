package gatekeeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-video-intake/internal/application/ipreputation"
	"github.com/go-video-intake/internal/domain"
	"github.com/go-video-intake/internal/infrastructure/memory"
	"github.com/go-video-intake/internal/pkg/emailcheck"
	"github.com/go-video-intake/internal/pkg/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testVideo = "dQw4w9WgXcQ"
	testURL   = "https://www.youtube.com/watch?v=" + testVideo
	testToken = "csrf-token-abc"
	testIP    = "203.0.113.7"
	testEmail = "alice@example.com"
	testAgent = "Mozilla/5.0"
	deniedIP  = "198.51.100.66"
	allowedIP = "127.0.0.1"
)

// --- fakes ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type eventSink struct {
	mu     sync.Mutex
	events []domain.SecurityEvent
}

func (e *eventSink) Record(_ context.Context, ev domain.SecurityEvent) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *eventSink) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

func (e *eventSink) find(typ string) (domain.SecurityEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.events {
		if ev.Type == typ {
			return ev, true
		}
	}
	return domain.SecurityEvent{}, false
}

type mockPreview struct{ mock.Mock }

func (m *mockPreview) Process(ctx context.Context, req domain.PreviewRequest) (*domain.PreviewResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*domain.PreviewResult)
	return res, args.Error(1)
}

type mockLimiter struct{ mock.Mock }

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Get(1).(time.Duration), args.Error(2)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

type staticSession string

func (s staticSession) CSRFToken(context.Context) (string, bool) {
	return string(s), s != ""
}

// --- harness ---

type harness struct {
	svc     *service
	clock   *fakeClock
	events  *eventSink
	preview *mockPreview
	store   *memory.SubmissionStore
}

func newHarness(t *testing.T, mutate ...func(*Deps)) *harness {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	events := &eventSink{}
	preview := &mockPreview{}
	store := memory.NewSubmissionStore(clock.Now)
	blocklist := emailcheck.NewBlocklist()
	deps := Deps{
		IPReputation: ipreputation.NewService([]string{deniedIP}, []string{allowedIP}),
		Limiter:      memory.NewWindowLimiter(clock.Now),
		Validator:    validate.New(blocklist),
		Blocklist:    blocklist,
		Submissions:  store,
		Preview:      preview,
		Events:       events,
	}
	for _, m := range mutate {
		m(&deps)
	}
	svc := NewService(deps, Options{
		RateLimit:       3,
		RateWindow:      15 * time.Minute,
		DuplicateWindow: 30 * time.Minute,
		PreviewTimeout:  time.Second,
	}).(*service)
	svc.now = clock.Now
	return &harness{svc: svc, clock: clock, events: events, preview: preview, store: store}
}

func validRequest() *domain.SubmissionRequest {
	return &domain.SubmissionRequest{
		URL:       testURL,
		Email:     testEmail,
		CSRFToken: testToken,
		ClientIP:  testIP,
		UserAgent: testAgent,
	}
}

func (h *harness) evaluate(req *domain.SubmissionRequest) domain.Verdict {
	return h.svc.Evaluate(context.Background(), req, staticSession(testToken))
}

func (h *harness) expectPreview(id string, price float64) {
	h.preview.On("Process", mock.Anything, mock.Anything).Return(&domain.PreviewResult{PreviewID: id, SuggestedPriceUSD: &price}, nil)
}

// --- tests ---

func TestEvaluate_Accepted(t *testing.T) {
	h := newHarness(t)
	h.expectPreview("pv_1", 42.5)

	v := h.evaluate(validRequest())

	assert.Equal(t, domain.OutcomeAccepted, v.Outcome)
	assert.Equal(t, domain.KindNone, v.Kind)
	assert.True(t, v.Succeeded())
	assert.Equal(t, "pv_1", v.PreviewID)
	require.NotNil(t, v.EstimatedCost)
	assert.InDelta(t, 42.5, *v.EstimatedCost, 1e-9)

	h.preview.AssertCalled(t, "Process", mock.Anything, domain.PreviewRequest{
		URL:       testURL,
		Email:     testEmail,
		VideoID:   testVideo,
		ClientIP:  testIP,
		UserAgent: testAgent,
	})
	ev, ok := h.events.find(domain.EventSubmissionSuccess)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityInfo, ev.Severity)
	assert.Equal(t, testVideo, ev.Details["videoId"])
	assert.Contains(t, ev.Details, "processingTime")
}

func TestEvaluate_CanonicalizesURL(t *testing.T) {
	cases := map[string]string{
		"extra params": "https://youtube.com/watch?v=" + testVideo + "&foo=bar",
		"short link":   "https://youtu.be/" + testVideo,
		"mobile host":  "http://m.youtube.com/watch?v=" + testVideo + "&t=42s",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			h.expectPreview("pv", 1)
			req := validRequest()
			req.URL = raw

			v := h.evaluate(req)

			require.Equal(t, domain.OutcomeAccepted, v.Outcome)
			h.preview.AssertCalled(t, "Process", mock.Anything, mock.MatchedBy(func(r domain.PreviewRequest) bool {
				return r.URL == testURL && r.VideoID == testVideo
			}))
		})
	}
}

func TestEvaluate_IPBlocked(t *testing.T) {
	h := newHarness(t)
	req := validRequest()
	req.ClientIP = deniedIP

	v := h.evaluate(req)

	assert.Equal(t, domain.OutcomeRejectedSecurity, v.Outcome)
	assert.Equal(t, domain.KindIPBlocked, v.Kind)
	ev, ok := h.events.find(domain.EventIPBlocked)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityMedium, ev.Severity)
	h.preview.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestEvaluate_AllowListedIPStillChecked(t *testing.T) {
	h := newHarness(t)
	req := validRequest()
	req.ClientIP = allowedIP
	req.CSRFToken = "wrong"

	v := h.evaluate(req)

	assert.Equal(t, domain.KindCSRFInvalid, v.Kind)
}

func TestEvaluate_RateLimitedOnFourthAttempt(t *testing.T) {
	h := newHarness(t)

	// Invalid submissions still count against the limit.
	for i := 0; i < 3; i++ {
		req := validRequest()
		req.URL = "not a url"
		assert.Equal(t, domain.KindValidationFailed, h.evaluate(req).Kind, "attempt %d", i+1)
		h.clock.Advance(time.Minute)
	}

	v := h.evaluate(validRequest())
	assert.Equal(t, domain.OutcomeRejectedSecurity, v.Outcome)
	assert.Equal(t, domain.KindRateLimited, v.Kind)
	assert.Equal(t, 15*time.Minute, v.RetryAfter)
	ev, ok := h.events.find(domain.EventRateLimited)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityMedium, ev.Severity)

	// Another email from the same IP has its own budget.
	other := validRequest()
	other.Email = "bob@example.com"
	other.URL = "not a url"
	assert.Equal(t, domain.KindValidationFailed, h.evaluate(other).Kind)
}

func TestEvaluate_RateLimitKeyFallsBackToAnonymous(t *testing.T) {
	lim := &mockLimiter{}
	lim.On("Allow", mock.Anything, testIP+"-anonymous", 3, 15*time.Minute).Return(false, time.Minute, nil)
	h := newHarness(t, func(d *Deps) { d.Limiter = lim })
	req := validRequest()
	req.Email = ""

	assert.Equal(t, domain.KindRateLimited, h.evaluate(req).Kind)
	lim.AssertExpectations(t)
}

func TestEvaluate_LimiterErrorFailsOpen(t *testing.T) {
	lim := &mockLimiter{}
	lim.On("Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, time.Duration(0), domain.ErrStoreUnavailable)
	h := newHarness(t, func(d *Deps) { d.Limiter = lim })
	h.expectPreview("pv", 1)

	assert.Equal(t, domain.OutcomeAccepted, h.evaluate(validRequest()).Outcome)
}

func TestEvaluate_ValidationFailed(t *testing.T) {
	h := newHarness(t)
	req := validRequest()
	req.URL = "https://vimeo.com/12345"
	req.Email = "someone@mailinator.com"

	v := h.evaluate(req)

	assert.Equal(t, domain.OutcomeRejectedValidation, v.Outcome)
	assert.Equal(t, domain.KindValidationFailed, v.Kind)
	assert.Equal(t, "Please provide a valid YouTube link", v.FieldErrors["url"])
	assert.Equal(t, "Please use a regular email provider", v.FieldErrors["email"])
	ev, ok := h.events.find(domain.EventValidationFailed)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityLow, ev.Severity)
	h.preview.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestEvaluate_HoneypotFakesSuccess(t *testing.T) {
	for name, mutate := range map[string]func(*domain.SubmissionRequest){
		"otherwise valid": func(*domain.SubmissionRequest) {},
		"invalid fields":  func(r *domain.SubmissionRequest) { r.URL = "x"; r.Email = "y" },
		"no csrf token":   func(r *domain.SubmissionRequest) { r.CSRFToken = "" },
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			req := validRequest()
			req.Honeypot = "http://spam.example"
			mutate(req)

			v := h.evaluate(req)

			assert.Equal(t, domain.OutcomeRejectedHoneypot, v.Outcome)
			assert.Equal(t, domain.KindHoneypotTriggered, v.Kind)
			assert.True(t, v.Succeeded())
			assert.Empty(t, v.PreviewID)
			ev, ok := h.events.find(domain.EventHoneypotTriggered)
			require.True(t, ok)
			assert.Equal(t, domain.SeverityHigh, ev.Severity)
			h.preview.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
			assert.Zero(t, h.store.Len())
		})
	}
}

func TestEvaluate_CSRF(t *testing.T) {
	cases := []struct {
		name    string
		session SessionLookup
		body    string
		header  string
		ok      bool
	}{
		{name: "session match", session: staticSession(testToken), body: testToken, ok: true},
		{name: "session mismatch", session: staticSession(testToken), body: "forged"},
		{name: "missing body token", session: staticSession(testToken), body: ""},
		{name: "header fallback", session: nil, body: testToken, header: testToken, ok: true},
		{name: "header fallback mismatch", session: staticSession(""), body: testToken, header: "other"},
		{name: "session wins over header", session: staticSession("real"), body: "forged", header: "forged"},
		{name: "no token anywhere", session: nil, body: testToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.expectPreview("pv", 1)
			req := validRequest()
			req.CSRFToken = tc.body
			req.HeaderCSRFToken = tc.header

			v := h.svc.Evaluate(context.Background(), req, tc.session)

			if tc.ok {
				assert.Equal(t, domain.OutcomeAccepted, v.Outcome)
				return
			}
			assert.Equal(t, domain.OutcomeRejectedSecurity, v.Outcome)
			assert.Equal(t, domain.KindCSRFInvalid, v.Kind)
			ev, ok := h.events.find(domain.EventCSRFFailed)
			require.True(t, ok)
			assert.Equal(t, domain.SeverityHigh, ev.Severity)
			h.preview.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
		})
	}
}

func TestEvaluate_DeepURLValidation(t *testing.T) {
	h := newHarness(t)
	req := validRequest()
	// Passes the coarse pattern but the id is not 11 characters.
	req.URL = "https://www.youtube.com/watch?v=short"

	v := h.evaluate(req)

	assert.Equal(t, domain.OutcomeRejectedSecurity, v.Outcome)
	assert.Equal(t, domain.KindInvalidURL, v.Kind)
	ev, ok := h.events.find(domain.EventInvalidYouTubeURL)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityMedium, ev.Severity)
	assert.Equal(t, req.URL, ev.Details["url"])
}

func TestEvaluate_DeepEmailValidation(t *testing.T) {
	deep := emailcheck.NewBlocklist("burner.example")
	h := newHarness(t, func(d *Deps) {
		d.Validator = validate.New(emailcheck.NewBlocklist())
		d.Blocklist = deep
	})
	req := validRequest()
	req.Email = "eve@burner.example"

	v := h.evaluate(req)

	assert.Equal(t, domain.KindInvalidEmail, v.Kind)
	assert.Equal(t, msgEmailDisposed, v.Message)
	_, ok := h.events.find(domain.EventInvalidEmail)
	assert.True(t, ok)
}

func TestEvaluate_DuplicateWithinWindow(t *testing.T) {
	h := newHarness(t)
	h.expectPreview("pv", 1)

	require.Equal(t, domain.OutcomeAccepted, h.evaluate(validRequest()).Outcome)

	h.clock.Advance(29 * time.Minute)
	v := h.evaluate(validRequest())
	assert.Equal(t, domain.OutcomeRejectedDuplicate, v.Outcome)
	assert.Equal(t, domain.KindDuplicateSubmission, v.Kind)
	ev, ok := h.events.find(domain.EventDuplicate)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityMedium, ev.Severity)

	h.clock.Advance(2 * time.Minute)
	assert.Equal(t, domain.OutcomeAccepted, h.evaluate(validRequest()).Outcome)
	h.preview.AssertNumberOfCalls(t, "Process", 2)
}

func TestEvaluate_DuplicateKeyIncludesVideo(t *testing.T) {
	h := newHarness(t)
	h.expectPreview("pv", 1)
	require.Equal(t, domain.OutcomeAccepted, h.evaluate(validRequest()).Outcome)

	other := validRequest()
	other.URL = "https://youtu.be/abcdefghijk"
	assert.Equal(t, domain.OutcomeAccepted, h.evaluate(other).Outcome)
}

func TestEvaluate_StoreErrorFailsOpen(t *testing.T) {
	store := &mockStore{}
	store.On("Claim", mock.Anything, mock.Anything, 30*time.Minute).Return(false, domain.ErrStoreUnavailable)
	h := newHarness(t, func(d *Deps) { d.Submissions = store })
	h.expectPreview("pv", 1)

	assert.Equal(t, domain.OutcomeAccepted, h.evaluate(validRequest()).Outcome)
}

func TestEvaluate_PreviewFailure(t *testing.T) {
	h := newHarness(t)
	h.preview.On("Process", mock.Anything, mock.Anything).Return(nil, domain.ErrPreviewFailed)

	v := h.evaluate(validRequest())

	assert.Equal(t, domain.OutcomeInternalError, v.Outcome)
	assert.Equal(t, domain.KindPreviewProcessingFailed, v.Kind)
	assert.False(t, v.Succeeded())
	ev, ok := h.events.find(domain.EventPreviewFailed)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityHigh, ev.Severity)
	assert.NotContains(t, h.events.types(), domain.EventSubmissionSuccess)

	// The record stays claimed; there is no automatic retry.
	assert.Equal(t, domain.KindDuplicateSubmission, h.evaluate(validRequest()).Kind)
	h.preview.AssertNumberOfCalls(t, "Process", 1)
}

func TestEvaluate_PreviewBoundedByTimeout(t *testing.T) {
	h := newHarness(t)
	h.svc.opts.PreviewTimeout = 20 * time.Millisecond
	h.preview.On("Process", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	})

	v := h.evaluate(validRequest())

	assert.Equal(t, domain.OutcomeInternalError, v.Outcome)
}
