package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-video-intake/internal/application/csrf"
	"github.com/go-video-intake/internal/pkg/id"
)

// SessionCookie carries the opaque session id that CSRF tokens are bound to.
const SessionCookie = "intake_session"

// CSRFHandler issues CSRF tokens.
type CSRFHandler struct {
	svc          csrf.Service
	ttl          time.Duration
	secureCookie bool
}

func NewCSRFHandler(svc csrf.Service, ttl time.Duration, secureCookie bool) *CSRFHandler {
	return &CSRFHandler{svc: svc, ttl: ttl, secureCookie: secureCookie}
}

// Token issues a fresh token on every call, creating the session cookie on first use.
func (h *CSRFHandler) Token(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		sid = id.New()
	}
	sess, err := h.svc.Issue(r.Context(), sid)
	if err != nil {
		slog.Error("csrf token generation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate token", "Please try again later")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(h.ttl / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	writeJSON(w, http.StatusOK, TokenEnvelope{Token: sess.Token, Expires: sess.ExpiresAt.UnixMilli()})
}

// sessionID returns the caller's session id, or "" when absent or malformed.
func sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil || !id.Valid(c.Value) {
		return ""
	}
	return c.Value
}
