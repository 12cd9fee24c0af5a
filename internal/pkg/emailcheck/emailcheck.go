// Package emailcheck holds the disposable-domain block-list and the deep email check.
package emailcheck

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-video-intake/internal/domain"
)

// MaxLength bounds accepted addresses.
const MaxLength = 100

// DefaultDisposableDomains are throwaway-mailbox providers rejected at intake.
var DefaultDisposableDomains = []string{
	"10minutemail.com",
	"tempmail.org",
	"guerrillamail.com",
	"mailinator.com",
	"trash-mail.com",
	"temp-mail.org",
}

// Deep-check failures; each wraps domain.ErrInvalidEmail.
var (
	ErrMalformed  = fmt.Errorf("%w: malformed address", domain.ErrInvalidEmail)
	ErrTooLong    = fmt.Errorf("%w: address too long", domain.ErrInvalidEmail)
	ErrDisposable = fmt.Errorf("%w: disposable domain", domain.ErrInvalidEmail)
)

var addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Blocklist is an immutable set of disposable domains. Safe for concurrent use.
type Blocklist struct {
	domains map[string]struct{}
}

// NewBlocklist builds a block-list from the defaults plus extra domains.
func NewBlocklist(extra ...string) *Blocklist {
	b := &Blocklist{domains: make(map[string]struct{}, len(DefaultDisposableDomains)+len(extra))}
	for _, d := range DefaultDisposableDomains {
		b.domains[d] = struct{}{}
	}
	for _, d := range extra {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			b.domains[d] = struct{}{}
		}
	}
	return b
}

// Domain returns the lower-cased part after the last '@', or "".
func Domain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return ""
	}
	return strings.ToLower(email[i+1:])
}

// IsDisposable reports whether the address belongs to a block-listed domain.
func (b *Blocklist) IsDisposable(email string) bool {
	_, ok := b.domains[Domain(email)]
	return ok
}

// Validate is the deep email check run after schema validation.
func (b *Blocklist) Validate(email string) error {
	if !addressPattern.MatchString(email) {
		return ErrMalformed
	}
	if len(email) > MaxLength {
		return ErrTooLong
	}
	if b.IsDisposable(email) {
		return ErrDisposable
	}
	return nil
}
