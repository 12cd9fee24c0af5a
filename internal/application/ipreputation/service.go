package ipreputation

import (
	"log/slog"
	"net/netip"
	"strings"
)

// Verdict is the result of a reputation lookup.
type Verdict int

const (
	// Neutral means the address is on neither list.
	Neutral Verdict = iota
	Allowed
	Denied
)

// Result carries the verdict and a human-readable reason.
type Result struct {
	Verdict Verdict
	Reason  string
}

// Blocked reports whether the submission must be rejected.
func (r Result) Blocked() bool { return r.Verdict == Denied }

// Service looks client addresses up against deny and allow lists.
type Service interface {
	Check(ip string) Result
}

type list struct {
	exact    map[string]struct{}
	prefixes []netip.Prefix
}

type service struct {
	deny  list
	allow list
}

// NewService builds a checker from entries that are either single addresses
// or CIDR prefixes. Unparseable entries are matched literally.
func NewService(denyList, allowList []string) Service {
	return &service{deny: buildList(denyList), allow: buildList(allowList)}
}

// Check consults the deny-list first, so an address on both lists is denied.
func (s *service) Check(ip string) Result {
	if s.deny.contains(ip) {
		return Result{Verdict: Denied, Reason: "IP is on the deny-list"}
	}
	if s.allow.contains(ip) {
		return Result{Verdict: Allowed, Reason: "IP is on the allow-list"}
	}
	return Result{Verdict: Neutral, Reason: "IP check passed"}
}

func buildList(entries []string) list {
	l := list{exact: make(map[string]struct{})}
	for _, raw := range entries {
		e := strings.TrimSpace(raw)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				slog.Warn("ignoring malformed CIDR in IP list", "entry", e, "err", err)
				continue
			}
			l.prefixes = append(l.prefixes, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(e); err == nil {
			e = addr.Unmap().String()
		}
		l.exact[e] = struct{}{}
	}
	return l
}

func (l list) contains(ip string) bool {
	ip = strings.TrimSpace(ip)
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		_, ok := l.exact[ip]
		return ok
	}
	addr = addr.Unmap()
	if _, ok := l.exact[addr.String()]; ok {
		return true
	}
	for _, p := range l.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
