// Package youtube parses and canonicalizes YouTube video links.
package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-video-intake/internal/domain"
)

// MaxURLLength bounds accepted links.
const MaxURLLength = 500

const shortHost = "youtu.be"

var allowedHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
	shortHost:         true,
}

var (
	// linkPattern is the coarse shape check used by schema validation.
	linkPattern    = regexp.MustCompile(`^https?://(www\.|m\.)?(youtube\.com/watch\?v=|youtu\.be/)[\w-]+(&.*)?$`)
	videoIDPattern = regexp.MustCompile(`^[\w-]{11}$`)
)

// LooksLikeVideoLink reports whether raw has the shape of a watch or short link.
func LooksLikeVideoLink(raw string) bool {
	return linkPattern.MatchString(raw)
}

// Canonical returns the normalized watch URL for a video id.
func Canonical(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// Validate re-parses raw and extracts the video id. All query parameters other
// than the video id are dropped from the sanitized URL.
func Validate(raw string) (domain.ValidatedURL, error) {
	if len(raw) > MaxURLLength {
		return domain.ValidatedURL{}, invalid("url too long")
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() {
		return domain.ValidatedURL{}, invalid("malformed url")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return domain.ValidatedURL{}, invalid("unsupported protocol")
	}
	host := strings.ToLower(u.Hostname())
	if !allowedHosts[host] {
		return domain.ValidatedURL{}, invalid("unsupported host")
	}

	var videoID string
	if host == shortHost {
		videoID = strings.TrimPrefix(u.EscapedPath(), "/")
	} else {
		if u.Path != "/watch" {
			return domain.ValidatedURL{}, invalid("not a watch link")
		}
		videoID = u.Query().Get("v")
	}
	if !videoIDPattern.MatchString(videoID) {
		return domain.ValidatedURL{}, invalid("invalid video id")
	}
	return domain.ValidatedURL{VideoID: videoID, SanitizedURL: Canonical(videoID)}, nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidURL, reason)
}
