package scraper

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
)

var statusIDPattern = regexp.MustCompile(`status/(\d+)`)

// ExternalID derives the stable dedupe key for a URL. Posts use their status id;
// every other URL is keyed by the standard base64 encoding of the URL itself.
func ExternalID(rawURL string) string {
	if m := statusIDPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return base64.StdEncoding.EncodeToString([]byte(rawURL))
}

// Username returns the account segment of an X/Twitter URL, or "unknown"
func Username(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !isTwitterHost(u.Hostname()) {
		return "unknown"
	}
	segment, _, _ := strings.Cut(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	if segment == "" {
		return "unknown"
	}
	if unescaped, err := url.PathUnescape(segment); err == nil {
		return unescaped
	}
	return segment
}

// IsTwitter reports whether the URL points at X/Twitter
func IsTwitter(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return isTwitterHost(u.Hostname())
}

func isTwitterHost(host string) bool {
	return hostIs(host, "x.com") || hostIs(host, "twitter.com")
}

// isExcludedLinkHost filters links that point back into the platform or its shortener
func isExcludedLinkHost(host string) bool {
	return isTwitterHost(host) || hostIs(host, "t.co")
}

func hostIs(host, domain string) bool {
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
