package upstream

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var trailingResource = regexp.MustCompile(`/(login|users|events|registrations)$`)

// NormalizeBaseURL turns a configured API address into the base every
// resource path is appended to. Operators often paste the URL of one
// endpoint (for example https://host/api/login), so a trailing slash and a
// trailing resource segment are removed.
func NormalizeBaseURL(raw string) (string, error) {
	base := strings.TrimSpace(raw)
	if base == "" {
		return "", fmt.Errorf("upstream base URL is required")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid upstream base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("upstream base URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("upstream base URL %q has no host", raw)
	}

	base = strings.TrimRight(base, "/")
	base = trailingResource.ReplaceAllString(base, "")
	return strings.TrimRight(base, "/"), nil
}
