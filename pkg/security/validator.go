package security

import (
	"errors"
	"regexp"
	"strings"
)

const (
	// MaxFilterQueryLength defines the maximum allowed length for the city filter
	MaxFilterQueryLength = 100
	// MaxResourceIDLength bounds identifiers spliced into upstream paths
	MaxResourceIDLength = 64
)

var (
	// ErrInvalidResourceID is returned for identifiers that are unsafe to place in a URL path
	ErrInvalidResourceID = errors.New("invalid resource id")

	resourceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	// markupPattern rejects filter values that would be echoed back as script
	markupPattern = regexp.MustCompile(`(?i)(<script|</script|javascript:|vbscript:|onload=|onerror=)`)
)

// ValidateResourceID checks that an event, user or registration id can be
// forwarded as a single upstream path segment.
func ValidateResourceID(id string) error {
	if id == "" || len(id) > MaxResourceIDLength {
		return ErrInvalidResourceID
	}
	if !resourceIDPattern.MatchString(id) {
		return ErrInvalidResourceID
	}
	return nil
}

// ValidateFilterQuery validates and trims a free-text filter such as a city name.
func ValidateFilterQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	if len(query) > MaxFilterQueryLength {
		return "", errors.New("filter query too long")
	}

	if markupPattern.MatchString(query) {
		return "", errors.New("filter query contains invalid characters")
	}

	return query, nil
}
