// Package view derives display state from the three collections the portal
// loads in bulk: users, events and registrations. Everything here is a pure
// function over in-memory slices; nothing talks to the network.
package view

import (
	"regexp"
	"sort"
	"strings"
	"time"

	domain "event-portal-service/internal/domain/portal"
)

// DateLayout is the calendar-date form used by filters and date inputs.
const DateLayout = "2006-01-02"

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// acceptedDateLayouts are tried in order when an event date has to be parsed.
var acceptedDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	DateLayout,
}

// EventFilter narrows an event list. Zero values match everything.
type EventFilter struct {
	City string // case-insensitive substring
	Date string // YYYY-MM-DD, exact calendar-date match
}

// IsZero reports whether the filter matches every event.
func (f EventFilter) IsZero() bool {
	return strings.TrimSpace(f.City) == "" && strings.TrimSpace(f.Date) == ""
}

// Matches reports whether a single event passes the filter.
func (f EventFilter) Matches(e domain.Event) bool {
	city := strings.ToLower(strings.TrimSpace(f.City))
	if city != "" && !strings.Contains(strings.ToLower(e.City), city) {
		return false
	}
	date := strings.TrimSpace(f.Date)
	if date != "" && CalendarDate(e.Date) != date {
		return false
	}
	return true
}

// FilterEvents returns the events matching f, preserving input order.
func FilterEvents(events []domain.Event, f EventFilter) []domain.Event {
	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// SortByDate returns a copy of events ordered by ascending date. Events with
// an unparseable date keep their relative order and go after the rest.
func SortByDate(events []domain.Event) []domain.Event {
	sorted := make([]domain.Event, len(events))
	copy(sorted, events)

	sort.SliceStable(sorted, func(i, j int) bool {
		ti, okI := ParseDate(sorted[i].Date)
		tj, okJ := ParseDate(sorted[j].Date)
		switch {
		case okI && okJ:
			return ti.Before(tj)
		case okI:
			return true
		default:
			return false
		}
	})
	return sorted
}

// ParseDate parses the ISO-8601 variants the API and the date inputs produce.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CalendarDate extracts the YYYY-MM-DD part of an event date. A leading date
// is taken as written; otherwise the parsed instant is converted to UTC.
// Unparseable values yield "".
func CalendarDate(value string) string {
	if m := datePrefix.FindString(value); m != "" {
		return m
	}
	t, ok := ParseDate(value)
	if !ok {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// ParticipantCount counts the registrations for eventID.
func ParticipantCount(registrations []domain.Registration, eventID string) int {
	n := 0
	for _, r := range registrations {
		if r.EventID == eventID {
			n++
		}
	}
	return n
}

// ParticipantCounts counts registrations for every event id in one pass.
func ParticipantCounts(registrations []domain.Registration) map[string]int {
	counts := make(map[string]int)
	for _, r := range registrations {
		counts[r.EventID]++
	}
	return counts
}

// JoinedEventIDs is the set of event ids userID is registered for.
func JoinedEventIDs(registrations []domain.Registration, userID string) map[string]struct{} {
	joined := make(map[string]struct{})
	if userID == "" {
		return joined
	}
	for _, r := range registrations {
		if r.UserID == userID {
			joined[r.EventID] = struct{}{}
		}
	}
	return joined
}

// JoinedEvents returns the events whose id is in joined, in input order.
func JoinedEvents(events []domain.Event, joined map[string]struct{}) []domain.Event {
	out := make([]domain.Event, 0, len(joined))
	for _, e := range events {
		if _, ok := joined[e.ResolvedID()]; ok {
			out = append(out, e)
		}
	}
	return out
}

// RegistrationsFor returns the registrations of one event.
func RegistrationsFor(registrations []domain.Registration, eventID string) []domain.Registration {
	out := make([]domain.Registration, 0)
	for _, r := range registrations {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out
}

// Cities lists distinct event cities in first-seen order.
func Cities(events []domain.Event) []string {
	seen := make(map[string]struct{}, len(events))
	cities := make([]string, 0)
	for _, e := range events {
		if e.City == "" {
			continue
		}
		if _, ok := seen[e.City]; ok {
			continue
		}
		seen[e.City] = struct{}{}
		cities = append(cities, e.City)
	}
	return cities
}

// FindUser returns the user whose resolved id is userID.
func FindUser(users []domain.User, userID string) (domain.User, bool) {
	for _, u := range users {
		if userID != "" && u.ResolvedID() == userID {
			return u, true
		}
	}
	return domain.User{}, false
}

// FindUserByEmail returns the user with the given email, compared case-insensitively.
func FindUserByEmail(users []domain.User, email string) (domain.User, bool) {
	email = strings.TrimSpace(email)
	for _, u := range users {
		if email != "" && strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return domain.User{}, false
}

// CurrentUser resolves the session's user: by id when the login returned one,
// otherwise by the email used to sign in.
func CurrentUser(users []domain.User, s *domain.Session) (domain.User, bool) {
	if s == nil {
		return domain.User{}, false
	}
	if s.UserID != "" {
		if u, ok := FindUser(users, s.UserID); ok {
			return u, true
		}
	}
	return FindUserByEmail(users, s.Email)
}
