package view

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "event-portal-service/internal/domain/portal"
)

func sampleEvents() []domain.Event {
	return []domain.Event{
		{EventID: "E001", Name: "Jazz night", City: "Medellín", Date: "2026-03-10T20:00:00.000Z", CreatedBy: "U001"},
		{EventID: "E002", Name: "Hackathon", City: "Bogotá", Date: "2026-02-01T00:00:00.000Z", CreatedBy: "U002"},
		{ID: "E003", Name: "Book fair", City: "medellin", Date: "not a date", CreatedBy: "U001"},
		{EventID: "E004", Name: "Meetup", City: "Cali", Date: "2026-03-10", CreatedBy: "U003"},
		{EventID: "E005", Name: "Run", City: "Bogotá", Date: "2026-01-15T08:30:00-05:00", CreatedBy: "U002"},
	}
}

func sampleRegistrations() []domain.Registration {
	return []domain.Registration{
		{RegID: "R001", EventID: "E001", UserID: "U002"},
		{RegID: "R002", EventID: "E001", UserID: "U003"},
		{RegID: "R003", EventID: "E002", UserID: "U001"},
		{RegID: "R004", EventID: "E004", UserID: "U001"},
		{RegID: "R005", EventID: "E001", UserID: "U001"},
	}
}

func eventIDs(events []domain.Event) []string {
	return domain.EventIDs(events)
}

func TestFilterEvents_City(t *testing.T) {
	got := FilterEvents(sampleEvents(), EventFilter{City: "  BOGO "})
	assert.Equal(t, []string{"E002", "E005"}, eventIDs(got))

	got = FilterEvents(sampleEvents(), EventFilter{City: "medell"})
	assert.Equal(t, []string{"E001", "E003"}, eventIDs(got), "case-insensitive, insertion order kept")
}

func TestFilterEvents_Date(t *testing.T) {
	got := FilterEvents(sampleEvents(), EventFilter{Date: "2026-03-10"})
	assert.Equal(t, []string{"E001", "E004"}, eventIDs(got))

	got = FilterEvents(sampleEvents(), EventFilter{City: "cali", Date: "2026-03-10"})
	assert.Equal(t, []string{"E004"}, eventIDs(got))

	got = FilterEvents(sampleEvents(), EventFilter{Date: "1999-01-01"})
	assert.Empty(t, got)
}

func TestFilterEvents_ZeroFilterKeepsEverything(t *testing.T) {
	events := sampleEvents()
	assert.True(t, EventFilter{City: " "}.IsZero())
	assert.Equal(t, events, FilterEvents(events, EventFilter{}))
}

// Every returned event contains the substring and every event containing it is returned.
func TestFilterEvents_CityProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cities := []string{"Medellín", "Bogotá", "Cali", "Cartagena", "Barranquilla", "Santa Marta", "CALI"}
	needles := []string{"a", "CA", "ta", "bog", "í", "ll", "zzz", "Mar"}

	for round := 0; round < 50; round++ {
		events := make([]domain.Event, rng.Intn(30))
		for i := range events {
			events[i] = domain.Event{
				EventID: fmt.Sprintf("E%03d", i+1),
				City:    cities[rng.Intn(len(cities))],
			}
		}
		needle := needles[rng.Intn(len(needles))]

		got := FilterEvents(events, EventFilter{City: needle})

		lowered := strings.ToLower(needle)
		returned := make(map[string]bool, len(got))
		for _, e := range got {
			returned[e.EventID] = true
			assert.Contains(t, strings.ToLower(e.City), lowered)
		}
		for _, e := range events {
			if strings.Contains(strings.ToLower(e.City), lowered) {
				assert.True(t, returned[e.EventID], "event %s with city %q missing for %q", e.EventID, e.City, needle)
			}
		}
	}
}

func TestSortByDate(t *testing.T) {
	events := sampleEvents()

	sorted := SortByDate(events)

	assert.Equal(t, []string{"E005", "E002", "E004", "E001", "E003"}, eventIDs(sorted))
	assert.Equal(t, "E001", events[0].EventID, "input must not be reordered")
}

func TestSortByDate_UnparseableKeepOrderAtEnd(t *testing.T) {
	events := []domain.Event{
		{EventID: "A", Date: "garbage"},
		{EventID: "B", Date: "2026-05-01"},
		{EventID: "C", Date: ""},
		{EventID: "D", Date: "2026-04-01"},
	}

	assert.Equal(t, []string{"D", "B", "A", "C"}, eventIDs(SortByDate(events)))
}

func TestCalendarDate(t *testing.T) {
	assert.Equal(t, "2026-03-10", CalendarDate("2026-03-10T20:00:00.000Z"))
	assert.Equal(t, "2026-03-10", CalendarDate("2026-03-10"))
	assert.Equal(t, "", CalendarDate("tomorrow"))
	assert.Equal(t, "", CalendarDate(""))
}

func TestParticipantCount(t *testing.T) {
	regs := sampleRegistrations()

	assert.Equal(t, 3, ParticipantCount(regs, "E001"))
	assert.Equal(t, 1, ParticipantCount(regs, "E002"))
	assert.Equal(t, 0, ParticipantCount(regs, "E999"))
	assert.Equal(t, 0, ParticipantCount(nil, "E001"))

	counts := ParticipantCounts(regs)
	for _, id := range []string{"E001", "E002", "E004", "E999"} {
		assert.Equal(t, ParticipantCount(regs, id), counts[id], id)
	}
}

func TestParticipantCount_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		regs := make([]domain.Registration, rng.Intn(40))
		expected := map[string]int{}
		for i := range regs {
			eventID := fmt.Sprintf("E%03d", rng.Intn(5)+1)
			regs[i] = domain.Registration{EventID: eventID, UserID: fmt.Sprintf("U%03d", i)}
			expected[eventID]++
		}
		for i := 1; i <= 6; i++ {
			id := fmt.Sprintf("E%03d", i)
			require.Equal(t, expected[id], ParticipantCount(regs, id))
		}
	}
}

func TestJoinedEvents(t *testing.T) {
	joined := JoinedEventIDs(sampleRegistrations(), "U001")

	assert.Len(t, joined, 3)
	assert.Contains(t, joined, "E002")
	assert.Equal(t, []string{"E001", "E002", "E004"}, eventIDs(JoinedEvents(sampleEvents(), joined)))

	assert.Empty(t, JoinedEventIDs(sampleRegistrations(), ""))
	assert.Empty(t, JoinedEvents(sampleEvents(), JoinedEventIDs(sampleRegistrations(), "")))
}

func TestRegistrationsFor(t *testing.T) {
	regs := RegistrationsFor(sampleRegistrations(), "E001")
	assert.Equal(t, []string{"R001", "R002", "R005"}, domain.RegistrationIDs(regs))
	assert.NotNil(t, RegistrationsFor(nil, "E001"))
}

func TestCities(t *testing.T) {
	assert.Equal(t, []string{"Medellín", "Bogotá", "medellin", "Cali"}, Cities(sampleEvents()))
}

func TestCurrentUser(t *testing.T) {
	users := []domain.User{
		{UserID: "U001", Email: "ana@example.com"},
		{ID: "2", Email: "luis@example.com"},
	}

	u, ok := CurrentUser(users, &domain.Session{UserID: "U002"})
	require.True(t, ok)
	assert.Equal(t, "luis@example.com", u.Email)

	u, ok = CurrentUser(users, &domain.Session{Email: "ANA@example.com"})
	require.True(t, ok)
	assert.Equal(t, "U001", u.ResolvedID())

	_, ok = CurrentUser(users, &domain.Session{Email: "nobody@example.com"})
	assert.False(t, ok)

	_, ok = CurrentUser(users, nil)
	assert.False(t, ok)
}
