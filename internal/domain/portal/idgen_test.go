package portal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextID(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		prefix   string
		expected string
	}{
		{name: "max plus one", existing: []string{"E001", "E004", "E002"}, prefix: "E", expected: "E005"},
		{name: "empty collection", existing: []string{}, prefix: "E", expected: "E001"},
		{name: "nil collection", existing: nil, prefix: "R", expected: "R001"},
		{name: "no numeric suffix", existing: []string{"abc"}, prefix: "E", expected: "E001"},
		{name: "non numeric ignored", existing: []string{"abc", "R007", ""}, prefix: "R", expected: "R008"},
		{name: "wider than padding", existing: []string{"E999"}, prefix: "E", expected: "E1000"},
		{name: "digits anywhere", existing: []string{"evt-1-2"}, prefix: "E", expected: "E013"},
		{name: "foreign prefix still counts", existing: []string{"X010", "E002"}, prefix: "E", expected: "E011"},
		{name: "max int64 ignored", existing: []string{"E9223372036854775807"}, prefix: "E", expected: "E001"},
		{name: "max int64 beside others", existing: []string{"E9223372036854775807", "E003"}, prefix: "E", expected: "E004"},
		{name: "beyond int64 ignored", existing: []string{"E99999999999999999999", "E002"}, prefix: "E", expected: "E003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextID(tt.existing, tt.prefix))
		})
	}
}

func TestNextID_FromCollections(t *testing.T) {
	events := []Event{{EventID: "E003"}, {ID: "E009"}, {}}
	assert.Equal(t, "E010", NextID(EventIDs(events), EventIDPrefix))

	registrations := []Registration{{RegID: "R001"}, {ID: "R002"}}
	assert.Equal(t, "R003", NextID(RegistrationIDs(registrations), RegistrationIDPrefix))
}

func TestUser_ResolvedID(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		expected string
	}{
		{name: "userId wins", user: User{UserID: "U010", ID: "7"}, expected: "U010"},
		{name: "numeric legacy id padded", user: User{ID: "7"}, expected: "U007"},
		{name: "prefixed legacy id kept", user: User{ID: "U042"}, expected: "U042"},
		{name: "long legacy id not truncated", user: User{ID: "1234"}, expected: "U1234"},
		{name: "no id", user: User{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.ResolvedID())
		})
	}
}

func TestUser_Public(t *testing.T) {
	u := User{ID: "3", Name: "Ana", Email: "ana@example.com", Password: "secret1"}

	public := u.Public()

	assert.Empty(t, public.Password)
	assert.Equal(t, "U003", public.UserID)
	assert.Equal(t, "secret1", u.Password, "original must not be modified")
}

func TestLegacyID_UnmarshalJSON(t *testing.T) {
	var payload struct {
		Users []User `json:"users"`
	}
	raw := `{"users":[{"id":12,"name":"a","email":"a@x"},{"id":"U002","name":"b","email":"b@x"},{"id":null,"name":"c","email":"c@x"}]}`

	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	require.Len(t, payload.Users, 3)
	assert.Equal(t, "U012", payload.Users[0].ResolvedID())
	assert.Equal(t, "U002", payload.Users[1].ResolvedID())
	assert.Equal(t, "", payload.Users[2].ResolvedID())

	var bad User
	assert.Error(t, json.Unmarshal([]byte(`{"id":true}`), &bad))
}

func TestEvent_ResolvedIDAndOwner(t *testing.T) {
	e := Event{ID: "E002", CreatedBy: "U001"}

	assert.Equal(t, "E002", e.ResolvedID())
	assert.True(t, e.OwnedBy("U001"))
	assert.False(t, e.OwnedBy("U002"))
	assert.False(t, Event{}.OwnedBy(""), "an empty user never owns an event")
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, (&Session{}).Expired(now), "zero expiry never expires")
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now.Add(-time.Second)}).Expired(now))
}
