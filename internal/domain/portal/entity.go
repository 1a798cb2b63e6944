package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// LegacyID is the optional `id` field some API deployments send instead of
// userId/eventId/regId. It accepts both JSON strings and numbers.
type LegacyID string

// UnmarshalJSON implements json.Unmarshaler
func (l *LegacyID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = LegacyID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*l = LegacyID(n.String())
	return nil
}

// User mirrors the remote API's user record.
type User struct {
	UserID   string   `json:"userId,omitempty"`
	ID       LegacyID `json:"id,omitempty"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	City     string   `json:"city,omitempty"`
	Password string   `json:"password,omitempty"` // write-only
}

// ResolvedID returns userId, or the legacy id normalised to the U### form.
func (u User) ResolvedID() string {
	if u.UserID != "" {
		return u.UserID
	}
	raw := string(u.ID)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, UserIDPrefix) {
		return raw
	}
	return UserIDPrefix + padLeft(raw, idWidth)
}

// Public returns a copy of the user that is safe to send to clients.
func (u User) Public() User {
	u.Password = ""
	if u.UserID == "" {
		u.UserID = u.ResolvedID()
	}
	u.ID = ""
	return u
}

// Event mirrors the remote API's event record.
type Event struct {
	EventID     string   `json:"eventId,omitempty"`
	ID          LegacyID `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	City        string   `json:"city"`
	CreatedBy   string   `json:"createdBy"`
}

// ResolvedID returns eventId, falling back to the legacy id.
func (e Event) ResolvedID() string {
	if e.EventID != "" {
		return e.EventID
	}
	return string(e.ID)
}

// OwnedBy reports whether userID created the event.
func (e Event) OwnedBy(userID string) bool {
	return userID != "" && e.CreatedBy == userID
}

// Registration links a user to an event they attend.
type Registration struct {
	RegID        string   `json:"regId,omitempty"`
	ID           LegacyID `json:"id,omitempty"`
	EventID      string   `json:"eventId"`
	UserID       string   `json:"userId"`
	RegisteredAt string   `json:"registeredAt,omitempty"`
}

// ResolvedID returns regId, falling back to the legacy id.
func (r Registration) ResolvedID() string {
	if r.RegID != "" {
		return r.RegID
	}
	return string(r.ID)
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is what the API answers to a successful login.
// Some deployments omit userId; callers then resolve the user by email.
type LoginResult struct {
	Token   string `json:"token"`
	UserID  string `json:"userId,omitempty"`
	Message string `json:"message,omitempty"`
}
