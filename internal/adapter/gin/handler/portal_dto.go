package handler

import (
	"time"

	domain "event-portal-service/internal/domain/portal"
	"event-portal-service/internal/usecase/portal"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// LoginRequest represents the HTTP request body for POST /v1/session
type LoginRequest struct {
	Email    string `json:"email" binding:"max=254"`
	Password string `json:"password" binding:"max=256"`
}

// SessionResponse represents a newly created session
type SessionResponse struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId,omitempty"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// EventRequest represents the HTTP request body for creating or updating an event
type EventRequest struct {
	Name        string `json:"name" binding:"max=200"`
	Description string `json:"description" binding:"max=2000"`
	Date        string `json:"date" binding:"max=40"`
	City        string `json:"city" binding:"max=100"`
}

// CreateUserRequest represents the HTTP request body for creating a user
type CreateUserRequest struct {
	Name     string `json:"name" binding:"max=100"`
	Email    string `json:"email" binding:"max=254"`
	City     string `json:"city" binding:"max=100"`
	Password string `json:"password" binding:"max=256"`
}

// UserResponse represents a user without credentials
type UserResponse struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	City   string `json:"city,omitempty"`
}

// EventResponse represents an event
type EventResponse struct {
	EventID     string `json:"eventId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	City        string `json:"city"`
	CreatedBy   string `json:"createdBy"`
}

// EventSummaryResponse is an event row with derived state
type EventSummaryResponse struct {
	EventResponse
	ParticipantCount int  `json:"participantCount"`
	Joined           bool `json:"joined"`
	Owned            bool `json:"owned"`
}

// RegistrationResponse represents a registration
type RegistrationResponse struct {
	RegID        string `json:"regId"`
	EventID      string `json:"eventId"`
	UserID       string `json:"userId"`
	RegisteredAt string `json:"registeredAt,omitempty"`
}

// DashboardResponse represents GET /v1/dashboard
type DashboardResponse struct {
	CurrentUser  *UserResponse          `json:"currentUser"`
	Events       []EventSummaryResponse `json:"events"`
	JoinedEvents []EventResponse        `json:"joinedEvents"`
	Cities       []string               `json:"cities"`
	TotalEvents  int                    `json:"totalEvents"`
}

// ListEventsResponse represents GET /v1/events
type ListEventsResponse struct {
	Events []EventSummaryResponse `json:"events"`
	Total  int                    `json:"total"`
}

// EventDetailResponse represents GET /v1/events/:id
type EventDetailResponse struct {
	Event            EventResponse  `json:"event"`
	ParticipantCount int            `json:"participantCount"`
	Participants     []UserResponse `json:"participants"`
	IsRegistered     bool           `json:"isRegistered"`
	IsCreator        bool           `json:"isCreator"`
}

// UserProfileResponse represents GET /v1/users/:id
type UserProfileResponse struct {
	User          UserResponse           `json:"user"`
	Registrations []RegistrationResponse `json:"registrations"`
	JoinedEvents  []EventResponse        `json:"joinedEvents"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		UserID: u.ResolvedID(),
		Name:   u.Name,
		Email:  u.Email,
		City:   u.City,
	}
}

func toUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}

func toEventResponse(e domain.Event) EventResponse {
	return EventResponse{
		EventID:     e.ResolvedID(),
		Name:        e.Name,
		Description: e.Description,
		Date:        e.Date,
		City:        e.City,
		CreatedBy:   e.CreatedBy,
	}
}

func toEventResponses(events []domain.Event) []EventResponse {
	out := make([]EventResponse, len(events))
	for i, e := range events {
		out[i] = toEventResponse(e)
	}
	return out
}

func toSummaryResponses(summaries []portal.EventSummary) []EventSummaryResponse {
	out := make([]EventSummaryResponse, len(summaries))
	for i, s := range summaries {
		out[i] = EventSummaryResponse{
			EventResponse:    toEventResponse(s.Event),
			ParticipantCount: s.ParticipantCount,
			Joined:           s.Joined,
			Owned:            s.Owned,
		}
	}
	return out
}

func toRegistrationResponse(r domain.Registration) RegistrationResponse {
	return RegistrationResponse{
		RegID:        r.ResolvedID(),
		EventID:      r.EventID,
		UserID:       r.UserID,
		RegisteredAt: r.RegisteredAt,
	}
}

func toRegistrationResponses(regs []domain.Registration) []RegistrationResponse {
	out := make([]RegistrationResponse, len(regs))
	for i, r := range regs {
		out[i] = toRegistrationResponse(r)
	}
	return out
}
