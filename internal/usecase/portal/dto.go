package portal

import (
	"time"

	domain "event-portal-service/internal/domain/portal"
)

// LoginRequest represents the credentials submitted by the login form.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse describes the session created by a successful login.
type LoginResponse struct {
	SessionID string
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// CreateUserRequest represents the payload for creating a user.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	City     string `json:"city" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6"`
}

// EventInput is the editable part of an event.
type EventInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
	Date        string `json:"date" validate:"required"`
	City        string `json:"city" validate:"required,max=100"`
}

// UpdateEventRequest targets one event.
type UpdateEventRequest struct {
	EventID string `json:"eventId" validate:"required"`
	EventInput
}

// EventQuery filters and orders an event list.
type EventQuery struct {
	City       string
	Date       string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	SortByDate bool
}

// EventSummary is an event row as the dashboard and list views show it.
type EventSummary struct {
	Event            domain.Event
	ParticipantCount int
	Joined           bool
	Owned            bool
}

// ListEventsResponse represents a filtered event list.
type ListEventsResponse struct {
	Events []EventSummary
	Total  int
}

// DashboardResponse is everything the dashboard page renders.
type DashboardResponse struct {
	CurrentUser  *domain.User
	Events       []EventSummary
	JoinedEvents []domain.Event
	Cities       []string
	TotalEvents  int
}

// EventDetailResponse is the event detail page.
type EventDetailResponse struct {
	Event            domain.Event
	ParticipantCount int
	Participants     []domain.User
	IsRegistered     bool
	IsCreator        bool
}

// UserProfileResponse is the user profile page.
type UserProfileResponse struct {
	User          domain.User
	Registrations []domain.Registration
	JoinedEvents  []domain.Event
}
