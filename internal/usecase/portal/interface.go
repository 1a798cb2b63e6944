package portal

import (
	"context"

	domain "event-portal-service/internal/domain/portal"
)

// Usecase defines the interface for portal operations.
// Every operation except Login receives the caller's session explicitly.
type Usecase interface {
	Login(ctx context.Context, in LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
	ResolveSession(ctx context.Context, sessionID string) (*domain.Session, error)

	Dashboard(ctx context.Context, s *domain.Session, q EventQuery) (*DashboardResponse, error)
	ListEvents(ctx context.Context, s *domain.Session, q EventQuery) (*ListEventsResponse, error)
	EventDetail(ctx context.Context, s *domain.Session, eventID string) (*EventDetailResponse, error)
	CreateEvent(ctx context.Context, s *domain.Session, in EventInput) (*domain.Event, error)
	UpdateEvent(ctx context.Context, s *domain.Session, in UpdateEventRequest) (*domain.Event, error)
	DeleteEvent(ctx context.Context, s *domain.Session, eventID string) error
	JoinEvent(ctx context.Context, s *domain.Session, eventID string) (*domain.Registration, error)

	ListUsers(ctx context.Context, s *domain.Session) ([]domain.User, error)
	CreateUser(ctx context.Context, s *domain.Session, in CreateUserRequest) (*domain.User, error)
	UserProfile(ctx context.Context, s *domain.Session, userID string) (*UserProfileResponse, error)
}
