package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "event-portal-service/internal/domain/portal"
	"event-portal-service/internal/view"
	pkgerrors "event-portal-service/pkg/errors"
	"event-portal-service/pkg/security"
)

// API is the remote event API as the portal consumes it. Every call but
// Login carries the session's bearer token.
type API interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error)
	ListUsers(ctx context.Context, token string) ([]domain.User, error)
	GetUser(ctx context.Context, token, id string) (*domain.User, error)
	CreateUser(ctx context.Context, token string, u domain.User) (*domain.User, error)
	ListEvents(ctx context.Context, token string) ([]domain.Event, error)
	GetEvent(ctx context.Context, token, id string) (*domain.Event, error)
	CreateEvent(ctx context.Context, token string, e domain.Event) (*domain.Event, error)
	UpdateEvent(ctx context.Context, token, id string, e domain.Event) (*domain.Event, error)
	DeleteEvent(ctx context.Context, token, id string) error
	ListRegistrations(ctx context.Context, token, userID string) ([]domain.Registration, error)
	CreateRegistration(ctx context.Context, token string, r domain.Registration) (*domain.Registration, error)
}

// SessionRepository persists portal sessions.
type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error) // *errors.NotFoundError when missing
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Options tunes the usecase.
type Options struct {
	SessionTTL  time.Duration // used when the token carries no exp claim
	AssignsIDs  bool          // the API allocates ids; omit proposed ones
	FanOutLimit int           // concurrent per-item API calls
}

const isoMillis = "2006-01-02T15:04:05.000Z"

var calendarDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Service implements the portal operations on top of the remote API.
type Service struct {
	api      API
	sessions SessionRepository
	opts     Options
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// New creates a new instance of Service.
func New(api API, sessions SessionRepository, opts Options, log *zap.Logger) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.FanOutLimit <= 0 {
		opts.FanOutLimit = 4
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &Service{
		api:      api,
		sessions: sessions,
		opts:     opts,
		log:      log,
		validate: v,
		now:      time.Now,
	}
}

// formatValidationError converts validator.ValidationErrors into a *errors.ValidationError
// naming the first offending field.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return pkgerrors.NewValidationError("", err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", e.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
		case "datetime":
			messages = append(messages, fmt.Sprintf("%s must use the YYYY-MM-DD format", e.Field()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return pkgerrors.NewValidationError(validationErrors[0].Field(), strings.Join(messages, ", "))
}

// upstreamFailure reduces an API error to one operation-level message.
// Errors that already carry a portal meaning pass through.
func upstreamFailure(err error, message string) error {
	var (
		notFound *pkgerrors.NotFoundError
		upErr    *pkgerrors.UpstreamError
	)
	if errors.As(err, &notFound) {
		return err
	}
	status := 0
	if errors.As(err, &upErr) {
		status = upErr.StatusCode
	}
	return pkgerrors.NewUpstreamError(status, message, err)
}

// Login validates the credentials locally, signs in against the API and
// stores a new session.
func (uc *Service) Login(ctx context.Context, in LoginRequest) (*LoginResponse, error) {
	trimmed := LoginRequest{
		Email:    strings.TrimSpace(in.Email),
		Password: strings.TrimSpace(in.Password),
	}
	if err := uc.validate.Struct(trimmed); err != nil {
		uc.log.Warn("login validation failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	uc.log.Info("signing in", zap.String("email", trimmed.Email))

	result, err := uc.api.Login(ctx, domain.Credentials{Email: trimmed.Email, Password: in.Password})
	if err != nil {
		var upErr *pkgerrors.UpstreamError
		if errors.As(err, &upErr) && upErr.StatusCode >= 400 && upErr.StatusCode < 500 {
			uc.log.Warn("login rejected", zap.String("email", trimmed.Email), zap.Int("status", upErr.StatusCode))
			return nil, pkgerrors.NewUnauthorizedError(upErr.Message)
		}
		uc.log.Error("login failed", zap.String("email", trimmed.Email), zap.Error(err))
		return nil, upstreamFailure(err, "could not sign in")
	}

	now := uc.now().UTC()
	expiresAt, ok := tokenExpiry(result.Token)
	if !ok {
		expiresAt = now.Add(uc.opts.SessionTTL)
	}
	if !expiresAt.After(now) {
		return nil, pkgerrors.NewUnauthorizedError("the issued token is already expired")
	}

	s := &domain.Session{
		ID:        uuid.NewString(),
		Token:     result.Token,
		UserID:    result.UserID,
		Email:     trimmed.Email,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := uc.sessions.Create(ctx, s); err != nil {
		uc.log.Error("failed to store session", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to store session", err)
	}

	uc.log.Info("signed in", zap.String("session_id", s.ID), zap.String("user_id", s.UserID), zap.Time("expires_at", s.ExpiresAt))
	return &LoginResponse{
		SessionID: s.ID,
		Token:     s.Token,
		UserID:    s.UserID,
		Email:     s.Email,
		ExpiresAt: s.ExpiresAt,
	}, nil
}

// tokenExpiry reads the exp claim of a JWT bearer token. The signature is not checked.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time.UTC(), true
}

// Logout deletes the session. Unknown ids are not an error.
func (uc *Service) Logout(ctx context.Context, sessionID string) error {
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		uc.log.Error("failed to delete session", zap.String("session_id", sessionID), zap.Error(err))
		return pkgerrors.NewInternalError("failed to delete session", err)
	}
	uc.log.Info("signed out", zap.String("session_id", sessionID))
	return nil
}

// ResolveSession loads a live session. Missing and expired sessions are
// unauthorized; expired ones are removed.
func (uc *Service) ResolveSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.NewUnauthorizedError("session required")
	}

	s, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		var notFound *pkgerrors.NotFoundError
		if errors.As(err, &notFound) {
			return nil, pkgerrors.NewUnauthorizedError("session not found")
		}
		uc.log.Error("failed to load session", zap.String("session_id", sessionID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to load session", err)
	}

	if s.Expired(uc.now()) {
		if err := uc.sessions.Delete(ctx, s.ID); err != nil {
			uc.log.Warn("failed to delete expired session", zap.String("session_id", s.ID), zap.Error(err))
		}
		return nil, pkgerrors.NewUnauthorizedError("session expired")
	}
	return s, nil
}

// PurgeExpiredSessions removes every session past its expiry.
func (uc *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := uc.sessions.PurgeExpired(ctx, uc.now())
	if err != nil {
		return 0, pkgerrors.NewInternalError("failed to purge sessions", err)
	}
	return n, nil
}

// collections is one consistent-enough snapshot of the three API lists.
type collections struct {
	users         []domain.User
	events        []domain.Event
	registrations []domain.Registration
}

// loadCollections fetches users, events and registrations concurrently.
func (uc *Service) loadCollections(ctx context.Context, s *domain.Session) (*collections, error) {
	var out collections
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		users, err := uc.api.ListUsers(gctx, s.Token)
		if err != nil {
			return upstreamFailure(err, "could not load users")
		}
		out.users = users
		return nil
	})
	g.Go(func() error {
		events, err := uc.api.ListEvents(gctx, s.Token)
		if err != nil {
			return upstreamFailure(err, "could not load events")
		}
		out.events = events
		return nil
	})
	g.Go(func() error {
		regs, err := uc.api.ListRegistrations(gctx, s.Token, "")
		if err != nil {
			return upstreamFailure(err, "could not load registrations")
		}
		out.registrations = regs
		return nil
	})

	if err := g.Wait(); err != nil {
		uc.log.Error("failed to load collections", zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// currentUserID resolves the signed-in user's id: the id returned by login,
// otherwise the user registered with the session email. It returns "" when
// neither is known.
func (uc *Service) currentUserID(ctx context.Context, s *domain.Session) (string, error) {
	if s.UserID != "" {
		return s.UserID, nil
	}
	users, err := uc.api.ListUsers(ctx, s.Token)
	if err != nil {
		return "", upstreamFailure(err, "could not load users")
	}
	u, ok := view.FindUserByEmail(users, s.Email)
	if !ok {
		return "", nil
	}
	return u.ResolvedID(), nil
}

func (uc *Service) requireCurrentUserID(ctx context.Context, s *domain.Session, action string) (string, error) {
	userID, err := uc.currentUserID(ctx, s)
	if err != nil {
		return "", err
	}
	if userID == "" {
		uc.log.Warn("current user could not be resolved", zap.String("session_id", s.ID), zap.String("action", action))
		return "", pkgerrors.NewUnauthorizedError(fmt.Sprintf("sign in again to %s", action))
	}
	return userID, nil
}

func (uc *Service) eventFilter(q EventQuery) (view.EventFilter, error) {
	city, err := security.ValidateFilterQuery(q.City)
	if err != nil {
		return view.EventFilter{}, pkgerrors.NewValidationError("city", err.Error())
	}
	q.Date = strings.TrimSpace(q.Date)
	if err := uc.validate.Struct(q); err != nil {
		return view.EventFilter{}, formatValidationError(err)
	}
	return view.EventFilter{City: city, Date: q.Date}, nil
}

func summarize(events []domain.Event, regs []domain.Registration, userID string) []EventSummary {
	counts := view.ParticipantCounts(regs)
	joined := view.JoinedEventIDs(regs, userID)

	out := make([]EventSummary, len(events))
	for i, e := range events {
		id := e.ResolvedID()
		_, isJoined := joined[id]
		out[i] = EventSummary{
			Event:            e,
			ParticipantCount: counts[id],
			Joined:           isJoined,
			Owned:            e.OwnedBy(userID),
		}
	}
	return out
}

// Dashboard loads the three collections and derives the dashboard view.
func (uc *Service) Dashboard(ctx context.Context, s *domain.Session, q EventQuery) (*DashboardResponse, error) {
	filter, err := uc.eventFilter(q)
	if err != nil {
		return nil, err
	}

	data, err := uc.loadCollections(ctx, s)
	if err != nil {
		return nil, err
	}

	resp := &DashboardResponse{
		Cities:      view.Cities(data.events),
		TotalEvents: len(data.events),
	}

	userID := s.UserID
	if u, ok := view.CurrentUser(data.users, s); ok {
		public := u.Public()
		resp.CurrentUser = &public
		userID = u.ResolvedID()
	}

	visible := view.SortByDate(view.FilterEvents(data.events, filter))
	resp.Events = summarize(visible, data.registrations, userID)
	resp.JoinedEvents = view.JoinedEvents(data.events, view.JoinedEventIDs(data.registrations, userID))

	uc.log.Debug("dashboard built",
		zap.String("session_id", s.ID),
		zap.Int("events", len(resp.Events)),
		zap.Int("joined", len(resp.JoinedEvents)),
	)
	return resp, nil
}

// ListEvents returns filtered event summaries, optionally sorted by date.
func (uc *Service) ListEvents(ctx context.Context, s *domain.Session, q EventQuery) (*ListEventsResponse, error) {
	filter, err := uc.eventFilter(q)
	if err != nil {
		return nil, err
	}

	var (
		events []domain.Event
		regs   []domain.Registration
		userID string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if events, err = uc.api.ListEvents(gctx, s.Token); err != nil {
			return upstreamFailure(err, "could not load events")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if regs, err = uc.api.ListRegistrations(gctx, s.Token, ""); err != nil {
			return upstreamFailure(err, "could not load registrations")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		userID, err = uc.currentUserID(gctx, s)
		return err
	})
	if err := g.Wait(); err != nil {
		uc.log.Error("failed to list events", zap.Error(err))
		return nil, err
	}

	visible := view.FilterEvents(events, filter)
	if q.SortByDate {
		visible = view.SortByDate(visible)
	}
	return &ListEventsResponse{
		Events: summarize(visible, regs, userID),
		Total:  len(visible),
	}, nil
}

// EventDetail loads one event with its participants.
func (uc *Service) EventDetail(ctx context.Context, s *domain.Session, eventID string) (*EventDetailResponse, error) {
	if err := security.ValidateResourceID(eventID); err != nil {
		return nil, pkgerrors.NewValidationError("eventId", err.Error())
	}

	var (
		event  *domain.Event
		regs   []domain.Registration
		userID string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if event, err = uc.api.GetEvent(gctx, s.Token, eventID); err != nil {
			return upstreamFailure(err, "could not load the event")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if regs, err = uc.api.ListRegistrations(gctx, s.Token, ""); err != nil {
			return upstreamFailure(err, "could not load registrations")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		userID, err = uc.currentUserID(gctx, s)
		return err
	})
	if err := g.Wait(); err != nil {
		uc.log.Error("failed to load event detail", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	eventRegs := view.RegistrationsFor(regs, eventID)
	participants, err := uc.fetchUsers(ctx, s, participantIDs(eventRegs))
	if err != nil {
		return nil, err
	}

	return &EventDetailResponse{
		Event:            *event,
		ParticipantCount: len(eventRegs),
		Participants:     participants,
		IsRegistered:     hasRegistration(eventRegs, userID),
		IsCreator:        event.OwnedBy(userID),
	}, nil
}

func participantIDs(regs []domain.Registration) []string {
	seen := make(map[string]struct{}, len(regs))
	ids := make([]string, 0, len(regs))
	for _, r := range regs {
		if r.UserID == "" {
			continue
		}
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}
	return ids
}

func hasRegistration(regs []domain.Registration, userID string) bool {
	if userID == "" {
		return false
	}
	for _, r := range regs {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// fetchUsers loads users one by one with bounded concurrency, keeping the
// order of ids. Users the API no longer knows are skipped.
func (uc *Service) fetchUsers(ctx context.Context, s *domain.Session, ids []string) ([]domain.User, error) {
	found := make([]*domain.User, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.FanOutLimit)
	for i, id := range ids {
		g.Go(func() error {
			u, err := uc.api.GetUser(gctx, s.Token, id)
			if err != nil {
				if isMissing(err) {
					uc.log.Warn("participant not found", zap.String("user_id", id))
					return nil
				}
				return upstreamFailure(err, "could not load participants")
			}
			public := u.Public()
			found[i] = &public
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.log.Error("failed to load participants", zap.Error(err))
		return nil, err
	}

	users := make([]domain.User, 0, len(ids))
	for _, u := range found {
		if u != nil {
			users = append(users, *u)
		}
	}
	return users, nil
}

// fetchEvents loads events one by one with bounded concurrency, keeping the
// order of ids. Events the API no longer knows are skipped.
func (uc *Service) fetchEvents(ctx context.Context, s *domain.Session, ids []string) ([]domain.Event, error) {
	found := make([]*domain.Event, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.FanOutLimit)
	for i, id := range ids {
		g.Go(func() error {
			e, err := uc.api.GetEvent(gctx, s.Token, id)
			if err != nil {
				if isMissing(err) {
					uc.log.Warn("registered event not found", zap.String("event_id", id))
					return nil
				}
				return upstreamFailure(err, "could not load events")
			}
			found[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.log.Error("failed to load joined events", zap.Error(err))
		return nil, err
	}

	events := make([]domain.Event, 0, len(ids))
	for _, e := range found {
		if e != nil {
			events = append(events, *e)
		}
	}
	return events, nil
}

func isMissing(err error) bool {
	var (
		notFound *pkgerrors.NotFoundError
		upErr    *pkgerrors.UpstreamError
	)
	if errors.As(err, &notFound) {
		return true
	}
	return errors.As(err, &upErr) && upErr.StatusCode == http.StatusNotFound
}

// normalizeEventDate turns a date input into the ISO form the API stores.
// A bare calendar date becomes midnight UTC.
func normalizeEventDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if calendarDate.MatchString(value) {
		if _, err := time.Parse(view.DateLayout, value); err != nil {
			return "", pkgerrors.NewValidationError("date", "date is not a valid calendar date")
		}
		return value + "T00:00:00.000Z", nil
	}
	t, ok := view.ParseDate(value)
	if !ok {
		return "", pkgerrors.NewValidationError("date", "date must be YYYY-MM-DD or an ISO-8601 datetime")
	}
	return t.UTC().Format(isoMillis), nil
}

func (uc *Service) validateEventInput(in EventInput) (EventInput, error) {
	in = EventInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Date:        strings.TrimSpace(in.Date),
		City:        strings.TrimSpace(in.City),
	}
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("event validation failed", zap.Error(err))
		return in, formatValidationError(err)
	}
	date, err := normalizeEventDate(in.Date)
	if err != nil {
		return in, err
	}
	in.Date = date
	return in, nil
}

// CreateEvent creates an event owned by the current user.
func (uc *Service) CreateEvent(ctx context.Context, s *domain.Session, in EventInput) (*domain.Event, error) {
	in, err := uc.validateEventInput(in)
	if err != nil {
		return nil, err
	}

	userID, err := uc.requireCurrentUserID(ctx, s, "create events")
	if err != nil {
		return nil, err
	}

	payload := domain.Event{
		Name:        in.Name,
		Description: in.Description,
		Date:        in.Date,
		City:        in.City,
		CreatedBy:   userID,
	}
	if !uc.opts.AssignsIDs {
		events, err := uc.api.ListEvents(ctx, s.Token)
		if err != nil {
			return nil, upstreamFailure(err, "could not load events")
		}
		nextID := domain.NextID(domain.EventIDs(events), domain.EventIDPrefix)
		payload.EventID = nextID
		payload.ID = domain.LegacyID(nextID)
	}

	uc.log.Info("creating event", zap.String("event_id", payload.EventID), zap.String("created_by", userID))

	created, err := uc.api.CreateEvent(ctx, s.Token, payload)
	if err != nil {
		uc.log.Error("failed to create event", zap.Error(err))
		return nil, upstreamFailure(err, "could not save the event")
	}
	return created, nil
}

// loadOwnedEvent fetches an event and checks that the current user created it.
func (uc *Service) loadOwnedEvent(ctx context.Context, s *domain.Session, eventID, action string) (*domain.Event, error) {
	if err := security.ValidateResourceID(eventID); err != nil {
		return nil, pkgerrors.NewValidationError("eventId", err.Error())
	}

	userID, err := uc.requireCurrentUserID(ctx, s, action)
	if err != nil {
		return nil, err
	}

	event, err := uc.api.GetEvent(ctx, s.Token, eventID)
	if err != nil {
		return nil, upstreamFailure(err, "could not load the event")
	}
	if !event.OwnedBy(userID) {
		uc.log.Warn("event ownership check failed",
			zap.String("event_id", eventID),
			zap.String("user_id", userID),
			zap.String("created_by", event.CreatedBy),
		)
		return nil, pkgerrors.NewPermissionError(fmt.Sprintf("only the creator can %s", action))
	}
	return event, nil
}

// UpdateEvent replaces an event the current user created.
func (uc *Service) UpdateEvent(ctx context.Context, s *domain.Session, in UpdateEventRequest) (*domain.Event, error) {
	input, err := uc.validateEventInput(in.EventInput)
	if err != nil {
		return nil, err
	}

	existing, err := uc.loadOwnedEvent(ctx, s, in.EventID, "edit this event")
	if err != nil {
		return nil, err
	}

	payload := domain.Event{
		EventID:     in.EventID,
		ID:          domain.LegacyID(in.EventID),
		Name:        input.Name,
		Description: input.Description,
		Date:        input.Date,
		City:        input.City,
		CreatedBy:   existing.CreatedBy,
	}

	uc.log.Info("updating event", zap.String("event_id", in.EventID))

	updated, err := uc.api.UpdateEvent(ctx, s.Token, in.EventID, payload)
	if err != nil {
		uc.log.Error("failed to update event", zap.String("event_id", in.EventID), zap.Error(err))
		return nil, upstreamFailure(err, "could not save the event")
	}
	return updated, nil
}

// DeleteEvent removes an event the current user created.
func (uc *Service) DeleteEvent(ctx context.Context, s *domain.Session, eventID string) error {
	if _, err := uc.loadOwnedEvent(ctx, s, eventID, "delete this event"); err != nil {
		return err
	}

	uc.log.Info("deleting event", zap.String("event_id", eventID))

	if err := uc.api.DeleteEvent(ctx, s.Token, eventID); err != nil {
		uc.log.Error("failed to delete event", zap.String("event_id", eventID), zap.Error(err))
		return upstreamFailure(err, "could not delete the event")
	}
	return nil
}

// JoinEvent registers the current user for an event.
func (uc *Service) JoinEvent(ctx context.Context, s *domain.Session, eventID string) (*domain.Registration, error) {
	if err := security.ValidateResourceID(eventID); err != nil {
		return nil, pkgerrors.NewValidationError("eventId", err.Error())
	}

	userID, err := uc.requireCurrentUserID(ctx, s, "join events")
	if err != nil {
		return nil, err
	}

	var regs []domain.Registration
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := uc.api.GetEvent(gctx, s.Token, eventID); err != nil {
			return upstreamFailure(err, "could not load the event")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if regs, err = uc.api.ListRegistrations(gctx, s.Token, ""); err != nil {
			return upstreamFailure(err, "could not load registrations")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if _, joined := view.JoinedEventIDs(regs, userID)[eventID]; joined {
		return nil, pkgerrors.NewAlreadyExistsError("registration", "you already joined this event")
	}

	payload := domain.Registration{EventID: eventID, UserID: userID}
	if !uc.opts.AssignsIDs {
		nextID := domain.NextID(domain.RegistrationIDs(regs), domain.RegistrationIDPrefix)
		payload.RegID = nextID
		payload.ID = domain.LegacyID(nextID)
	}

	uc.log.Info("joining event", zap.String("event_id", eventID), zap.String("user_id", userID), zap.String("reg_id", payload.RegID))

	created, err := uc.api.CreateRegistration(ctx, s.Token, payload)
	if err != nil {
		uc.log.Error("failed to join event", zap.String("event_id", eventID), zap.Error(err))
		return nil, upstreamFailure(err, "could not register for the event")
	}
	return created, nil
}

// ListUsers returns every user without passwords.
func (uc *Service) ListUsers(ctx context.Context, s *domain.Session) ([]domain.User, error) {
	users, err := uc.api.ListUsers(ctx, s.Token)
	if err != nil {
		uc.log.Error("failed to list users", zap.Error(err))
		return nil, upstreamFailure(err, "could not load users")
	}

	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

// CreateUser validates and creates a user account.
func (uc *Service) CreateUser(ctx context.Context, s *domain.Session, in CreateUserRequest) (*domain.User, error) {
	in = CreateUserRequest{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		City:     strings.TrimSpace(in.City),
		Password: in.Password,
	}
	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("create user validation failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	uc.log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	created, err := uc.api.CreateUser(ctx, s.Token, domain.User{
		Name:     in.Name,
		Email:    in.Email,
		City:     in.City,
		Password: in.Password,
	})
	if err != nil {
		uc.log.Error("failed to create user", zap.Error(err))
		return nil, upstreamFailure(err, "could not create the user")
	}

	public := created.Public()
	return &public, nil
}

// UserProfile loads a user with their registrations and the events they joined.
func (uc *Service) UserProfile(ctx context.Context, s *domain.Session, userID string) (*UserProfileResponse, error) {
	if err := security.ValidateResourceID(userID); err != nil {
		return nil, pkgerrors.NewValidationError("userId", err.Error())
	}

	var (
		user *domain.User
		regs []domain.Registration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if user, err = uc.api.GetUser(gctx, s.Token, userID); err != nil {
			return upstreamFailure(err, "could not load the user")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if regs, err = uc.api.ListRegistrations(gctx, s.Token, userID); err != nil {
			return upstreamFailure(err, "could not load registrations")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		uc.log.Error("failed to load user profile", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	eventIDs := make([]string, 0, len(regs))
	seen := make(map[string]struct{}, len(regs))
	for _, r := range regs {
		if _, ok := seen[r.EventID]; ok || r.EventID == "" {
			continue
		}
		seen[r.EventID] = struct{}{}
		eventIDs = append(eventIDs, r.EventID)
	}

	events, err := uc.fetchEvents(ctx, s, eventIDs)
	if err != nil {
		return nil, err
	}

	return &UserProfileResponse{
		User:          user.Public(),
		Registrations: regs,
		JoinedEvents:  events,
	}, nil
}
