package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"event-portal-service/internal/adapter/gin/middleware"
	domain "event-portal-service/internal/domain/portal"
	"event-portal-service/internal/usecase/portal"
	pkgerrors "event-portal-service/pkg/errors"
	"event-portal-service/pkg/logger"
)

// PortalHandler handles HTTP requests for the /v1 portal operations
type PortalHandler struct {
	uc  portal.Usecase
	log *zap.Logger
}

// NewPortalHandler creates a new PortalHandler instance
func NewPortalHandler(uc portal.Usecase, log *zap.Logger) *PortalHandler {
	return &PortalHandler{uc: uc, log: log}
}

// Login handles POST /v1/session
func (h *PortalHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.uc.Login(c.Request.Context(), portal.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		h.handleError(c, "Login", err)
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		SessionID: resp.SessionID,
		Token:     resp.Token,
		UserID:    resp.UserID,
		Email:     resp.Email,
		ExpiresAt: resp.ExpiresAt,
	})
}

// Logout handles DELETE /v1/session
func (h *PortalHandler) Logout(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.uc.Logout(c.Request.Context(), s.ID); err != nil {
		h.handleError(c, "Logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dashboard handles GET /v1/dashboard
func (h *PortalHandler) Dashboard(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	resp, err := h.uc.Dashboard(c.Request.Context(), s, portal.EventQuery{
		City:       c.Query("city"),
		Date:       c.Query("date"),
		SortByDate: true,
	})
	if err != nil {
		h.handleError(c, "Dashboard", err)
		return
	}

	out := DashboardResponse{
		Events:       toSummaryResponses(resp.Events),
		JoinedEvents: toEventResponses(resp.JoinedEvents),
		Cities:       resp.Cities,
		TotalEvents:  resp.TotalEvents,
	}
	if resp.CurrentUser != nil {
		u := toUserResponse(*resp.CurrentUser)
		out.CurrentUser = &u
	}
	c.JSON(http.StatusOK, out)
}

// ListEvents handles GET /v1/events
func (h *PortalHandler) ListEvents(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	sort := strings.ToLower(strings.TrimSpace(c.Query("sort")))
	if sort != "" && sort != "date" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "sort only supports 'date'",
			Field:   "sort",
		})
		return
	}

	resp, err := h.uc.ListEvents(c.Request.Context(), s, portal.EventQuery{
		City:       c.Query("city"),
		Date:       c.Query("date"),
		SortByDate: sort == "date",
	})
	if err != nil {
		h.handleError(c, "ListEvents", err)
		return
	}

	c.JSON(http.StatusOK, ListEventsResponse{
		Events: toSummaryResponses(resp.Events),
		Total:  resp.Total,
	})
}

// CreateEvent handles POST /v1/events
func (h *PortalHandler) CreateEvent(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req EventRequest
	if !h.bindJSON(c, &req) {
		return
	}

	event, err := h.uc.CreateEvent(c.Request.Context(), s, toEventInput(req))
	if err != nil {
		h.handleError(c, "CreateEvent", err)
		return
	}
	c.JSON(http.StatusCreated, toEventResponse(*event))
}

// EventDetail handles GET /v1/events/:id
func (h *PortalHandler) EventDetail(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	resp, err := h.uc.EventDetail(c.Request.Context(), s, c.Param("id"))
	if err != nil {
		h.handleError(c, "EventDetail", err)
		return
	}

	c.JSON(http.StatusOK, EventDetailResponse{
		Event:            toEventResponse(resp.Event),
		ParticipantCount: resp.ParticipantCount,
		Participants:     toUserResponses(resp.Participants),
		IsRegistered:     resp.IsRegistered,
		IsCreator:        resp.IsCreator,
	})
}

// UpdateEvent handles PUT /v1/events/:id
func (h *PortalHandler) UpdateEvent(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req EventRequest
	if !h.bindJSON(c, &req) {
		return
	}

	event, err := h.uc.UpdateEvent(c.Request.Context(), s, portal.UpdateEventRequest{
		EventID:    c.Param("id"),
		EventInput: toEventInput(req),
	})
	if err != nil {
		h.handleError(c, "UpdateEvent", err)
		return
	}
	c.JSON(http.StatusOK, toEventResponse(*event))
}

// DeleteEvent handles DELETE /v1/events/:id
func (h *PortalHandler) DeleteEvent(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.uc.DeleteEvent(c.Request.Context(), s, c.Param("id")); err != nil {
		h.handleError(c, "DeleteEvent", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// JoinEvent handles POST /v1/events/:id/registrations
func (h *PortalHandler) JoinEvent(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	reg, err := h.uc.JoinEvent(c.Request.Context(), s, c.Param("id"))
	if err != nil {
		h.handleError(c, "JoinEvent", err)
		return
	}
	c.JSON(http.StatusCreated, toRegistrationResponse(*reg))
}

// ListUsers handles GET /v1/users
func (h *PortalHandler) ListUsers(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	users, err := h.uc.ListUsers(c.Request.Context(), s)
	if err != nil {
		h.handleError(c, "ListUsers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": toUserResponses(users)})
}

// CreateUser handles POST /v1/users
func (h *PortalHandler) CreateUser(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	u, err := h.uc.CreateUser(c.Request.Context(), s, portal.CreateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		City:     req.City,
		Password: req.Password,
	})
	if err != nil {
		h.handleError(c, "CreateUser", err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(*u))
}

// UserProfile handles GET /v1/users/:id
func (h *PortalHandler) UserProfile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	resp, err := h.uc.UserProfile(c.Request.Context(), s, c.Param("id"))
	if err != nil {
		h.handleError(c, "UserProfile", err)
		return
	}

	c.JSON(http.StatusOK, UserProfileResponse{
		User:          toUserResponse(resp.User),
		Registrations: toRegistrationResponses(resp.Registrations),
		JoinedEvents:  toEventResponses(resp.JoinedEvents),
	})
}

func toEventInput(req EventRequest) portal.EventInput {
	return portal.EventInput{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		City:        req.City,
	}
}

func (h *PortalHandler) session(c *gin.Context) (*domain.Session, bool) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "session required"})
		return nil, false
	}
	return s, true
}

func (h *PortalHandler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			field := jsonFieldName(dst, fe.StructField())
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: bindingMessage(field, fe),
				Field:   field,
			})
			return false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "request body must be a valid JSON object",
		})
		return false
	}
	return true
}

// jsonFieldName maps a struct field of dst to the name clients send in JSON.
func jsonFieldName(dst any, structField string) string {
	t := reflect.TypeOf(dst)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		if sf, ok := t.FieldByName(structField); ok {
			if name, _, _ := strings.Cut(sf.Tag.Get("json"), ","); name != "" && name != "-" {
				return name
			}
		}
	}
	return structField
}

func bindingMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// handleError converts usecase errors to appropriate HTTP responses
func (h *PortalHandler) handleError(c *gin.Context, op string, err error) {
	status := pkgerrors.HTTPStatus(err)
	resp := ErrorResponse{Error: "internal_error", Message: "An internal error occurred"}

	var (
		validationErr *pkgerrors.ValidationError
		notFoundErr   *pkgerrors.NotFoundError
		existsErr     *pkgerrors.AlreadyExistsError
		unauthErr     *pkgerrors.UnauthorizedError
		permErr       *pkgerrors.PermissionError
		upstreamErr   *pkgerrors.UpstreamError
	)
	switch {
	case errors.As(err, &validationErr):
		resp = ErrorResponse{Error: "validation_error", Message: validationErr.Message, Field: validationErr.Field}
	case errors.As(err, &notFoundErr):
		resp = ErrorResponse{Error: "not_found", Message: notFoundErr.Error()}
	case errors.As(err, &existsErr):
		resp = ErrorResponse{Error: "already_exists", Message: existsErr.Error()}
	case errors.As(err, &unauthErr):
		resp = ErrorResponse{Error: "unauthorized", Message: unauthErr.Message}
	case errors.As(err, &permErr):
		resp = ErrorResponse{Error: "forbidden", Message: permErr.Message}
	case errors.As(err, &upstreamErr):
		resp = ErrorResponse{Error: "upstream_error", Message: upstreamErr.Message}
	}

	log := logger.WithContext(c.Request.Context(), h.log)
	if status >= http.StatusInternalServerError {
		log.Error("portal request failed", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	} else {
		log.Warn("portal request rejected", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, resp)
}
