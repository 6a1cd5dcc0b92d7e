// Package mockapi is an in-memory implementation of the booking REST API.
//
// It exists for local development and tests: it speaks the same envelope,
// issues HS256 tokens, and enforces the booking lifecycle, but keeps all
// state in process memory.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/example/meeting-room-portal/internal/forms"
	"github.com/example/meeting-room-portal/internal/logging"
	"github.com/example/meeting-room-portal/internal/model"
)

const principalKey = "principal"

// Config configures a Server.
type Config struct {
	Secret         string
	TokenTTL       time.Duration
	Now            func() time.Time
	NewID          func() string
	PasswordParams PasswordParams
	Logger         *slog.Logger
}

// Server is the mock booking API. It implements http.Handler.
type Server struct {
	echo      *echo.Echo
	store     *store
	tokens    *Tokens
	params    PasswordParams
	validator *forms.Validator
	logger    *slog.Logger
}

type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// New constructs a Server with an empty data set.
func New(cfg Config) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.PasswordParams == (PasswordParams{}) {
		cfg.PasswordParams = DefaultPasswordParams
	}
	if cfg.Secret == "" {
		cfg.Secret = "mockapi-development-secret"
	}

	s := &Server{
		store:     newStore(cfg.Now, cfg.NewID),
		tokens:    NewTokens(cfg.Secret, cfg.TokenTTL, cfg.Now),
		params:    cfg.PasswordParams,
		validator: forms.New(),
		logger:    logging.Default(cfg.Logger),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = s.validator
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(s.requestLogger)
	s.echo = e
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	authed := s.requireAuth
	admin := requireAdmin

	e.POST("/auth/login", s.login)
	e.POST("/auth/register", s.register)
	e.GET("/auth/profile", s.profile, authed)
	e.POST("/auth/logout", s.logout, authed)

	e.GET("/bookings", s.listBookings, authed)
	e.POST("/bookings", s.createBooking, authed)
	e.GET("/bookings/my", s.myBookings, authed)
	e.GET("/bookings/pending", s.pendingBookings, authed, admin)
	e.GET("/bookings/:id", s.getBooking, authed)
	e.PUT("/bookings/:id", s.updateBooking, authed)
	e.PATCH("/bookings/:id/cancel", s.cancelBooking, authed)
	e.PATCH("/bookings/:id/approve", s.approveBooking, authed, admin)
	e.PATCH("/bookings/:id/reject", s.rejectBooking, authed, admin)

	e.GET("/rooms", s.listRooms, authed)
	e.POST("/rooms", s.createRoom, authed, admin)
	e.GET("/rooms/:id", s.getRoom, authed)
	e.PUT("/rooms/:id", s.updateRoom, authed, admin)
	e.DELETE("/rooms/:id", s.deleteRoom, authed, admin)
	e.GET("/rooms/:id/photos", s.roomPhotos, authed)
	e.POST("/rooms/:id/photos", s.uploadPhotos, authed, admin)
	e.DELETE("/rooms/:id/photos/:photoId", s.deletePhoto, authed, admin)
	e.PATCH("/rooms/photos/:photoId/set-cover", s.setCover, authed, admin)

	e.GET("/uploads/*", s.serveUpload)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the listener started by Start.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// CreateUser adds an account, for seeding.
func (s *Server) CreateUser(name, email, password string, role model.Role) (model.User, error) {
	if !role.Valid() {
		return model.User{}, fmt.Errorf("mockapi: unknown role %q", role)
	}
	hash, err := HashPassword(password, s.params)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.store.createAccount(name, email, hash, role)
}

// CreateRoom adds a room, for seeding.
func (s *Server) CreateRoom(req model.CreateRoomRequest) (model.Room, error) {
	if err := s.validator.CreateRoom(req); err != nil {
		return model.Room{}, err
	}
	return s.store.createRoom(req), nil
}

// CreateBooking adds a pending booking owned by userID, for seeding.
func (s *Server) CreateBooking(userID string, req model.CreateBookingRequest) (model.Booking, error) {
	if err := s.validator.CreateBooking(req); err != nil {
		return model.Booking{}, err
	}
	user, ok := s.store.user(userID)
	if !ok {
		return model.Booking{}, notFound("User not found")
	}
	return s.store.createBooking(principal{userID: user.ID, role: user.Role}, req)
}

// IssueToken signs a token for an existing user, for tests that skip login.
func (s *Server) IssueToken(userID string) (string, error) {
	user, ok := s.store.user(userID)
	if !ok {
		return "", notFound("User not found")
	}
	return s.tokens.Issue(user)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		requestID := req.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		logger := s.logger.With("request_id", requestID, "method", req.Method, "path", req.URL.Path)
		ctx := logging.ContextWithLogger(req.Context(), logger)
		c.SetRequest(req.WithContext(ctx))

		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}
		logger.InfoContext(ctx, "request completed", "status", c.Response().Status, "duration", time.Since(start))
		return nil
	}
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return unauthorized("Authentication required")
		}
		claims, err := s.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			return unauthorized("Invalid or expired token")
		}
		user, ok := s.store.user(claims.UserID)
		if !ok {
			return unauthorized("Account no longer exists")
		}
		c.Set(principalKey, principal{userID: user.ID, role: user.Role})
		return next(c)
	}
}

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !principalFrom(c).isAdmin() {
			return forbidden("Admin access required")
		}
		return next(c)
	}
}

func principalFrom(c echo.Context) principal {
	p, _ := c.Get(principalKey).(principal)
	return p
}

func respond(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, envelope{Success: true, Data: data, Message: message})
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	body := envelope{Success: false}
	status := statusOf(err)

	var (
		validationErr *forms.ValidationError
		failure       *Failure
		httpErr       *echo.HTTPError
	)
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		body.Message = validationMessage(validationErr)
		body.Error = "VALIDATION_ERROR"
		body.Errors = validationErr.FieldErrors
	case errors.As(err, &failure):
		body.Message = failure.Message
		body.Error = failure.Code
	case errors.As(err, &httpErr):
		status = httpErr.Code
		body.Message = fmt.Sprint(httpErr.Message)
		body.Error = strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	default:
		body.Message = "Internal server error"
		body.Error = "INTERNAL"
		ctx := c.Request().Context()
		logging.Component(ctx, s.logger, "mockapi", "handleError").ErrorContext(ctx, "request failed", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func validationMessage(err *forms.ValidationError) string {
	messages := make([]string, 0, len(err.FieldErrors))
	for _, msg := range err.FieldErrors {
		messages = append(messages, msg)
	}
	sort.Strings(messages)
	return strings.Join(messages, "; ")
}
