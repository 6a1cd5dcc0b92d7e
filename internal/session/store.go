package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/example/meeting-room-portal/internal/logging"
	"github.com/example/meeting-room-portal/internal/model"
)

// Store reads and writes the persisted session.
//
// Every operation fails soft: storage errors are logged and the store behaves
// as if no session exists. A Store without storage is a no-op, matching a
// runtime that has no browser storage at all.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	logger  *slog.Logger
}

// NewStore wraps storage. A nil storage yields a no-op store.
func NewStore(storage Storage, logger *slog.Logger) *Store {
	return &Store{storage: storage, logger: logging.Default(logger)}
}

func (s *Store) log(ctx context.Context, operation string) *slog.Logger {
	return logging.Component(ctx, s.logger, "session", operation)
}

func (s *Store) available() bool {
	return s != nil && s.storage != nil
}

// Save overwrites the stored session and mirrors the token to the cookie.
func (s *Store) Save(ctx context.Context, session model.Session) {
	if !s.available() {
		return
	}
	encoded, err := json.Marshal(session.User)
	if err != nil {
		s.log(ctx, "Save").ErrorContext(ctx, "failed to encode user", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.storage.Apply(ctx, Mutation{
		Set: map[string]string{
			TokenKey: session.Token,
			UserKey:  string(encoded),
		},
		Cookie: tokenCookie(session.Token),
	})
	if err != nil {
		s.log(ctx, "Save").ErrorContext(ctx, "failed to persist session", "error", err)
	}
}

// Load returns the stored session, or nil when either key is missing or the
// user record cannot be decoded.
func (s *Store) Load(ctx context.Context) *model.Session {
	if !s.available() {
		return nil
	}

	s.mu.RLock()
	token, hasToken, tokenErr := s.storage.Item(ctx, TokenKey)
	rawUser, hasUser, userErr := s.storage.Item(ctx, UserKey)
	s.mu.RUnlock()

	if tokenErr != nil || userErr != nil {
		s.log(ctx, "Load").ErrorContext(ctx, "failed to read session", "token_error", tokenErr, "user_error", userErr)
		return nil
	}
	if !hasToken || !hasUser || token == "" {
		return nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.log(ctx, "Load").WarnContext(ctx, "discarding undecodable user record", "error", err)
		return nil
	}
	return &model.Session{Token: token, User: user}
}

// Clear removes both local storage keys and expires the cookie.
func (s *Store) Clear(ctx context.Context) {
	if !s.available() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.storage.Apply(ctx, Mutation{
		Remove: []string{TokenKey, UserKey},
		Cookie: expiredTokenCookie(),
	})
	if err != nil {
		s.log(ctx, "Clear").ErrorContext(ctx, "failed to clear session", "error", err)
	}
}

// IsPresent reports whether a token is stored without decoding the user.
func (s *Store) IsPresent(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// Token returns the stored bearer token or the empty string.
func (s *Store) Token(ctx context.Context) string {
	if !s.available() {
		return ""
	}
	s.mu.RLock()
	token, ok, err := s.storage.Item(ctx, TokenKey)
	s.mu.RUnlock()
	if err != nil {
		s.log(ctx, "Token").ErrorContext(ctx, "failed to read token", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// CookieToken returns the token held by the cookie mirror, if it is still live.
func (s *Store) CookieToken(ctx context.Context) string {
	if !s.available() {
		return ""
	}
	s.mu.RLock()
	record, ok, err := s.storage.Cookie(ctx, CookieName)
	s.mu.RUnlock()
	if err != nil {
		s.log(ctx, "CookieToken").ErrorContext(ctx, "failed to read cookie", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return record.Value
}
