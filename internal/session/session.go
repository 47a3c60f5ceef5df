// Package session holds the signed-in account state: the bearer token, its
// persistence, and the forced sign-out path when the backend rejects it.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/happygorentals/client-go/internal/common"
)

// User is the signed-in account's profile as returned at login.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Store persists credentials between runs. The device app backs this with
// the platform keychain; the CLI with a file.
type Store interface {
	Load(ctx context.Context) (token string, err error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore is a process-local Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryStore) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

// Session tracks the current account. It implements the API client's token
// source; its HandleUnauthorized method is the client's unauthorized hook.
type Session struct {
	mu     sync.RWMutex
	token  string
	claims tokenClaims
	user   User

	store  Store
	logger zerolog.Logger
	// Now is injectable for tests.
	Now func() time.Time
	// onExpired fires once when credentials are dropped because the backend
	// rejected them or the token aged out.
	onExpired func()
}

// New constructs a session. store may be nil for a purely in-memory session.
func New(store Store, logger zerolog.Logger, onExpired func()) *Session {
	return &Session{
		store:     store,
		logger:    logger,
		Now:       time.Now,
		onExpired: onExpired,
	}
}

// Restore loads persisted credentials. An expired or malformed token is
// discarded silently; the user simply starts signed out.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	token, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return nil
	}
	claims, err := parseClaims(token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("session_restore_bad_token")
		return s.store.Clear(ctx)
	}
	if !claims.ExpiresAt.IsZero() && !claims.ExpiresAt.After(s.Now()) {
		return s.store.Clear(ctx)
	}
	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()
	return nil
}

// SignIn installs fresh credentials after a successful login.
func (s *Session) SignIn(ctx context.Context, token string, user User) error {
	claims, err := parseClaims(token)
	if err != nil {
		return common.NewAppError(common.KindInternal, "BAD_TOKEN", "received a malformed session token", err)
	}
	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.user = user
	s.mu.Unlock()
	if s.store != nil {
		return s.store.Save(ctx, token)
	}
	return nil
}

// SignOut drops credentials locally and from the store.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.claims = tokenClaims{}
	s.user = User{}
	s.mu.Unlock()
	if s.store != nil {
		return s.store.Clear(ctx)
	}
	return nil
}

// Token implements the API client's token source. An expired token is
// surfaced as empty so the backend's 401 drives the sign-out path exactly
// once.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", nil
	}
	if !s.claims.ExpiresAt.IsZero() && !s.claims.ExpiresAt.After(s.Now()) {
		return "", nil
	}
	return s.token, nil
}

// HandleUnauthorized is wired as the API client's unauthorized hook. It
// drops credentials and notifies the app shell to show the login screen.
func (s *Session) HandleUnauthorized() {
	s.mu.Lock()
	wasAuthenticated := s.token != ""
	s.token = ""
	s.claims = tokenClaims{}
	s.user = User{}
	s.mu.Unlock()
	if s.store != nil {
		_ = s.store.Clear(context.Background())
	}
	if wasAuthenticated {
		s.logger.Info().Msg("session_expired")
		if s.onExpired != nil {
			s.onExpired()
		}
	}
}

// Authenticated reports whether a non-expired token is present.
func (s *Session) Authenticated() bool {
	token, _ := s.Token(context.Background())
	return token != ""
}

// User returns the signed-in profile, zero when signed out.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// UserID returns the token subject, used to scope per-account caches.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user.ID != "" {
		return s.user.ID
	}
	return s.claims.Subject
}

// ExpiresAt returns the token expiry, zero when unknown.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims.ExpiresAt
}
