// Package session owns the bearer token used by the API client and the
// teardown sequence that runs when the token is rejected or the user logs out.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wolfman30/mypatients/internal/observability/metrics"
)

// ErrNoToken is returned by Claims when no token is stored.
var ErrNoToken = errors.New("session: no token")

// TokenStore persists the session token. Load returns "" when absent.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Reason describes why a teardown happened.
type Reason string

const (
	ReasonUnauthorized Reason = "unauthorized"
	ReasonLogout       Reason = "logout"
)

// Teardown is passed to hooks once the token has been cleared.
type Teardown struct {
	Reason   Reason
	HadToken bool
}

// Hook runs during teardown while the session is locked. Hooks must not call
// back into the Session.
type Hook func(ctx context.Context, t Teardown)

// Session is the lifetime-scoped holder of the token store and teardown hooks.
type Session struct {
	store   TokenStore
	logger  *slog.Logger
	metrics *metrics.ClientMetrics

	mu    sync.RWMutex
	hooks []Hook
}

type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(s *Session) { s.metrics = m }
}

func New(store TokenStore, opts ...Option) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Session{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the stored token or "" when unauthenticated.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, err := s.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("session: load token: %w", err)
	}
	return token, nil
}

// Authenticated reports whether a token is present. Presence does not imply
// the server will accept it.
func (s *Session) Authenticated(ctx context.Context) bool {
	token, err := s.Token(ctx)
	return err == nil && token != ""
}

// Login stores a freshly issued token.
func (s *Session) Login(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("session: empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, token); err != nil {
		return fmt.Errorf("session: save token: %w", err)
	}
	s.logger.Debug("session started")
	return nil
}

// OnTeardown registers a hook run on logout and on every rejected token.
func (s *Session) OnTeardown(h Hook) {
	if h == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// Logout clears the token and runs the teardown hooks.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("session: load token: %w", err)
	}
	return s.teardownLocked(ctx, Teardown{Reason: ReasonLogout, HadToken: current != ""})
}

// Expire tears the session down after the server rejected the token that was
// sent. If another token has been stored since, nothing happens and false is
// returned.
func (s *Session) Expire(ctx context.Context, rejected string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("session: load token: %w", err)
	}
	if current != rejected {
		s.logger.Debug("ignoring rejection of a superseded token")
		return false, nil
	}
	if err := s.teardownLocked(ctx, Teardown{Reason: ReasonUnauthorized, HadToken: current != ""}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) teardownLocked(ctx context.Context, t Teardown) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("session: clear token: %w", err)
	}
	for _, hook := range s.hooks {
		hook(ctx, t)
	}
	s.metrics.ObserveTeardown(string(t.Reason))
	s.logger.Info("session torn down", "reason", t.Reason, "had_token", t.HadToken)
	return nil
}

// Claims are the unverified token claims, for display only.
type Claims struct {
	PID       string
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim is in the past.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims decodes the stored token without verifying its signature.
func (s *Session) Claims(ctx context.Context) (*Claims, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoToken
	}
	return ParseClaims(token)
}

// ParseClaims reads pid and exp from a JWT without checking its signature.
func ParseClaims(token string) (*Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("session: parse token: %w", err)
	}
	out := &Claims{}
	if pid, ok := claims["pid"].(string); ok {
		out.PID = pid
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("session: read exp claim: %w", err)
	}
	if exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
