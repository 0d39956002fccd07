// Package auth owns the client session: the bearer token (persisted across
// restarts), the logged-in user, and forced logout when the backend reports
// an expired session. It is an explicit injectable store, not a global.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
	"github.com/JoseFeliciano-spec/tienda-storefront/internal/storage"
)

// API is the slice of the backend client the session needs.
type API interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password string) (domain.User, error)
	Me(ctx context.Context) (domain.User, error)
}

type Session struct {
	mu      sync.RWMutex
	store   storage.LocalStore
	log     *zap.Logger
	user    *domain.User
	token   string
	expired bool // guards the forced-logout notice so parallel 401s fire it once
}

// NewSession restores any persisted token so the user stays signed in
// across restarts.
func NewSession(ctx context.Context, store storage.LocalStore, log *zap.Logger) *Session {
	s := &Session{store: store, log: log}

	data, err := store.Get(ctx, storage.KeyAccessToken)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		log.Warn("failed to read persisted token", zap.Error(err))
	}
	if len(data) > 0 {
		s.token = string(data)
	}
	return s
}

// Token implements api.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Login authenticates, persists the token, and loads the user profile.
func (s *Session) Login(ctx context.Context, api API, email, password string) error {
	token, err := api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	s.setToken(ctx, token)

	user, err := api.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to load user after login: %w", err)
	}
	s.setUser(user)

	s.log.Info("logged in", zap.String("user_id", user.ID))
	return nil
}

func (s *Session) Register(ctx context.Context, api API, name, email, password string) (domain.User, error) {
	return api.Register(ctx, name, email, password)
}

// Refresh reloads the profile for a persisted token, e.g. on cold start.
func (s *Session) Refresh(ctx context.Context, api API) error {
	if s.Token() == "" {
		return nil
	}
	user, err := api.Me(ctx)
	if err != nil {
		return err
	}
	s.setUser(user)
	return nil
}

// Logout clears the session and the persisted token.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.expired = false
	s.mu.Unlock()

	if err := s.store.Delete(ctx, storage.KeyAccessToken); err != nil {
		s.log.Error("failed to clear persisted token", zap.Error(err))
	}
}

// HandleUnauthorized is the forced-logout hook wired into the API client.
// Overlapping 401s from parallel requests collapse into one logout.
func (s *Session) HandleUnauthorized() {
	s.mu.Lock()
	if s.expired {
		s.mu.Unlock()
		return
	}
	s.expired = true
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	s.log.Warn("session expired, forcing logout")
	if err := s.store.Delete(context.Background(), storage.KeyAccessToken); err != nil {
		s.log.Error("failed to clear persisted token", zap.Error(err))
	}
}

func (s *Session) setToken(ctx context.Context, token string) {
	s.mu.Lock()
	s.token = token
	s.expired = false
	s.mu.Unlock()

	if err := s.store.Put(ctx, storage.KeyAccessToken, []byte(token)); err != nil {
		s.log.Error("failed to persist token", zap.Error(err))
	}
}

func (s *Session) setUser(user domain.User) {
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
}
