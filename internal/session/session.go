// Package session owns the admin bearer token: one Manager per process, injected
// into the REST client instead of being read from ambient storage.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSession = errors.New("no stored session")

type Session struct {
	AccessToken string     `json:"access_token"`
	Email       string     `json:"email,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	SavedAt     time.Time  `json:"saved_at"`
}

func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

type Store interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

type Manager struct {
	mu      sync.RWMutex
	store   Store
	current Session
	now     func() time.Time
	log     *slog.Logger
}

func NewManager(store Store, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{store: store, now: time.Now, log: log}

	s, err := store.Load()
	switch {
	case errors.Is(err, ErrNoSession):
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	default:
		m.current = s
	}
	return m, nil
}

// AccessToken returns the bearer token, or "" when there is none or it has expired.
// Requests then go out unauthenticated and the backend decides.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current.AccessToken == "" {
		return ""
	}
	if m.current.Expired(m.now()) {
		m.log.Debug("stored session expired", "email", m.current.Email)
		return ""
	}
	return m.current.AccessToken
}

// Attach stores a freshly issued token, replacing any previous one.
func (m *Manager) Attach(token, email string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty access token")
	}

	s := Session{
		AccessToken: token,
		Email:       strings.TrimSpace(email),
		ExpiresAt:   tokenExpiry(token),
		SavedAt:     m.now().UTC(),
	}
	if err := m.store.Save(s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}

func (m *Manager) Clear() error {
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current.AccessToken != ""
}

// tokenExpiry reads exp without verifying; the signature is the backend's business.
func tokenExpiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time.UTC()
	return &t
}
