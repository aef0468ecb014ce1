package unireservas

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the identity token claims the client reads. The signature
// is not checked here; the backend verifies every token it receives.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ParseTokenClaims decodes the claims of an identity token without verifying
// it.
func ParseTokenClaims(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token claims: %w", err)
	}
	return claims, nil
}

// SessionState is the persisted form of a Session.
type SessionState struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	User         *AuthUser `json:"user,omitempty"`
}

// Session holds the current auth session: the identity token and the cached
// account record. It is a TokenSource.
type Session struct {
	mu           sync.RWMutex
	token        string
	refreshToken string
	user         *AuthUser
	now          Clock
}

type SessionOption func(*Session)

// WithSessionClock sets the clock used for expiry checks.
func WithSessionClock(now Clock) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the identity token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns a copy of the cached account record.
func (s *Session) User() *AuthUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Set replaces the whole session.
func (s *Session) Set(token, refreshToken string, user *AuthUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.refreshToken = refreshToken
	s.user = copyUser(user)
}

// SetTokens swaps in refreshed tokens and keeps the cached user.
func (s *Session) SetTokens(token, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if refreshToken != "" {
		s.refreshToken = refreshToken
	}
}

func (s *Session) SetUser(user *AuthUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = copyUser(user)
}

// Clear signs the session out.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.refreshToken = ""
	s.user = nil
}

// ExpiresAt reads the exp claim of the token.
func (s *Session) ExpiresAt() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims, err := ParseTokenClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token carries an exp claim that has passed.
// Tokens without a readable expiry are not considered expired.
func (s *Session) Expired() bool {
	exp, ok := s.ExpiresAt()
	return ok && !s.now().Before(exp)
}

// IsAuthenticated is true when there is a token, an account record is
// cached and the token has not expired.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	ok := s.token != "" && s.user != nil
	s.mu.RUnlock()
	return ok && !s.Expired()
}

func (s *Session) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionState{Token: s.token, RefreshToken: s.refreshToken, User: copyUser(s.user)}
}

func (s *Session) Restore(st SessionState) {
	s.Set(st.Token, st.RefreshToken, st.User)
}

func copyUser(u *AuthUser) *AuthUser {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
