// Package console is the workshop console's client of the REST store. It
// composes order views, serializes writes and dispatches reports by kind.
package console

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"motorplus/internal/apierror"
	"motorplus/internal/dto"

	"github.com/go-faster/errors"
)

// Session holds the bearer token issued at login. It is created by Login,
// invalidated by Logout and shared by every Client built on it.
type Session struct {
	baseURL string

	mu       sync.RWMutex
	token    string
	username string
	role     string
	expires  time.Time
}

// Login authenticates against baseURL and returns a live session.
func Login(ctx context.Context, hc *http.Client, baseURL, username, password string) (*Session, error) {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	s := &Session{baseURL: strings.TrimRight(baseURL, "/")}

	var resp dto.LoginResponse
	req := dto.LoginRequest{Username: username, Password: password}
	if err := roundTrip(ctx, hc, http.MethodPost, s.baseURL+"/api/auth/login", "", req, &resp); err != nil {
		return nil, errors.Wrap(err, "login")
	}
	s.token = resp.Token
	s.username = resp.Username
	s.role = resp.Role
	s.expires = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	return s, nil
}

// Logout invalidates the session. Later calls through it fail with
// UNAUTHORIZED without reaching the network.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// Active reports whether the session still carries a usable token.
func (s *Session) Active() bool {
	_, err := s.bearer()
	return err == nil
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) bearer() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.token == "":
		return "", apierror.E(apierror.KindUnauthorized, "sesion cerrada")
	case !s.expires.IsZero() && time.Now().After(s.expires):
		return "", apierror.E(apierror.KindUnauthorized, "sesion expirada")
	}
	return s.token, nil
}
