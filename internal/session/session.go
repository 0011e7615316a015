// Package session holds the process-wide login state: bearer token, cached
// user, and the last selected project. It is loaded once at startup and
// passed by reference to whatever needs it.
//
// The role check here only decides which commands to offer. The backend
// enforces authorization on every request.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/raphaelgruber/visadesk/internal/models"
	"gopkg.in/yaml.v3"
)

var (
	ErrNotLoggedIn   = errors.New("not logged in; run 'visadesk login'")
	ErrAdminRequired = errors.New("this command requires an admin account")
)

// Session is the cached login state.
type Session struct {
	Token         string      `yaml:"token,omitempty"`
	UserID        string      `yaml:"user_id,omitempty"`
	Email         string      `yaml:"email,omitempty"`
	Name          string      `yaml:"name,omitempty"`
	Role          models.Role `yaml:"role,omitempty"`
	LastProjectID string      `yaml:"last_project_id,omitempty"`

	path string
}

// Claims are the token fields the client reads for display.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Load reads the session file. A missing file yields an empty session bound
// to path.
func Load(path string) (*Session, error) {
	s := &Session{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	return s, nil
}

// Save writes the session file with owner-only permissions.
func (s *Session) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// SetUser records a successful login.
func (s *Session) SetUser(token string, user models.User) {
	s.Token = token
	s.UserID = user.ID
	s.Email = user.Email
	s.Name = user.Name
	s.Role = user.Role
}

// Clear forgets the login but keeps the last selected project.
func (s *Session) Clear() error {
	last := s.LastProjectID
	*s = Session{path: s.path, LastProjectID: last}
	return s.Save()
}

// Claims decodes the token without verifying its signature. The result is
// for display and expiry hints only.
func (s *Session) Claims() (*Claims, error) {
	if s.Token == "" {
		return nil, ErrNotLoggedIn
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token carries an expiry in the past. Opaque
// tokens never count as expired.
func (s *Session) Expired(now time.Time) bool {
	claims, err := s.Claims()
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return now.After(claims.ExpiresAt.Time)
}

// LoggedIn reports whether a usable token is cached.
func (s *Session) LoggedIn(now time.Time) bool {
	return s.Token != "" && !s.Expired(now)
}

// EffectiveRole prefers the cached user's role and falls back to the token.
func (s *Session) EffectiveRole() models.Role {
	if s.Role != "" {
		return s.Role
	}
	if claims, err := s.Claims(); err == nil {
		return models.Role(claims.Role)
	}
	return ""
}

// RequireAdmin hides admin screens from non-admins.
func (s *Session) RequireAdmin(now time.Time) error {
	if !s.LoggedIn(now) {
		return ErrNotLoggedIn
	}
	if s.EffectiveRole() != models.RoleAdmin {
		return ErrAdminRequired
	}
	return nil
}
