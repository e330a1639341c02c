// Package session persists who is signed in on this machine. Callers get
// a Session value and pass it explicitly to whatever needs it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"bookstore/pkg/models"
)

// Session is a snapshot; changing a copy never affects the stored state.
type Session struct {
	LoggedIn bool        `json:"isLoggedIn"`
	Username string      `json:"username,omitempty"`
	Email    string      `json:"email,omitempty"`
	Role     models.Role `json:"role,omitempty"`
	UserID   int64       `json:"userId,omitempty"`
	Token    string      `json:"token,omitempty"`
}

// Guest is the session of nobody signed in.
func Guest() Session {
	return Session{Role: models.RoleGuest}
}

// New builds a signed-in session from the user the server returned.
func New(u models.User, token string) Session {
	return Session{
		LoggedIn: true,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		UserID:   u.ID,
		Token:    token,
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.bookstore-session.json"
	}
	return filepath.Join(home, ".bookstore", "session.json")
}

type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load returns the stored session, or Guest when nothing is stored.
func (s *Store) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Guest(), nil
		}
		return Guest(), fmt.Errorf("read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Guest(), fmt.Errorf("decode session: %w", err)
	}
	sess.Token = strings.TrimSpace(sess.Token)
	if !sess.LoggedIn || sess.Token == "" {
		return Guest(), nil
	}
	return sess, nil
}

func (s *Store) Save(sess Session) error {
	if !sess.LoggedIn || strings.TrimSpace(sess.Token) == "" {
		return errors.New("save session: not logged in")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear forgets every stored key. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
