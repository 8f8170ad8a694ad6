package console

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hkpass/console/internal/scoring"
	"github.com/hkpass/console/internal/store"
)

type SessionStore interface {
	CreateSession(ctx context.Context) (store.Session, error)
	SessionByID(ctx context.Context, id string) (store.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// SettingsSource yields the remote settings holding the fallback password.
type SettingsSource func(ctx context.Context) (scoring.Settings, error)

// Gate opens and closes operator sessions.
//
// With a bcrypt hash configured it is the only accepted credential.
// Without one the gate falls back to the login_password the scoring API
// serves in plaintext to anyone who asks, which is logged on every use.
type Gate struct {
	hash     []byte
	sessions SessionStore
	settings SettingsSource
	logger   *slog.Logger
}

func NewGate(passwordHash string, sessions SessionStore, settings SettingsSource, logger *slog.Logger) *Gate {
	g := &Gate{sessions: sessions, settings: settings, logger: logger}
	if passwordHash != "" {
		g.hash = []byte(passwordHash)
	}
	return g
}

// Login starts a session when password is accepted.
func (g *Gate) Login(ctx context.Context, password string) (store.Session, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return store.Session{}, invalid("password is required")
	}
	if err := g.verify(ctx, password); err != nil {
		return store.Session{}, err
	}
	sess, err := g.sessions.CreateSession(ctx)
	if err != nil {
		return store.Session{}, err
	}
	g.logger.Info("operator logged in", "session", shortID(sess.ID))
	return sess, nil
}

// Logout ends the session. Unknown ids are not an error.
func (g *Gate) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return g.sessions.DeleteSession(ctx, id)
}

// Session returns the live session with the given id.
func (g *Gate) Session(ctx context.Context, id string) (store.Session, error) {
	if id == "" {
		return store.Session{}, ErrNotFound
	}
	sess, err := g.sessions.SessionByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Session{}, ErrNotFound
	}
	return sess, err
}

func (g *Gate) verify(ctx context.Context, password string) error {
	if g.hash != nil {
		if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
			return ErrInvalidCredentials
		}
		return nil
	}

	s, err := g.settings(ctx)
	if err != nil {
		return fmt.Errorf("loading login password: %w", err)
	}
	g.logger.Warn("checking login against the scoring API's plaintext login_password; set ADMIN_PASSWORD_HASH")
	want := strings.TrimSpace(s.LoginPassword)
	if want == "" {
		g.logger.Error("no login password configured, refusing all logins")
		return ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(want)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
