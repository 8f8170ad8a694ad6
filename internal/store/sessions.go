package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Session struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
}

func (s *Store) CreateSession(ctx context.Context) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id)
		VALUES (lower(hex(randomblob(16))))
		RETURNING id, created_at
	`).Scan(&sess.ID, &sess.CreatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

func (s *Store) SessionByID(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
