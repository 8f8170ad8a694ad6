// Package store persists the console's own state in SQLite: the journal of
// multi-step scoring actions and the operator login sessions. Scoring data
// itself lives in the external API and is never stored here.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type Status string

const (
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusCompensated Status = "compensated"
)

type StepStatus string

const (
	StepApplied            StepStatus = "applied"
	StepFailed             StepStatus = "failed"
	StepCompensated        StepStatus = "compensated"
	StepCompensationFailed StepStatus = "compensation_failed"
)

// Step is one field write issued by an action.
type Step struct {
	Seq      int        `json:"seq"`
	Resource string     `json:"resource"`
	EntityID int64      `json:"entityId"`
	Field    string     `json:"field"`
	OldValue int        `json:"oldValue"`
	NewValue int        `json:"newValue"`
	Status   StepStatus `json:"status"`
	Error    string     `json:"error,omitempty"`
}

type Action struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	Status     Status          `json:"status"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  string          `json:"createdAt"`
	FinishedAt *string         `json:"finishedAt"`
	Steps      []Step          `json:"steps"`
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Check satisfies the health checker contract.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Begin opens a journal entry for an action and returns its id.
func (s *Store) Begin(ctx context.Context, kind string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding action payload: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO actions (id, kind, payload, status)
		VALUES (?, ?, ?, ?)
	`, id, kind, string(raw), StatusRunning)
	if err != nil {
		return "", fmt.Errorf("inserting action: %w", err)
	}
	return id, nil
}

// RecordStep writes a step, or updates its status when the same seq was
// recorded before (a compensated step).
func (s *Store) RecordStep(ctx context.Context, actionID string, st Step) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO action_steps (action_id, seq, resource, entity_id, field, old_value, new_value, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (action_id, seq) DO UPDATE SET status = excluded.status, error = excluded.error
	`, actionID, st.Seq, st.Resource, st.EntityID, st.Field, st.OldValue, st.NewValue, st.Status, st.Error)
	if err != nil {
		return fmt.Errorf("recording step %d: %w", st.Seq, err)
	}
	return nil
}

func (s *Store) Finish(ctx context.Context, actionID string, status Status, errMsg string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE actions
		SET status = ?, error = ?, finished_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
	`, status, errMsg, actionID)
	if err != nil {
		return fmt.Errorf("finishing action: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActions returns the most recent actions first, with their steps.
func (s *Store) ListActions(ctx context.Context, limit int) ([]Action, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, payload, status, error, created_at, finished_at
		FROM actions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	defer rows.Close()

	actions := []Action{}
	index := map[string]int{}
	for rows.Next() {
		var a Action
		var payload string
		var finished sql.NullString
		if err := rows.Scan(&a.ID, &a.Kind, &payload, &a.Status, &a.Error, &a.CreatedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		a.Payload = json.RawMessage(payload)
		if finished.Valid {
			a.FinishedAt = &finished.String
		}
		a.Steps = []Step{}
		index[a.ID] = len(actions)
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return actions, nil
	}

	stepRows, err := s.db.QueryContext(ctx, `
		SELECT action_id, seq, resource, entity_id, field, old_value, new_value, status, error
		FROM action_steps
		WHERE action_id IN (SELECT id FROM actions ORDER BY created_at DESC, rowid DESC LIMIT ?)
		ORDER BY action_id, seq
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying steps: %w", err)
	}
	defer stepRows.Close()

	for stepRows.Next() {
		var actionID string
		var st Step
		if err := stepRows.Scan(&actionID, &st.Seq, &st.Resource, &st.EntityID, &st.Field, &st.OldValue, &st.NewValue, &st.Status, &st.Error); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		if i, ok := index[actionID]; ok {
			actions[i].Steps = append(actions[i].Steps, st)
		}
	}
	return actions, stepRows.Err()
}
