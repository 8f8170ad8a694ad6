package console

import (
	"context"
	"fmt"

	"github.com/hkpass/console/internal/scoreapi"
	"github.com/hkpass/console/internal/scoring"
	"github.com/hkpass/console/internal/store"
)

// FieldWrite sets one numeric field of one entity. From is the value the
// cache held when the write was planned; it is what compensation restores.
type FieldWrite struct {
	Resource string `json:"resource"`
	EntityID int64  `json:"entityId"`
	Field    string `json:"field"`
	From     int    `json:"from"`
	To       int    `json:"to"`
}

type ActionResult struct {
	ActionID string       `json:"actionId,omitempty"`
	Kind     string       `json:"kind"`
	Status   store.Status `json:"status"`
	Steps    []store.Step `json:"steps"`
}

// runAction issues writes strictly in order, each one awaited before the
// next. The first failure stops the sequence; with compensation enabled
// the writes already applied are reverted newest first.
func (c *Console) runAction(ctx context.Context, kind string, payload any, writes []FieldWrite) (ActionResult, error) {
	res := ActionResult{Kind: kind, Status: store.StatusRunning, Steps: make([]store.Step, 0, len(writes))}

	id, err := c.journal.Begin(ctx, kind, payload)
	if err != nil {
		c.logger.Warn("journal begin failed", "kind", kind, "error", err)
	}
	res.ActionID = id

	for i, w := range writes {
		st := store.Step{
			Seq:      i + 1,
			Resource: w.Resource,
			EntityID: w.EntityID,
			Field:    w.Field,
			OldValue: w.From,
			NewValue: w.To,
			Status:   store.StepApplied,
		}
		if werr := c.writeField(ctx, w.Resource, w.EntityID, w.Field, w.To); werr != nil {
			st.Status = store.StepFailed
			st.Error = werr.Error()
			res.Steps = append(res.Steps, st)
			c.recordStep(ctx, id, st)

			res.Status = store.StatusFailed
			if c.compensate && i > 0 {
				res.Status = c.compensateSteps(ctx, id, &res, writes[:i])
			}
			c.finish(ctx, id, res.Status, werr.Error())
			c.logger.Error("action failed",
				"kind", kind,
				"action_id", id,
				"step", i+1,
				"status", res.Status,
				"error", werr,
			)
			c.pub.Publish(TopicAll, Event{Type: "action", Action: kind, ActionID: id})
			return res, &ActionError{Kind: kind, Seq: i + 1, Err: werr, Result: res}
		}
		res.Steps = append(res.Steps, st)
		c.recordStep(ctx, id, st)
	}

	res.Status = store.StatusSucceeded
	c.finish(ctx, id, res.Status, "")
	c.logger.Info("action applied", "kind", kind, "action_id", id, "steps", len(writes))
	c.pub.Publish(TopicAll, Event{Type: "action", Action: kind, ActionID: id})
	return res, nil
}

// compensateSteps restores the From value of every applied write, newest
// first. It runs detached from ctx so a disconnecting caller cannot leave
// the rollback half done.
func (c *Console) compensateSteps(ctx context.Context, id string, res *ActionResult, applied []FieldWrite) store.Status {
	ctx = context.WithoutCancel(ctx)
	status := store.StatusCompensated
	for i := len(applied) - 1; i >= 0; i-- {
		w := applied[i]
		st := &res.Steps[i]
		if err := c.writeField(ctx, w.Resource, w.EntityID, w.Field, w.From); err != nil {
			st.Status = store.StepCompensationFailed
			st.Error = err.Error()
			status = store.StatusFailed
			c.logger.Error("compensation failed",
				"action_id", id,
				"resource", w.Resource,
				"entity_id", w.EntityID,
				"field", w.Field,
				"error", err,
			)
		} else {
			st.Status = store.StepCompensated
		}
		c.recordStep(ctx, id, *st)
	}
	return status
}

// writeField PATCHes a single field and folds the server's representation
// back into the cache.
func (c *Console) writeField(ctx context.Context, resource string, id int64, field string, value int) error {
	fields := scoreapi.Fields{field: value}
	switch resource {
	case scoring.ResourceTeams:
		t, err := c.api.PatchTeam(ctx, id, fields)
		if err != nil {
			return err
		}
		c.teams.Replace(c.stamp(), t)
	case scoring.ResourcePlayers:
		p, err := c.api.PatchPlayer(ctx, id, fields)
		if err != nil {
			return err
		}
		c.players.Replace(c.stamp(), p)
	case scoring.ResourceMiniGames:
		g, err := c.api.PatchMiniGame(ctx, id, fields)
		if err != nil {
			return err
		}
		c.games.Replace(c.stamp(), g)
	default:
		return fmt.Errorf("unsupported resource %q", resource)
	}
	return nil
}

func (c *Console) recordStep(ctx context.Context, id string, st store.Step) {
	if id == "" {
		return
	}
	if err := c.journal.RecordStep(context.WithoutCancel(ctx), id, st); err != nil {
		c.logger.Warn("journal step failed", "action_id", id, "seq", st.Seq, "error", err)
	}
}

func (c *Console) finish(ctx context.Context, id string, status store.Status, msg string) {
	if id == "" {
		return
	}
	if err := c.journal.Finish(context.WithoutCancel(ctx), id, status, msg); err != nil {
		c.logger.Warn("journal finish failed", "action_id", id, "error", err)
	}
}
