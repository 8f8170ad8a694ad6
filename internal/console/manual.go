package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/hkpass/console/internal/projection"
	"github.com/hkpass/console/internal/scoreapi"
	"github.com/hkpass/console/internal/scoring"
)

const KindClear = "clear"

// Clear resets one counter to zero. It is journaled like the scoring
// actions since it is the one write that is not an additive delta.
func (c *Console) Clear(ctx context.Context, resource string, id int64, field string) (ActionResult, error) {
	if !canClear(resource, field) {
		return ActionResult{Kind: KindClear}, invalid("%s of %s cannot be cleared", field, resource)
	}

	var from int
	switch resource {
	case scoring.ResourceTeams:
		t, ok := c.teams.Find(id)
		if !ok {
			return ActionResult{Kind: KindClear}, fmt.Errorf("team %d: %w", id, ErrNotFound)
		}
		from = t.Score
		if field == "attacked_count" {
			from = t.AttackedCount
		}
	case scoring.ResourcePlayers:
		p, ok := c.players.Find(id)
		if !ok {
			return ActionResult{Kind: KindClear}, fmt.Errorf("player %d: %w", id, ErrNotFound)
		}
		from = p.PersonalScore
		if field == "chips" {
			from = p.Chips
		}
	case scoring.ResourceMiniGames:
		g, ok := c.games.Find(id)
		if !ok {
			return ActionResult{Kind: KindClear}, fmt.Errorf("minigame %d: %w", id, ErrNotFound)
		}
		from = g.PlayCount
	}

	w := FieldWrite{Resource: resource, EntityID: id, Field: field, From: from, To: 0}
	return c.runAction(ctx, KindClear, w, []FieldWrite{w})
}

func (c *Console) UpdateTeam(ctx context.Context, id int64, in map[string]any) (scoring.Team, error) {
	fields, err := teamSchema.coerce(in)
	if err != nil {
		return scoring.Team{}, err
	}
	if name, ok := fields["name"].(string); ok && strings.TrimSpace(name) == "" {
		return scoring.Team{}, invalid("team name cannot be empty")
	}
	t, err := c.api.PatchTeam(ctx, id, fields)
	if err != nil {
		return scoring.Team{}, c.upstream(err, "team", id)
	}
	c.teams.Add(c.stamp(), t)
	c.entityChanged(scoring.ResourceTeams)
	return t, nil
}

func (c *Console) UpdatePlayer(ctx context.Context, id int64, in map[string]any) (scoring.Player, error) {
	fields, err := playerSchema.coerce(in)
	if err != nil {
		return scoring.Player{}, err
	}
	p, err := c.api.PatchPlayer(ctx, id, fields)
	if err != nil {
		return scoring.Player{}, c.upstream(err, "player", id)
	}
	c.players.Add(c.stamp(), p)
	c.entityChanged(scoring.ResourcePlayers)
	return p, nil
}

func (c *Console) UpdateMiniGame(ctx context.Context, id int64, in map[string]any) (scoring.MiniGame, error) {
	fields, err := miniGameSchema.coerce(in)
	if err != nil {
		return scoring.MiniGame{}, err
	}
	g, err := c.api.PatchMiniGame(ctx, id, fields)
	if err != nil {
		return scoring.MiniGame{}, c.upstream(err, "minigame", id)
	}
	c.games.Add(c.stamp(), g)
	c.entityChanged(scoring.ResourceMiniGames)
	return g, nil
}

// UpdateSettings patches the settings singleton. The returned value is
// redacted.
func (c *Console) UpdateSettings(ctx context.Context, in map[string]any) (scoring.Settings, error) {
	fields, err := settingsSchema.coerce(in)
	if err != nil {
		return scoring.Settings{}, err
	}
	cur, err := c.LoadSettings(ctx)
	if err != nil {
		return scoring.Settings{}, err
	}
	s, err := c.api.PatchSettings(ctx, cur.ID, fields)
	if err != nil {
		return scoring.Settings{}, c.upstream(err, "settings", cur.ID)
	}
	c.settings.Replace(c.stamp(), s)
	c.entityChanged(scoring.ResourceSettings)
	return s.Redacted(), nil
}

func (c *Console) CreateTeam(ctx context.Context, in map[string]any) (scoring.Team, error) {
	fields, err := teamSchema.coerce(in)
	if err != nil {
		return scoring.Team{}, err
	}
	if name, _ := fields["name"].(string); strings.TrimSpace(name) == "" {
		return scoring.Team{}, invalid("team name is required")
	}
	withDefault(fields, "score", 0)
	withDefault(fields, "attacked_count", 0)

	t, err := c.api.CreateTeam(ctx, fields)
	if err != nil {
		return scoring.Team{}, err
	}
	c.teams.Add(c.stamp(), t)
	c.entityChanged(scoring.ResourceTeams)
	return t, nil
}

// CreatePlayer creates a player. An empty number is filled with the next
// free number.
func (c *Console) CreatePlayer(ctx context.Context, in map[string]any) (scoring.Player, error) {
	fields, err := playerSchema.coerce(in)
	if err != nil {
		return scoring.Player{}, err
	}
	if name, _ := fields["name"].(string); strings.TrimSpace(name) == "" {
		return scoring.Player{}, invalid("player name is required")
	}
	if num, _ := fields["number"].(string); strings.TrimSpace(num) == "" {
		fields["number"] = projection.NextPlayerNumber(c.players.Snapshot())
	}
	withDefault(fields, "personal_score", 0)
	withDefault(fields, "chips", 0)
	withDefault(fields, "completed_minigame_count", 0)

	p, err := c.api.CreatePlayer(ctx, fields)
	if err != nil {
		return scoring.Player{}, err
	}
	c.players.Add(c.stamp(), p)
	c.entityChanged(scoring.ResourcePlayers)
	return p, nil
}

func (c *Console) CreateMiniGame(ctx context.Context, in map[string]any) (scoring.MiniGame, error) {
	fields, err := miniGameSchema.coerce(in)
	if err != nil {
		return scoring.MiniGame{}, err
	}
	for _, f := range []string{"category", "room", "name"} {
		if v, _ := fields[f].(string); strings.TrimSpace(v) == "" {
			return scoring.MiniGame{}, invalid("%s is required", f)
		}
	}
	if _, ok := fields["available_chips"]; !ok {
		return scoring.MiniGame{}, invalid("available_chips is required")
	}
	withDefault(fields, "play_count", 0)

	g, err := c.api.CreateMiniGame(ctx, fields)
	if err != nil {
		return scoring.MiniGame{}, err
	}
	c.games.Add(c.stamp(), g)
	c.entityChanged(scoring.ResourceMiniGames)
	return g, nil
}

func (c *Console) DeleteTeam(ctx context.Context, id int64) error {
	if err := c.api.DeleteTeam(ctx, id); err != nil {
		return c.upstream(err, "team", id)
	}
	c.teams.Remove(c.stamp(), id)
	c.entityChanged(scoring.ResourceTeams)
	return nil
}

func (c *Console) DeletePlayer(ctx context.Context, id int64) error {
	if err := c.api.DeletePlayer(ctx, id); err != nil {
		return c.upstream(err, "player", id)
	}
	c.players.Remove(c.stamp(), id)
	c.entityChanged(scoring.ResourcePlayers)
	return nil
}

func (c *Console) DeleteMiniGame(ctx context.Context, id int64) error {
	if err := c.api.DeleteMiniGame(ctx, id); err != nil {
		return c.upstream(err, "minigame", id)
	}
	c.games.Remove(c.stamp(), id)
	c.entityChanged(scoring.ResourceMiniGames)
	return nil
}

func withDefault(fields scoreapi.Fields, key string, v any) {
	if _, ok := fields[key]; !ok {
		fields[key] = v
	}
}

// upstream turns an API 404 for a known entity into ErrNotFound.
func (c *Console) upstream(err error, what string, id int64) error {
	if isUpstreamNotFound(err) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}

func (c *Console) entityChanged(resource string) {
	c.pub.Publish(TopicAll, Event{Type: "entity", Resources: []string{resource}})
}
