package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/hkpass/console/internal/projection"
	"github.com/hkpass/console/internal/scoring"
)

const KindGameScore = "game_score"

type ScoreRequest struct {
	GameID   int64  `json:"gameId"`
	Team     string `json:"team"`
	PlayerID int64  `json:"playerId"`
}

// PlanGameScore credits a player with a game's available chips and counts
// one more play of the game.
func PlanGameScore(req ScoreRequest, game scoring.MiniGame, teams []scoring.Team, players []scoring.Player) ([]FieldWrite, error) {
	if strings.TrimSpace(req.Team) == "" || req.PlayerID == 0 {
		return nil, invalid("select a team and a player")
	}
	var player scoring.Player
	found := false
	for _, p := range projection.FilterByTeam(players, req.Team, teams) {
		if p.ID == req.PlayerID {
			player, found = p, true
			break
		}
	}
	if !found {
		return nil, invalid("player %d is not a member of team %q", req.PlayerID, strings.TrimSpace(req.Team))
	}

	return []FieldWrite{
		{
			Resource: scoring.ResourcePlayers,
			EntityID: player.ID,
			Field:    "chips",
			From:     player.Chips,
			To:       player.Chips + game.AvailableChips,
		},
		{
			Resource: scoring.ResourceMiniGames,
			EntityID: game.ID,
			Field:    "play_count",
			From:     game.PlayCount,
			To:       game.PlayCount + 1,
		},
	}, nil
}

// ScoreGame records one play of a mini-game.
func (c *Console) ScoreGame(ctx context.Context, req ScoreRequest) (ActionResult, error) {
	game, err := c.miniGame(ctx, req.GameID)
	if err != nil {
		return ActionResult{Kind: KindGameScore}, err
	}
	writes, err := PlanGameScore(req, game, c.teams.Snapshot(), c.players.Snapshot())
	if err != nil {
		return ActionResult{Kind: KindGameScore}, err
	}
	return c.runAction(ctx, KindGameScore, req, writes)
}

// miniGame reads a game from the cache, falling back to the API for games
// created since the last tick.
func (c *Console) miniGame(ctx context.Context, id int64) (scoring.MiniGame, error) {
	if g, ok := c.games.Find(id); ok {
		return g, nil
	}
	g, err := c.api.GetMiniGame(ctx, id)
	if isUpstreamNotFound(err) {
		return scoring.MiniGame{}, fmt.Errorf("minigame %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return scoring.MiniGame{}, err
	}
	c.games.Add(c.stamp(), g)
	return g, nil
}
