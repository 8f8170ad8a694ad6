package scoreapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/hkpass/console/internal/scoring"
)

func (c *Client) ListTeams(ctx context.Context) ([]scoring.Team, error) {
	var teams []scoring.Team
	if err := c.Get(ctx, "/teams/", &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// TeamByName looks a team up with the API's name filter and returns the
// first match.
func (c *Client) TeamByName(ctx context.Context, name string) (scoring.Team, error) {
	var teams []scoring.Team
	if err := c.Get(ctx, "/teams/?name="+url.QueryEscape(name), &teams); err != nil {
		return scoring.Team{}, err
	}
	if len(teams) == 0 {
		return scoring.Team{}, ErrNotFound
	}
	return teams[0], nil
}

func (c *Client) ListPlayers(ctx context.Context) ([]scoring.Player, error) {
	var players []scoring.Player
	if err := c.Get(ctx, "/players/", &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (c *Client) PlayersByTeam(ctx context.Context, teamID int64) ([]scoring.Player, error) {
	var players []scoring.Player
	if err := c.Get(ctx, "/players/?team="+strconv.FormatInt(teamID, 10), &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (c *Client) ListMiniGames(ctx context.Context) ([]scoring.MiniGame, error) {
	var games []scoring.MiniGame
	if err := c.Get(ctx, "/minigames/", &games); err != nil {
		return nil, err
	}
	return games, nil
}

func (c *Client) GetMiniGame(ctx context.Context, id int64) (scoring.MiniGame, error) {
	var g scoring.MiniGame
	err := c.Get(ctx, entityPath(scoring.ResourceMiniGames, id), &g)
	return g, err
}

// GetSettings returns the settings singleton. The API serves it as a list.
func (c *Client) GetSettings(ctx context.Context) (scoring.Settings, error) {
	var list []scoring.Settings
	if err := c.Get(ctx, "/settings/", &list); err != nil {
		return scoring.Settings{}, err
	}
	if len(list) == 0 {
		return scoring.Settings{}, ErrNotFound
	}
	return list[0], nil
}

func (c *Client) PatchTeam(ctx context.Context, id int64, fields Fields) (scoring.Team, error) {
	var t scoring.Team
	err := c.Patch(ctx, scoring.ResourceTeams, id, fields, &t)
	return t, err
}

func (c *Client) PatchPlayer(ctx context.Context, id int64, fields Fields) (scoring.Player, error) {
	var p scoring.Player
	err := c.Patch(ctx, scoring.ResourcePlayers, id, fields, &p)
	return p, err
}

func (c *Client) PatchMiniGame(ctx context.Context, id int64, fields Fields) (scoring.MiniGame, error) {
	var g scoring.MiniGame
	err := c.Patch(ctx, scoring.ResourceMiniGames, id, fields, &g)
	return g, err
}

func (c *Client) PatchSettings(ctx context.Context, id int64, fields Fields) (scoring.Settings, error) {
	var s scoring.Settings
	err := c.Patch(ctx, scoring.ResourceSettings, id, fields, &s)
	return s, err
}

func (c *Client) CreateTeam(ctx context.Context, fields Fields) (scoring.Team, error) {
	var t scoring.Team
	err := c.Post(ctx, scoring.ResourceTeams, fields, &t)
	return t, err
}

func (c *Client) CreatePlayer(ctx context.Context, fields Fields) (scoring.Player, error) {
	var p scoring.Player
	err := c.Post(ctx, scoring.ResourcePlayers, fields, &p)
	return p, err
}

func (c *Client) CreateMiniGame(ctx context.Context, fields Fields) (scoring.MiniGame, error) {
	var g scoring.MiniGame
	err := c.Post(ctx, scoring.ResourceMiniGames, fields, &g)
	return g, err
}

func (c *Client) DeleteTeam(ctx context.Context, id int64) error {
	return c.Delete(ctx, scoring.ResourceTeams, id)
}

func (c *Client) DeletePlayer(ctx context.Context, id int64) error {
	return c.Delete(ctx, scoring.ResourcePlayers, id)
}

func (c *Client) DeleteMiniGame(ctx context.Context, id int64) error {
	return c.Delete(ctx, scoring.ResourceMiniGames, id)
}

// Check satisfies the health checker contract: the settings endpoint must
// answer with a 2xx.
func (c *Client) Check(ctx context.Context) error {
	return c.Get(ctx, "/settings/", nil)
}
