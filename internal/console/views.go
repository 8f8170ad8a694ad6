package console

import (
	"context"
	"fmt"

	"github.com/hkpass/console/internal/projection"
	"github.com/hkpass/console/internal/scoring"
)

type DashboardView struct {
	Generation       uint64           `json:"generation"`
	Settings         scoring.Settings `json:"settings"`
	SettingsLoaded   bool             `json:"settingsLoaded"`
	Teams            []scoring.Team   `json:"teams"`
	Players          []scoring.Player `json:"players"`
	NextPlayerNumber string           `json:"nextPlayerNumber"`
}

// Dashboard lists teams by score and players by number.
func (c *Console) Dashboard() DashboardView {
	snap := c.Snapshot()
	return DashboardView{
		Generation:       snap.Generation,
		Settings:         snap.Settings.Redacted(),
		SettingsLoaded:   snap.SettingsLoaded,
		Teams:            projection.RankTopN(snap.Teams, teamScore, len(snap.Teams)),
		Players:          projection.SortPlayersByNumber(snap.Players),
		NextPlayerNumber: projection.NextPlayerNumber(snap.Players),
	}
}

type RankingView struct {
	Generation uint64                 `json:"generation"`
	Boards     []projection.BoardView `json:"boards"`
}

func (c *Console) Ranking() (RankingView, error) {
	snap := c.Snapshot()
	boards, err := projection.BuildBoards(projection.DefaultBoards(snap.Settings), snap.Teams, snap.Players, snap.Settings)
	if err != nil {
		return RankingView{}, fmt.Errorf("building ranking: %w", err)
	}
	return RankingView{Generation: snap.Generation, Boards: boards}, nil
}

// AttackSettings is the slice of Settings the attack form shows.
type AttackSettings struct {
	Loaded              bool `json:"loaded"`
	AttackerTeamBonus   int  `json:"attackerTeamBonus"`
	AttackerPlayerBonus int  `json:"attackerPlayerBonus"`
	AttackedIncrement   int  `json:"attackedIncrement"`
}

type TeamPanelView struct {
	Team          scoring.Team     `json:"team"`
	Members       []scoring.Player `json:"members"`
	AttackerTeams []scoring.Team   `json:"attackerTeams"`
	Settings      AttackSettings   `json:"settings"`
}

// TeamPanel is the per-team screen: the team, its members and the teams
// that may attack it. A team missing from the cache is looked up directly,
// since it may have been created after the last tick.
func (c *Console) TeamPanel(ctx context.Context, name string) (TeamPanelView, error) {
	teams := c.teams.Snapshot()
	var members []scoring.Player

	team, ok := findTeam(teams, name)
	if ok {
		members = projection.FilterByTeam(c.players.Snapshot(), team.Name, teams)
	} else {
		t, err := c.api.TeamByName(ctx, name)
		if isUpstreamNotFound(err) {
			return TeamPanelView{}, fmt.Errorf("team %q: %w", name, ErrNotFound)
		}
		if err != nil {
			return TeamPanelView{}, err
		}
		team = t
		c.teams.Add(c.stamp(), t)
		if members, err = c.api.PlayersByTeam(ctx, t.ID); err != nil {
			return TeamPanelView{}, err
		}
		teams = c.teams.Snapshot()
	}

	attackers := []scoring.Team{}
	for _, t := range teams {
		if t.ID != team.ID {
			attackers = append(attackers, t)
		}
	}

	s, loaded := c.settings.Get()
	return TeamPanelView{
		Team:          team,
		Members:       projection.SortPlayersByNumber(members),
		AttackerTeams: attackers,
		Settings: AttackSettings{
			Loaded:              loaded,
			AttackerTeamBonus:   s.AttackerTeamBonus,
			AttackerPlayerBonus: s.AttackerPlayerBonus,
			AttackedIncrement:   s.AttackedIncrement,
		},
	}, nil
}

// Games is the public catalog: displayed games only.
func (c *Console) Games() []scoring.MiniGame {
	return projection.DisplayedGames(c.games.Snapshot())
}

type GameDetailView struct {
	Game  scoring.MiniGame `json:"game"`
	Teams []scoring.Team   `json:"teams"`
}

// Game is the scoring screen of one game, with the teams to pick players
// from.
func (c *Console) Game(ctx context.Context, id int64) (GameDetailView, error) {
	g, err := c.miniGame(ctx, id)
	if err != nil {
		return GameDetailView{}, err
	}
	return GameDetailView{Game: g, Teams: c.teams.Snapshot()}, nil
}

// TeamMembers lists a team's players by number, for the scoring screen's
// player picker.
func (c *Console) TeamMembers(name string) []scoring.Player {
	return projection.SortPlayersByNumber(projection.FilterByTeam(c.players.Snapshot(), name, c.teams.Snapshot()))
}

func (c *Console) NextPlayerNumber() string {
	return projection.NextPlayerNumber(c.players.Snapshot())
}

func teamScore(t scoring.Team) int { return t.Score }
