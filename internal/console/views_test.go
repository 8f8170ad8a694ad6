package console

import (
	"context"
	"errors"
	"testing"

	"github.com/hkpass/console/internal/projection"
	"github.com/hkpass/console/internal/scoring"
)

func TestDashboard(t *testing.T) {
	f := newFixture(t, true)
	d := f.console.Dashboard()

	if len(d.Teams) != 2 || d.Teams[0].Name != "Red" {
		t.Errorf("teams not ordered by score: %+v", d.Teams)
	}
	if len(d.Players) != 2 || d.Players[0].Number != "3" {
		t.Errorf("players not ordered by number: %+v", d.Players)
	}
	if d.NextPlayerNumber != "8" {
		t.Errorf("next number = %q, want 8", d.NextPlayerNumber)
	}
	if d.Settings.LoginPassword != "" {
		t.Error("dashboard exposes the login password")
	}
}

func TestRankingUsesSettingsBoards(t *testing.T) {
	f := newFixture(t, true)
	f.api.SetSettings(scoring.Settings{ID: 1, HideTeamsAttacked: true, TopPlayersScore: 1})
	if err := f.console.Refresh(context.Background(), 2); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	r, err := f.console.Ranking()
	if err != nil {
		t.Fatalf("Ranking: %v", err)
	}
	if len(r.Boards) != 4 {
		t.Fatalf("boards = %d, want 4", len(r.Boards))
	}
	byName := map[string]projection.BoardView{}
	for _, b := range r.Boards {
		byName[b.Name] = b
	}
	if b := byName["teamsAttacked"]; !b.Hidden || len(b.Rows) != 0 {
		t.Errorf("teamsAttacked = %+v, want hidden", b)
	}
	if b := byName["playersScore"]; len(b.Rows) != 1 || b.Rows[0].Label != "Blue-Ann" {
		t.Errorf("playersScore rows = %+v", b.Rows)
	}
	if b := byName["teamsScore"]; len(b.Rows) != 2 {
		t.Errorf("teamsScore rows = %d, want 2", len(b.Rows))
	}
}

func TestTeamPanel(t *testing.T) {
	f := newFixture(t, true)

	p, err := f.console.TeamPanel(context.Background(), " blue ")
	if err != nil {
		t.Fatalf("TeamPanel: %v", err)
	}
	if p.Team.ID != 2 {
		t.Errorf("team = %+v", p.Team)
	}
	if len(p.Members) != 1 || p.Members[0].ID != 1 {
		t.Errorf("members = %+v", p.Members)
	}
	if len(p.AttackerTeams) != 1 || p.AttackerTeams[0].Name != "Red" {
		t.Errorf("attackers = %+v", p.AttackerTeams)
	}
	if !p.Settings.Loaded || p.Settings.AttackerTeamBonus != 2 {
		t.Errorf("settings = %+v", p.Settings)
	}
	if got := len(f.api.Requests()); got != 0 {
		t.Errorf("cached panel issued %d requests", got)
	}
}

func TestTeamPanelFallsBackToAPI(t *testing.T) {
	f := newFixture(t, true)
	green := f.api.AddTeam(scoring.Team{Name: "Green"})
	f.api.AddPlayer(scoring.Player{Name: "Dee", Number: "9", Team: ptr(green.ID)})

	p, err := f.console.TeamPanel(context.Background(), "Green")
	if err != nil {
		t.Fatalf("TeamPanel: %v", err)
	}
	if p.Team.ID != green.ID || len(p.Members) != 1 {
		t.Errorf("panel = %+v", p)
	}
	if len(p.AttackerTeams) != 2 {
		t.Errorf("attackers = %d, want 2", len(p.AttackerTeams))
	}

	if _, err := f.console.TeamPanel(context.Background(), "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGames(t *testing.T) {
	f := newFixture(t, true)

	games := f.console.Games()
	if len(games) != 1 || games[0].Name != "Darts" {
		t.Errorf("displayed games = %+v", games)
	}

	d, err := f.console.Game(context.Background(), 2)
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if d.Game.Name != "Hidden" || len(d.Teams) != 2 {
		t.Errorf("detail = %+v", d)
	}

	if got := f.console.TeamMembers("RED"); len(got) != 1 || got[0].Name != "Bo" {
		t.Errorf("members = %+v", got)
	}
}
