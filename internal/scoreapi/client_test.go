package scoreapi_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hkpass/console/internal/scoreapi"
	"github.com/hkpass/console/internal/scoreapi/scoreapitest"
	"github.com/hkpass/console/internal/scoring"
)

func newClient(t *testing.T) (*scoreapi.Client, *scoreapitest.Server) {
	t.Helper()
	srv := scoreapitest.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return scoreapi.New(srv.URL()+"/", 2*time.Second, logger), srv
}

func TestListAndLookup(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()

	red := srv.AddTeam(scoring.Team{Name: "Red", Score: 10})
	srv.AddTeam(scoring.Team{Name: "Blue", Score: 3})
	srv.AddPlayer(scoring.Player{Name: "Ann", Number: "1", Team: &red.ID})
	srv.AddPlayer(scoring.Player{Name: "Bob", Number: "2"})
	srv.SetSettings(scoring.Settings{AttackerTeamBonus: 2, AttackerPlayerBonus: 1, AttackedIncrement: 1})

	teams, err := c.ListTeams(ctx)
	if err != nil {
		t.Fatalf("ListTeams: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(teams))
	}

	got, err := c.TeamByName(ctx, "Red")
	if err != nil {
		t.Fatalf("TeamByName: %v", err)
	}
	if got.ID != red.ID || got.Score != 10 {
		t.Errorf("TeamByName = %+v", got)
	}

	members, err := c.PlayersByTeam(ctx, red.ID)
	if err != nil {
		t.Fatalf("PlayersByTeam: %v", err)
	}
	if len(members) != 1 || members[0].Name != "Ann" {
		t.Errorf("PlayersByTeam = %+v", members)
	}

	settings, err := c.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if settings.AttackerTeamBonus != 2 {
		t.Errorf("AttackerTeamBonus = %d, want 2", settings.AttackerTeamBonus)
	}

	reqs := srv.Requests()
	if reqs[1].Path != "/api/teams/" || reqs[1].Query != "name=Red" {
		t.Errorf("lookup request = %+v", reqs[1])
	}
	if reqs[2].Query != "team=1" {
		t.Errorf("members query = %q, want team=1", reqs[2].Query)
	}
}

func TestTeamByNameEscapesAndMisses(t *testing.T) {
	c, srv := newClient(t)

	_, err := c.TeamByName(context.Background(), "A&B team")
	if !errors.Is(err, scoreapi.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if q := srv.Requests()[0].Query; q != "name=A%26B+team" {
		t.Errorf("query = %q", q)
	}
}

func TestPatchSendsOnlyChangedFields(t *testing.T) {
	c, srv := newClient(t)
	team := srv.AddTeam(scoring.Team{Name: "Red", Score: 10, AttackedCount: 2})

	updated, err := c.PatchTeam(context.Background(), team.ID, scoreapi.Fields{"attacked_count": 5})
	if err != nil {
		t.Fatalf("PatchTeam: %v", err)
	}
	if updated.AttackedCount != 5 || updated.Score != 10 {
		t.Errorf("updated = %+v", updated)
	}

	m := srv.Mutations()
	if len(m) != 1 {
		t.Fatalf("expected 1 mutation, got %d", len(m))
	}
	if m[0].Method != http.MethodPatch || m[0].Path != "/api/teams/1/" {
		t.Errorf("request = %s %s", m[0].Method, m[0].Path)
	}
	if len(m[0].Body) != 1 || m[0].Body["attacked_count"] != float64(5) {
		t.Errorf("body = %v", m[0].Body)
	}
}

func TestCreateAndDelete(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	g, err := c.CreateMiniGame(ctx, scoreapi.Fields{"name": "Darts", "available_chips": 3, "is_displayed": true})
	if err != nil {
		t.Fatalf("CreateMiniGame: %v", err)
	}
	if g.ID == 0 || g.AvailableChips != 3 {
		t.Errorf("created = %+v", g)
	}

	if err := c.DeleteMiniGame(ctx, g.ID); err != nil {
		t.Fatalf("DeleteMiniGame: %v", err)
	}
	games, err := c.ListMiniGames(ctx)
	if err != nil {
		t.Fatalf("ListMiniGames: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("expected no games, got %d", len(games))
	}
}

func TestHTTPError(t *testing.T) {
	c, srv := newClient(t)
	team := srv.AddTeam(scoring.Team{Name: "Red"})
	srv.FailNext(http.MethodPatch, "/api/teams/1/", http.StatusBadRequest)

	_, err := c.PatchTeam(context.Background(), team.ID, scoreapi.Fields{"score": 1})

	var he *scoreapi.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError, got %T %v", err, err)
	}
	if he.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", he.Status)
	}
	if status, ok := scoreapi.StatusOf(err); !ok || status != 400 {
		t.Errorf("StatusOf = %d, %v", status, ok)
	}

	_, err = c.GetMiniGame(context.Background(), 99)
	if status, _ := scoreapi.StatusOf(err); status != http.StatusNotFound {
		t.Errorf("missing game status = %d, want 404", status)
	}
}

func TestNetworkError(t *testing.T) {
	c, srv := newClient(t)
	srv.Close()

	_, err := c.ListTeams(context.Background())

	var ne *scoreapi.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %T %v", err, err)
	}
	if _, ok := scoreapi.StatusOf(err); ok {
		t.Error("network error should carry no status")
	}
}

func TestUndecodableBodyIsNotANetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>maintenance</html>"))
	}))
	t.Cleanup(srv.Close)
	c := scoreapi.New(srv.URL+"/api", 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.ListTeams(context.Background())

	var de *scoreapi.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %T %v", err, err)
	}
	if de.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", de.Status)
	}
	var ne *scoreapi.NetworkError
	if errors.As(err, &ne) {
		t.Error("a response that arrived was reported as a network error")
	}
}
