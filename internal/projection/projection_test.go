package projection

import (
	"math/rand/v2"
	"slices"
	"sort"
	"testing"

	"github.com/hkpass/console/internal/scoring"
)

func id(v int64) *int64 { return &v }

func teamScore(t scoring.Team) int { return t.Score }

func TestRankTopNProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for round := 0; round < 200; round++ {
		size := rng.IntN(12)
		teams := make([]scoring.Team, size)
		for i := range teams {
			teams[i] = scoring.Team{ID: int64(i + 1), Score: rng.IntN(5)}
		}
		orig := slices.Clone(teams)
		n := rng.IntN(size + 3)

		got := RankTopN(teams, teamScore, n)

		if want := min(n, size); len(got) != want {
			t.Fatalf("round %d: len = %d, want %d", round, len(got), want)
		}
		if !slices.Equal(teams, orig) {
			t.Fatalf("round %d: input was modified", round)
		}
		if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i].Score > got[j].Score }) {
			t.Fatalf("round %d: not sorted descending: %+v", round, got)
		}

		full := RankTopN(teams, teamScore, size)
		for i := range got {
			if got[i].Score != full[i].Score {
				t.Fatalf("round %d: row %d score %d, full sort has %d", round, i, got[i].Score, full[i].Score)
			}
		}
	}
}

func TestRankTopNStableTies(t *testing.T) {
	teams := []scoring.Team{
		{ID: 1, Score: 5},
		{ID: 2, Score: 9},
		{ID: 3, Score: 5},
		{ID: 4, Score: 5},
	}

	got := RankTopN(teams, teamScore, 3)

	want := []int64{2, 1, 3}
	for i, w := range want {
		if got[i].ID != w {
			t.Fatalf("position %d: id %d, want %d", i, got[i].ID, w)
		}
	}
}

func TestRankTopNNonPositive(t *testing.T) {
	got := RankTopN([]scoring.Team{{ID: 1}}, teamScore, 0)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestFilterByTeam(t *testing.T) {
	teams := []scoring.Team{
		{ID: 1, Name: "Red Dragons"},
		{ID: 2, Name: " blue "},
	}
	players := []scoring.Player{
		{ID: 10, Team: id(1)},
		{ID: 11, Team: id(2)},
		{ID: 12, Team: id(1)},
		{ID: 13},
		{ID: 14, Team: id(99)},
	}

	tests := []struct {
		name     string
		teamName string
		want     []int64
	}{
		{name: "exact", teamName: "Red Dragons", want: []int64{10, 12}},
		{name: "case and space", teamName: "  red dragons ", want: []int64{10, 12}},
		{name: "trimmed team name", teamName: "BLUE", want: []int64{11}},
		{name: "unknown", teamName: "green", want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByTeam(players, tt.teamName, teams)
			ids := []int64{}
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			if !slices.Equal(ids, tt.want) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestFilterByTeamMembership(t *testing.T) {
	teams := []scoring.Team{{ID: 1, Name: "A"}, {ID: 2, Name: "b"}, {ID: 3, Name: "B "}}
	players := []scoring.Player{{ID: 1, Team: id(1)}, {ID: 2, Team: id(2)}, {ID: 3, Team: id(3)}, {ID: 4}}

	got := FilterByTeam(players, "b", teams)
	in := map[int64]bool{}
	for _, p := range got {
		in[p.ID] = true
	}

	for _, p := range players {
		want := false
		for _, tm := range teams {
			if p.Team != nil && tm.ID == *p.Team && SameTeamName(tm.Name, "b") {
				want = true
			}
		}
		if in[p.ID] != want {
			t.Errorf("player %d: included = %v, want %v", p.ID, in[p.ID], want)
		}
	}
}

func TestMaskIfHidden(t *testing.T) {
	for _, v := range []any{0, 42, "name", true} {
		if got := MaskIfHidden(v, true); got != Masked {
			t.Errorf("MaskIfHidden(%v, true) = %v", v, got)
		}
		if got := MaskIfHidden(v, false); got != v {
			t.Errorf("MaskIfHidden(%v, false) = %v", v, got)
		}
	}
}

func TestNextPlayerNumber(t *testing.T) {
	tests := []struct {
		name    string
		numbers []string
		want    string
	}{
		{name: "empty", numbers: nil, want: "1"},
		{name: "mixed", numbers: []string{"3", "7", "x"}, want: "8"},
		{name: "none numeric", numbers: []string{"a", ""}, want: "1"},
		{name: "leading digits", numbers: []string{"12b", " 4"}, want: "13"},
		{name: "negative only", numbers: []string{"-5"}, want: "-4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var players []scoring.Player
			for _, n := range tt.numbers {
				players = append(players, scoring.Player{Number: n})
			}
			if got := NextPlayerNumber(players); got != tt.want {
				t.Errorf("NextPlayerNumber = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSortPlayersByNumber(t *testing.T) {
	players := []scoring.Player{{ID: 1, Number: "10"}, {ID: 2, Number: "x"}, {ID: 3, Number: "2"}, {ID: 4, Number: "9"}}

	got := SortPlayersByNumber(players)

	var ids []int64
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	if want := []int64{3, 4, 1, 2}; !slices.Equal(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
	if players[0].ID != 1 {
		t.Error("input was modified")
	}
}

func TestPlayerLabel(t *testing.T) {
	teams := []scoring.Team{{ID: 1, Name: "Red"}}

	tests := []struct {
		name   string
		player scoring.Player
		want   string
	}{
		{name: "both", player: scoring.Player{Name: "Ann", Team: id(1)}, want: "Red-Ann"},
		{name: "team hidden", player: scoring.Player{Name: "Ann", Team: id(1), HideTeam: true}, want: "Ann"},
		{name: "name hidden", player: scoring.Player{Name: "Ann", Team: id(1), HideName: true}, want: "Red"},
		{name: "all hidden", player: scoring.Player{Name: "Ann", Team: id(1), HideName: true, HideTeam: true}, want: Masked},
		{name: "no team", player: scoring.Player{Name: "Ann"}, want: "Ann"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlayerLabel(tt.player, teams); got != tt.want {
				t.Errorf("PlayerLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayedGames(t *testing.T) {
	games := []scoring.MiniGame{{ID: 1, IsDisplayed: true}, {ID: 2}, {ID: 3, IsDisplayed: true}}
	got := DisplayedGames(games)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("DisplayedGames = %+v", got)
	}
}

func TestMaxValueFloor(t *testing.T) {
	if got := MaxValue([]scoring.Team{}, teamScore); got != 1 {
		t.Errorf("empty MaxValue = %d, want 1", got)
	}
	if got := MaxValue([]scoring.Team{{Score: -3}, {Score: 7}}, teamScore); got != 7 {
		t.Errorf("MaxValue = %d, want 7", got)
	}
}
