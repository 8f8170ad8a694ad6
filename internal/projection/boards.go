package projection

import (
	"fmt"
	"math"

	"github.com/hkpass/console/internal/scoring"
)

// DefaultTopN applies when settings leave a board's count at zero.
const DefaultTopN = 6

// Board declares one leaderboard: which collection it ranks, by which
// numeric field, how many rows it shows and which settings flag hides it.
type Board struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Resource    string `json:"resource"`
	SortKey     string `json:"sortKey"`
	TopN        int    `json:"topN"`
	HideFlagKey string `json:"hideFlagKey"`
}

type Row struct {
	ID       int64  `json:"id"`
	Rank     int    `json:"rank"`
	Label    string `json:"label"`
	Value    any    `json:"value"`
	Progress int    `json:"progress"`
}

type BoardView struct {
	Board
	Hidden bool  `json:"hidden"`
	Rows   []Row `json:"rows"`
}

// DefaultBoards are the four ranking boards of the event screen.
func DefaultBoards(s scoring.Settings) []Board {
	return []Board{
		{Name: "teamsScore", Title: "Team score", Resource: scoring.ResourceTeams, SortKey: "score", TopN: orDefault(s.TopTeamsScore), HideFlagKey: "hide_teams_score"},
		{Name: "teamsAttacked", Title: "Times attacked", Resource: scoring.ResourceTeams, SortKey: "attacked_count", TopN: orDefault(s.TopTeamsAttacked), HideFlagKey: "hide_teams_attacked"},
		{Name: "playersScore", Title: "Player score", Resource: scoring.ResourcePlayers, SortKey: "personal_score", TopN: orDefault(s.TopPlayersScore), HideFlagKey: "hide_players_score"},
		{Name: "playersMiniGame", Title: "Mini-games completed", Resource: scoring.ResourcePlayers, SortKey: "completed_minigame_count", TopN: orDefault(s.TopPlayersMiniGame), HideFlagKey: "hide_players_minigame"},
	}
}

func orDefault(n int) int {
	if n <= 0 {
		return DefaultTopN
	}
	return n
}

// BuildBoard ranks the board's collection and renders its rows.
func BuildBoard(b Board, teams []scoring.Team, players []scoring.Player, s scoring.Settings) (BoardView, error) {
	view := BoardView{Board: b, Hidden: settingsFlag(s, b.HideFlagKey), Rows: []Row{}}

	switch b.Resource {
	case scoring.ResourceTeams:
		key, err := TeamKey(b.SortKey)
		if err != nil {
			return view, err
		}
		if view.Hidden {
			return view, nil
		}
		maxV := MaxValue(teams, key)
		for i, t := range RankTopN(teams, key, b.TopN) {
			view.Rows = append(view.Rows, row(t.ID, i, TeamLabel(t), key(t), maxV, t.HideRanking))
		}

	case scoring.ResourcePlayers:
		key, err := PlayerKey(b.SortKey)
		if err != nil {
			return view, err
		}
		if view.Hidden {
			return view, nil
		}
		maxV := MaxValue(players, key)
		for i, p := range RankTopN(players, key, b.TopN) {
			view.Rows = append(view.Rows, row(p.ID, i, PlayerLabel(p, teams), key(p), maxV, playerValueHidden(p, b.SortKey)))
		}

	default:
		return view, fmt.Errorf("board %q: unsupported resource %q", b.Name, b.Resource)
	}
	return view, nil
}

// BuildBoards renders every board, stopping at the first misconfigured one.
func BuildBoards(boards []Board, teams []scoring.Team, players []scoring.Player, s scoring.Settings) ([]BoardView, error) {
	out := make([]BoardView, 0, len(boards))
	for _, b := range boards {
		v, err := BuildBoard(b, teams, players, s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func row(id int64, index int, label string, value, maxV int, hidden bool) Row {
	r := Row{ID: id, Rank: index + 1, Label: label, Value: MaskIfHidden(value, hidden)}
	if !hidden {
		r.Progress = int(math.Round(float64(value) / float64(maxV) * 100))
	}
	return r
}

func TeamKey(key string) (func(scoring.Team) int, error) {
	switch key {
	case "score":
		return func(t scoring.Team) int { return t.Score }, nil
	case "attacked_count":
		return func(t scoring.Team) int { return t.AttackedCount }, nil
	}
	return nil, fmt.Errorf("unknown team sort key %q", key)
}

func PlayerKey(key string) (func(scoring.Player) int, error) {
	switch key {
	case "personal_score":
		return func(p scoring.Player) int { return p.PersonalScore }, nil
	case "chips":
		return func(p scoring.Player) int { return p.Chips }, nil
	case "completed_minigame_count":
		return func(p scoring.Player) int { return p.CompletedMiniGameCount }, nil
	}
	return nil, fmt.Errorf("unknown player sort key %q", key)
}

func playerValueHidden(p scoring.Player, key string) bool {
	switch key {
	case "personal_score":
		return p.HidePersonalScore
	case "completed_minigame_count":
		return p.HideCompletedMiniGameCount
	}
	return false
}

func settingsFlag(s scoring.Settings, key string) bool {
	switch key {
	case "hide_teams_score":
		return s.HideTeamsScore
	case "hide_teams_attacked":
		return s.HideTeamsAttacked
	case "hide_players_score":
		return s.HidePlayersScore
	case "hide_players_minigame":
		return s.HidePlayersMiniGame
	}
	return false
}
