// Package projection turns canonical entity lists into what a screen shows.
// Every function is pure: inputs are never modified and nothing here
// touches the network or shared state.
package projection

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/hkpass/console/internal/scoring"
)

// Masked replaces any value whose visibility flag is set.
const Masked = "---"

// RankTopN returns the n items with the highest key, descending. Ties keep
// their original order.
func RankTopN[T any](items []T, key func(T) int, n int) []T {
	if n <= 0 {
		return []T{}
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return cmp.Compare(key(b), key(a))
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// FilterByTeam keeps the players whose team resolves to teamName, compared
// trimmed and case-insensitively. Players with unknown teams are dropped.
func FilterByTeam(players []scoring.Player, teamName string, teams []scoring.Team) []scoring.Player {
	want := normalize(teamName)
	names := make(map[int64]string, len(teams))
	for _, t := range teams {
		names[t.ID] = normalize(t.Name)
	}

	out := []scoring.Player{}
	for _, p := range players {
		if p.Team == nil {
			continue
		}
		if name, ok := names[*p.Team]; ok && name == want {
			out = append(out, p)
		}
	}
	return out
}

// SameTeamName reports whether two team names match the way the console
// compares them everywhere.
func SameTeamName(a, b string) bool {
	return normalize(a) == normalize(b)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func MaskIfHidden[T any](v T, hide bool) any {
	if hide {
		return Masked
	}
	return v
}

// NextPlayerNumber is one more than the largest player number that parses
// as an integer, or "1" when none do.
func NextPlayerNumber(players []scoring.Player) string {
	best, found := 0, false
	for _, p := range players {
		n, ok := parseLeadingInt(p.Number)
		if !ok {
			continue
		}
		if !found || n > best {
			best, found = n, true
		}
	}
	if !found {
		return "1"
	}
	return strconv.Itoa(best + 1)
}

// parseLeadingInt reads an optionally signed run of digits after leading
// whitespace and ignores anything that follows, so "12a" is 12.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortPlayersByNumber orders players by their numeric number; players whose
// number does not parse go last in their original order.
func SortPlayersByNumber(players []scoring.Player) []scoring.Player {
	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, func(a, b scoring.Player) int {
		na, oka := parseLeadingInt(a.Number)
		nb, okb := parseLeadingInt(b.Number)
		switch {
		case oka && okb:
			return cmp.Compare(na, nb)
		case oka:
			return -1
		case okb:
			return 1
		}
		return 0
	})
	return sorted
}

// TeamLabel is the team's display name.
func TeamLabel(t scoring.Team) string {
	if t.HideTeamName {
		return Masked
	}
	return t.Name
}

// PlayerLabel renders "team-name", dropping whichever part is hidden.
func PlayerLabel(p scoring.Player, teams []scoring.Team) string {
	var teamPart string
	if p.Team != nil && !p.HideTeam {
		for _, t := range teams {
			if t.ID == *p.Team {
				teamPart = t.Name
				break
			}
		}
	}
	var namePart string
	if !p.HideName {
		namePart = p.Name
	}

	switch {
	case teamPart != "" && namePart != "":
		return teamPart + "-" + namePart
	case teamPart != "":
		return teamPart
	case namePart != "":
		return namePart
	}
	return Masked
}

// DisplayedGames keeps the games flagged for the public catalog.
func DisplayedGames(games []scoring.MiniGame) []scoring.MiniGame {
	out := []scoring.MiniGame{}
	for _, g := range games {
		if g.IsDisplayed {
			out = append(out, g)
		}
	}
	return out
}

// MaxValue is the largest key over items, never below 1 so it can be used
// as a divisor.
func MaxValue[T any](items []T, key func(T) int) int {
	m := 1
	for _, it := range items {
		m = max(m, key(it))
	}
	return m
}
