package console

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/hkpass/console/internal/scoreapi"
	"github.com/hkpass/console/internal/scoring"
)

type fieldKind int

const (
	textField fieldKind = iota
	intField
	boolField
	refField
)

// schema whitelists the fields an operator may write on one resource.
type schema map[string]fieldKind

var (
	teamSchema = schema{
		"name":           textField,
		"score":          intField,
		"attacked_count": intField,
		"hide_ranking":   boolField,
		"hide_team_name": boolField,
	}
	playerSchema = schema{
		"name":                          textField,
		"number":                        textField,
		"personal_score":                intField,
		"chips":                         intField,
		"completed_minigame_count":      intField,
		"team":                          refField,
		"hide_name":                     boolField,
		"hide_team":                     boolField,
		"hide_personal_score":           boolField,
		"hide_completed_minigame_count": boolField,
	}
	miniGameSchema = schema{
		"category":        textField,
		"room":            textField,
		"name":            textField,
		"available_chips": intField,
		"play_count":      intField,
		"is_displayed":    boolField,
		"is_limited":      boolField,
		"limited_time":    intField,
	}
	settingsSchema = schema{
		"attacker_team_bonus":   intField,
		"attacker_player_bonus": intField,
		"attacked_increment":    intField,
		"hide_teams_score":      boolField,
		"hide_teams_attacked":   boolField,
		"hide_players_score":    boolField,
		"hide_players_minigame": boolField,
		"top_teams_score":       intField,
		"top_teams_attacked":    intField,
		"top_players_score":     intField,
		"top_players_minigame":  intField,
		"login_password":        textField,
	}
)

// coerce checks every key against the schema and converts form-style values
// (numeric strings, "true"/"false") into the JSON types the API expects.
func (s schema) coerce(in map[string]any) (scoreapi.Fields, error) {
	if len(in) == 0 {
		return nil, invalid("no fields to update")
	}
	out := make(scoreapi.Fields, len(in))
	for name, raw := range in {
		kind, ok := s[name]
		if !ok {
			return nil, invalid("field %q cannot be edited", name)
		}
		v, err := coerceValue(name, kind, raw)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func coerceValue(name string, kind fieldKind, raw any) (any, error) {
	switch kind {
	case textField:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		return nil, invalid("%s must be text", name)

	case intField:
		n, ok := toInt(raw)
		if !ok {
			return nil, invalid("%s must be a whole number", name)
		}
		return n, nil

	case boolField:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err == nil {
				return b, nil
			}
		}
		return nil, invalid("%s must be true or false", name)

	case refField:
		if raw == nil {
			return nil, nil
		}
		if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
			return nil, nil
		}
		n, ok := toInt(raw)
		if !ok || n <= 0 {
			return nil, invalid("%s must reference an existing id", name)
		}
		return int64(n), nil
	}
	return nil, invalid("field %q cannot be edited", name)
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

// clearable lists the counters an operator may reset to zero.
var clearable = map[string][]string{
	scoring.ResourceTeams:     {"score", "attacked_count"},
	scoring.ResourcePlayers:   {"personal_score", "chips"},
	scoring.ResourceMiniGames: {"play_count"},
}

func canClear(resource, field string) bool {
	return slices.Contains(clearable[resource], field)
}
