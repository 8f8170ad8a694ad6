package console

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/hkpass/console/internal/projection"
	"github.com/hkpass/console/internal/scoring"
)

const KindAttack = "attack"

// MaxAttackCount bounds a single attack.
const MaxAttackCount = 1000

type AttackRequest struct {
	TargetTeam     string `json:"targetTeam"`
	AttackerTeam   string `json:"attackerTeam"`
	AttackerNumber string `json:"attackerNumber"`
	Count          int    `json:"count"`
}

// PlanAttack validates an attack against a cache snapshot and returns the
// three writes it implies, in the order they must be issued: the target
// team's attacked_count, the attacking player's personal_score, then the
// attacking team's score.
func PlanAttack(req AttackRequest, teams []scoring.Team, players []scoring.Player, settings scoring.Settings, settingsLoaded bool) ([]FieldWrite, error) {
	target := strings.TrimSpace(req.TargetTeam)
	attacker := strings.TrimSpace(req.AttackerTeam)
	number := strings.TrimSpace(req.AttackerNumber)

	if target == "" || attacker == "" || number == "" || !settingsLoaded {
		return nil, invalid("target team, attacking team, attacking player and count are all required")
	}
	if projection.SameTeamName(target, attacker) {
		return nil, invalid("attacking team must differ from the target team")
	}
	if req.Count <= 0 {
		return nil, invalid("attack count must be a positive number")
	}
	if req.Count > MaxAttackCount {
		return nil, invalid("attack count must be at most %d", MaxAttackCount)
	}

	targetTeam, ok := findTeam(teams, target)
	if !ok {
		return nil, fmt.Errorf("team %q: %w", target, ErrNotFound)
	}
	attackerTeam, ok := findTeam(teams, attacker)
	if !ok {
		return nil, invalid("attacking team %q does not exist", attacker)
	}
	player, ok := findMember(projection.FilterByTeam(players, attackerTeam.Name, teams), number)
	if !ok {
		return nil, invalid("no player numbered %q in team %q", number, attackerTeam.Name)
	}

	n := req.Count
	writes := []FieldWrite{
		{
			Resource: scoring.ResourceTeams,
			EntityID: targetTeam.ID,
			Field:    "attacked_count",
			From:     targetTeam.AttackedCount,
		},
		{
			Resource: scoring.ResourcePlayers,
			EntityID: player.ID,
			Field:    "personal_score",
			From:     player.PersonalScore,
		},
		{
			Resource: scoring.ResourceTeams,
			EntityID: attackerTeam.ID,
			Field:    "score",
			From:     attackerTeam.Score,
		},
	}
	steps := []int{settings.AttackedIncrement, settings.AttackerPlayerBonus, settings.AttackerTeamBonus}
	for i := range writes {
		to, ok := addScaled(writes[i].From, n, steps[i])
		if !ok {
			return nil, invalid("attack of %d overflows %s", n, writes[i].Field)
		}
		writes[i].To = to
	}
	return writes, nil
}

// addScaled returns base + n*step, reporting false when the result does not
// fit in an int32, the range the scoring API stores.
func addScaled(base, n, step int) (int, bool) {
	v := int64(base) + int64(n)*int64(step)
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}
	return int(v), true
}

// Attack applies an attack against the current cache.
func (c *Console) Attack(ctx context.Context, req AttackRequest) (ActionResult, error) {
	settings, loaded := c.settings.Get()
	writes, err := PlanAttack(req, c.teams.Snapshot(), c.players.Snapshot(), settings, loaded)
	if err != nil {
		return ActionResult{Kind: KindAttack}, err
	}

	res, err := c.runAction(ctx, KindAttack, req, writes)
	if err == nil {
		ev := Event{Type: "action", Action: KindAttack, ActionID: res.ActionID}
		c.pub.Publish(TeamTopic(req.TargetTeam), ev)
		c.pub.Publish(TeamTopic(req.AttackerTeam), ev)
	}
	return res, err
}

func findTeam(teams []scoring.Team, name string) (scoring.Team, bool) {
	for _, t := range teams {
		if projection.SameTeamName(t.Name, name) {
			return t, true
		}
	}
	return scoring.Team{}, false
}

func findMember(members []scoring.Player, number string) (scoring.Player, bool) {
	for _, p := range members {
		if strings.TrimSpace(p.Number) == number {
			return p, true
		}
	}
	return scoring.Player{}, false
}
