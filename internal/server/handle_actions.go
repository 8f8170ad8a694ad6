package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hkpass/console/internal/console"
)

// AttackBody is the attack form. The target team comes from the path.
type AttackBody struct {
	AttackerTeam   string `json:"attackerTeam"`
	AttackerNumber string `json:"attackerNumber"`
	Count          int    `json:"count" minimum:"1" maximum:"1000"`
}

type ScoreBody struct {
	Team     string `json:"team"`
	PlayerID int64  `json:"playerId"`
}

func handleAttack(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body AttackBody
		if err := readJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req := console.AttackRequest{
			TargetTeam:     chi.URLParam(r, "name"),
			AttackerTeam:   body.AttackerTeam,
			AttackerNumber: body.AttackerNumber,
			Count:          body.Count,
		}
		res, err := c.Attack(r.Context(), req)
		if err != nil {
			writeFailure(w, logger, err)
			return
		}

		logger.Info("attack recorded",
			"target", req.TargetTeam,
			"attacker", req.AttackerTeam,
			"count", req.Count,
			"action_id", res.ActionID,
			"session", sessionTag(r),
		)
		writeJSON(w, http.StatusOK, res)
	}
}

func handleScoreGame(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}
		var body ScoreBody
		if err := readJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := c.ScoreGame(r.Context(), console.ScoreRequest{GameID: id, Team: body.Team, PlayerID: body.PlayerID})
		if err != nil {
			writeFailure(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleClear(logger *slog.Logger, c *console.Console, resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		res, err := c.Clear(r.Context(), resource, id, chi.URLParam(r, "field"))
		if err != nil {
			writeFailure(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
