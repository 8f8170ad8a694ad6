package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hkpass/console/internal/console"
)

type NextNumberResponse struct {
	Number string `json:"number"`
}

func handleDashboard(c *console.Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Dashboard())
	}
}

func handleRanking(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := c.Ranking()
		if err != nil {
			writeFailure(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleTeamPanel(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := c.TeamPanel(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			writeFailure(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleGames(c *console.Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Games())
	}
}

func handleGame(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}
		view, err := c.Game(r.Context(), id)
		if err != nil {
			writeFailure(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleNextPlayerNumber(c *console.Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, NextNumberResponse{Number: c.NextPlayerNumber()})
	}
}

func handleActions(logger *slog.Logger, journal ActionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 500 {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
				return
			}
			limit = n
		}

		actions, err := journal.ListActions(r.Context(), limit)
		if err != nil {
			writeFailure(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, actions)
	}
}
