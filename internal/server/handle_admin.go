package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hkpass/console/internal/console"
)

// Fields is a partial entity as sent by the console's edit forms.
type Fields map[string]any

// handleCreate wraps a console create operation.
func handleCreate[T any](logger *slog.Logger, create func(context.Context, map[string]any) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in Fields
		if err := readJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		v, err := create(r.Context(), in)
		if err != nil {
			writeFailure(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	}
}

func handleUpdate[T any](logger *slog.Logger, update func(context.Context, int64, map[string]any) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		var in Fields
		if err := readJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		v, err := update(r.Context(), id, in)
		if err != nil {
			writeFailure(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func handleDelete(logger *slog.Logger, del func(context.Context, int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		if err := del(r.Context(), id); err != nil {
			writeFailure(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCreateTeam(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return handleCreate(logger, c.CreateTeam)
}

func handleUpdateTeam(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return handleUpdate(logger, c.UpdateTeam)
}

func handleDeleteTeam(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return handleDelete(logger, c.DeleteTeam)
}

func handleCreatePlayer(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return handleCreate(logger, c.CreatePlayer)
}

func handleUpdatePlayer(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return handleUpdate(logger, c.UpdatePlayer)
}

func handleDeletePlayer(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return handleDelete(logger, c.DeletePlayer)
}

func handleCreateMiniGame(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return handleCreate(logger, c.CreateMiniGame)
}

func handleUpdateMiniGame(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return handleUpdate(logger, c.UpdateMiniGame)
}

func handleDeleteMiniGame(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return handleDelete(logger, c.DeleteMiniGame)
}

func handleUpdateSettings(logger *slog.Logger, c *console.Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in Fields
		if err := readJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s, err := c.UpdateSettings(r.Context(), in)
		if err != nil {
			writeFailure(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}
