package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hkpass/console/internal/console"
	"github.com/hkpass/console/internal/scoreapi"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// ActionErrorResponse carries the per-step outcome of a failed action.
type ActionErrorResponse struct {
	Error  string               `json:"error"`
	Result console.ActionResult `json:"result"`
}

// writeFailure maps console and upstream errors to HTTP responses.
func writeFailure(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		ve *console.ValidationError
		ae *console.ActionError
		he *scoreapi.HTTPError
		ne *scoreapi.NetworkError
		de *scoreapi.DecodeError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, console.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, console.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.As(err, &ae):
		writeJSON(w, http.StatusBadGateway, ActionErrorResponse{Error: ae.Error(), Result: ae.Result})
	case errors.As(err, &he):
		writeError(w, http.StatusBadGateway, "scoring API returned status "+strconv.Itoa(he.Status))
	case errors.As(err, &ne):
		writeError(w, http.StatusBadGateway, "scoring API unreachable")
	case errors.As(err, &de):
		logger.Warn("undecodable scoring API response", "error", err)
		writeError(w, http.StatusBadGateway, "scoring API sent an unreadable response")
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}
