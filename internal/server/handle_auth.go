package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hkpass/console/internal/console"
)

const sessionCookieName = "console_session"

type LoginRequest struct {
	Password string `json:"password"`
}

type SessionResponse struct {
	LoggedIn  bool   `json:"loggedIn"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func handleLogin(logger *slog.Logger, gate *console.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess, err := gate.Login(r.Context(), req.Password)
		if err != nil {
			writeFailure(w, logger, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(24 * time.Hour / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, SessionResponse{LoggedIn: true, CreatedAt: sess.CreatedAt})
	}
}

func handleLogout(logger *slog.Logger, gate *console.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			if err := gate.Logout(r.Context(), cookie.Value); err != nil {
				logger.Warn("deleting session", "error", err)
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, SessionResponse{LoggedIn: false})
	}
}

func handleSession(gate *console.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			writeJSON(w, http.StatusOK, SessionResponse{})
			return
		}
		sess, err := gate.Session(r.Context(), cookie.Value)
		if err != nil {
			writeJSON(w, http.StatusOK, SessionResponse{})
			return
		}
		writeJSON(w, http.StatusOK, SessionResponse{LoggedIn: true, CreatedAt: sess.CreatedAt})
	}
}
