package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/hkpass/console/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	c := deps.Console

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Scoring Console API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, deps.Checks).Optional(deps.OptionalChecks...).Routes())
	r.Get("/ws/live", handleLive(logger, deps.Broker, c))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handleLogin(logger, deps.Gate))
		r.Post("/logout", handleLogout(logger, deps.Gate))
		r.Get("/session", handleSession(deps.Gate))

		r.Get("/events", handleEvents(logger, deps.Broker, c))
		r.Get("/dashboard", handleDashboard(c))
		r.Get("/ranking", handleRanking(logger, c))
		r.Get("/panels/{name}", handleTeamPanel(logger, c))
		r.Get("/games", handleGames(c))
		r.Get("/games/{id}", handleGame(logger, c))
		r.Get("/players/next-number", handleNextPlayerNumber(c))

		// Everything below is for logged-in operators. The journal exposes
		// action payloads, the rest writes to the scoring API.
		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware(deps.Gate))

			r.Get("/actions", handleActions(logger, deps.Journal))

			r.Post("/panels/{name}/attack", handleAttack(logger, c))
			r.Post("/games/{id}/score", handleScoreGame(logger, c))

			r.Post("/teams", handleCreateTeam(logger, c))
			r.Patch("/teams/{id}", handleUpdateTeam(logger, c))
			r.Delete("/teams/{id}", handleDeleteTeam(logger, c))
			r.Post("/teams/{id}/clear/{field}", handleClear(logger, c, "teams"))

			r.Post("/players", handleCreatePlayer(logger, c))
			r.Patch("/players/{id}", handleUpdatePlayer(logger, c))
			r.Delete("/players/{id}", handleDeletePlayer(logger, c))
			r.Post("/players/{id}/clear/{field}", handleClear(logger, c, "players"))

			r.Post("/minigames", handleCreateMiniGame(logger, c))
			r.Patch("/minigames/{id}", handleUpdateMiniGame(logger, c))
			r.Delete("/minigames/{id}", handleDeleteMiniGame(logger, c))
			r.Post("/minigames/{id}/clear/{field}", handleClear(logger, c, "minigames"))

			r.Patch("/settings", handleUpdateSettings(logger, c))
		})
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
