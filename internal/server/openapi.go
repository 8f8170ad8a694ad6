package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/hkpass/console/internal/console"
	"github.com/hkpass/console/internal/handler/health"
	"github.com/hkpass/console/internal/scoring"
	"github.com/hkpass/console/internal/store"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type nameParam struct {
	Name string `path:"name"`
}

type idParam struct {
	ID int64 `path:"id"`
}

type clearParams struct {
	ID    int64  `path:"id"`
	Field string `path:"field"`
}

type teamParam struct {
	Team string `query:"team"`
}

type limitParam struct {
	Limit int `query:"limit"`
}

type apiOperation struct {
	method      string
	path        string
	summary     string
	description string
	params      any
	request     any
	responses   map[int]any
	contentType string
}

var apiOperations = []apiOperation{
	{
		method: http.MethodGet, path: "/healthz",
		summary:     "Health check",
		description: "Reports the scoring API, SQLite and, when configured, Redis.",
		responses:   map[int]any{200: health.Response{}, 503: health.Response{}},
	},
	{
		method: http.MethodGet, path: "/ws/live", params: teamParam{},
		summary:     "Live updates (WebSocket)",
		description: "Pushes console events as JSON text messages. Pass ?team= to follow one team.",
		responses:   map[int]any{101: nil},
		contentType: "text/plain",
	},
	{
		method: http.MethodPost, path: "/api/login",
		summary: "Log in", description: "Checks the operator password and sets the console_session cookie.",
		request:   LoginRequest{},
		responses: map[int]any{200: SessionResponse{}, 400: ErrorResponse{}, 401: ErrorResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/logout",
		summary: "Log out", description: "Deletes the session and clears the cookie.",
		responses: map[int]any{200: SessionResponse{}},
	},
	{
		method: http.MethodGet, path: "/api/session",
		summary: "Session state", description: "Reports whether the caller holds a live session.",
		responses: map[int]any{200: SessionResponse{}},
	},
	{
		method: http.MethodGet, path: "/api/events", params: teamParam{},
		summary: "Live updates (SSE)", description: "Server-Sent Events stream of console events. Pass ?team= to follow one team. The stream opens with a snapshot event carrying the cache generation as its id, skipped when Last-Event-ID already matches.",
		responses:   map[int]any{200: nil},
		contentType: "text/event-stream",
	},
	{
		method: http.MethodGet, path: "/api/dashboard",
		summary: "Dashboard", description: "Teams by score, players by number, settings and the next free player number.",
		responses: map[int]any{200: console.DashboardView{}},
	},
	{
		method: http.MethodGet, path: "/api/ranking",
		summary: "Leaderboards", description: "The four ranking boards with hidden values masked.",
		responses: map[int]any{200: console.RankingView{}},
	},
	{
		method: http.MethodGet, path: "/api/panels/{name}", params: nameParam{},
		summary: "Team panel", description: "A team, its members and the teams that may attack it.",
		responses: map[int]any{200: console.TeamPanelView{}, 404: ErrorResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/panels/{name}/attack", params: nameParam{},
		summary: "Record an attack", description: "Adds the attack to the target, the attacking player and the attacking team. Partial failures are rolled back.",
		request:   AttackBody{},
		responses: map[int]any{200: console.ActionResult{}, 400: ErrorResponse{}, 401: ErrorResponse{}, 404: ErrorResponse{}, 502: ActionErrorResponse{}},
	},
	{
		method: http.MethodGet, path: "/api/games",
		summary: "Game catalog", description: "Displayed mini-games.",
		responses: map[int]any{200: []scoring.MiniGame{}},
	},
	{
		method: http.MethodGet, path: "/api/games/{id}", params: idParam{},
		summary: "Game detail", description: "One mini-game with the teams to score it for.",
		responses: map[int]any{200: console.GameDetailView{}, 404: ErrorResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/games/{id}/score", params: idParam{},
		summary: "Score a game", description: "Credits the player with the game's chips and counts one play.",
		request:   ScoreBody{},
		responses: map[int]any{200: console.ActionResult{}, 400: ErrorResponse{}, 401: ErrorResponse{}, 404: ErrorResponse{}, 502: ActionErrorResponse{}},
	},
	{
		method: http.MethodGet, path: "/api/players/next-number",
		summary:   "Next player number",
		responses: map[int]any{200: NextNumberResponse{}},
	},
	{
		method: http.MethodGet, path: "/api/actions", params: limitParam{},
		summary: "Action journal", description: "Recent actions with their steps, newest first. ?limit= defaults to 50.",
		responses: map[int]any{200: []store.Action{}, 400: ErrorResponse{}, 401: ErrorResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/teams",
		summary: "Create team", request: Fields{},
		responses: map[int]any{201: scoring.Team{}, 400: ErrorResponse{}, 401: ErrorResponse{}},
	},
	{
		method: http.MethodPatch, path: "/api/teams/{id}", params: idParam{},
		summary: "Edit team", request: Fields{},
		responses: map[int]any{200: scoring.Team{}, 400: ErrorResponse{}, 401: ErrorResponse{}, 404: ErrorResponse{}},
	},
	{
		method: http.MethodDelete, path: "/api/teams/{id}", params: idParam{},
		summary:   "Delete team",
		responses: map[int]any{204: nil, 401: ErrorResponse{}, 404: ErrorResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/teams/{id}/clear/{field}", params: clearParams{},
		summary: "Reset a team counter", description: "field is score or attacked_count.",
		responses: map[int]any{200: console.ActionResult{}, 400: ErrorResponse{}, 401: ErrorResponse{}, 404: ErrorResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/players",
		summary: "Create player", description: "An empty number is filled with the next free one.",
		request:   Fields{},
		responses: map[int]any{201: scoring.Player{}, 400: ErrorResponse{}, 401: ErrorResponse{}},
	},
	{
		method: http.MethodPatch, path: "/api/players/{id}", params: idParam{},
		summary: "Edit player", request: Fields{},
		responses: map[int]any{200: scoring.Player{}, 400: ErrorResponse{}, 401: ErrorResponse{}, 404: ErrorResponse{}},
	},
	{
		method: http.MethodDelete, path: "/api/players/{id}", params: idParam{},
		summary:   "Delete player",
		responses: map[int]any{204: nil, 401: ErrorResponse{}, 404: ErrorResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/players/{id}/clear/{field}", params: clearParams{},
		summary: "Reset a player counter", description: "field is personal_score or chips.",
		responses: map[int]any{200: console.ActionResult{}, 400: ErrorResponse{}, 401: ErrorResponse{}, 404: ErrorResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/minigames",
		summary: "Create mini-game", request: Fields{},
		responses: map[int]any{201: scoring.MiniGame{}, 400: ErrorResponse{}, 401: ErrorResponse{}},
	},
	{
		method: http.MethodPatch, path: "/api/minigames/{id}", params: idParam{},
		summary: "Edit mini-game", request: Fields{},
		responses: map[int]any{200: scoring.MiniGame{}, 400: ErrorResponse{}, 401: ErrorResponse{}, 404: ErrorResponse{}},
	},
	{
		method: http.MethodDelete, path: "/api/minigames/{id}", params: idParam{},
		summary:   "Delete mini-game",
		responses: map[int]any{204: nil, 401: ErrorResponse{}, 404: ErrorResponse{}},
	},
	{
		method: http.MethodPost, path: "/api/minigames/{id}/clear/{field}", params: clearParams{},
		summary: "Reset a mini-game counter", description: "field is play_count.",
		responses: map[int]any{200: console.ActionResult{}, 400: ErrorResponse{}, 401: ErrorResponse{}, 404: ErrorResponse{}},
	},
	{
		method: http.MethodPatch, path: "/api/settings",
		summary: "Edit settings", description: "Attack multipliers and leaderboard options. The login password is never returned.",
		request:   Fields{},
		responses: map[int]any{200: scoring.Settings{}, 400: ErrorResponse{}, 401: ErrorResponse{}},
	},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Scoring Console API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Operator console in front of the event scoring API.")

	for _, op := range apiOperations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		if op.params != nil {
			oc.AddReqStructure(op.params)
		}
		if op.request != nil {
			oc.AddReqStructure(op.request)
		}
		for status, body := range op.responses {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(status)}
			if body == nil && op.contentType != "" {
				opts = append(opts, openapi.WithContentType(op.contentType))
			}
			oc.AddRespStructure(body, opts...)
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
