// Package scoreapitest runs an in-memory stand-in for the external scoring
// API, for use in tests. It keeps entities as JSON objects, applies PATCH
// as a field merge, and records every request it receives.
package scoreapitest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hkpass/console/internal/scoring"
)

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	data     map[string]map[int64]map[string]any
	nextID   map[string]int64
	requests []Request
	failures map[string]int
}

// New starts a server and registers its shutdown with t.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		data:     make(map[string]map[int64]map[string]any),
		nextID:   make(map[string]int64),
		failures: make(map[string]int),
	}
	for _, r := range []string{scoring.ResourceTeams, scoring.ResourcePlayers, scoring.ResourceMiniGames, scoring.ResourceSettings} {
		s.data[r] = make(map[int64]map[string]any)
	}

	r := chi.NewRouter()
	r.Route("/api/{resource}", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/{id}/", s.get)
		r.Patch("/{id}/", s.patch)
		r.Delete("/{id}/", s.delete)
	})
	s.srv = httptest.NewServer(s.record(r))
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API base, suitable for scoreapi.New.
func (s *Server) URL() string { return s.srv.URL + "/api" }

// Close shuts the server down; later requests fail at the transport level.
func (s *Server) Close() { s.srv.Close() }

// FailNext makes the next request matching method and path (for example
// "PATCH", "/api/players/3/") answer with status.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	s.failures[method+" "+path] = status
	s.mu.Unlock()
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Mutations returns the recorded non-GET requests.
func (s *Server) Mutations() []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method != http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}

func (s *Server) AddTeam(t scoring.Team) scoring.Team {
	var out scoring.Team
	s.put(scoring.ResourceTeams, t.ID, t, &out)
	return out
}

func (s *Server) AddPlayer(p scoring.Player) scoring.Player {
	var out scoring.Player
	s.put(scoring.ResourcePlayers, p.ID, p, &out)
	return out
}

func (s *Server) AddMiniGame(g scoring.MiniGame) scoring.MiniGame {
	var out scoring.MiniGame
	s.put(scoring.ResourceMiniGames, g.ID, g, &out)
	return out
}

func (s *Server) SetSettings(st scoring.Settings) scoring.Settings {
	var out scoring.Settings
	s.put(scoring.ResourceSettings, st.ID, st, &out)
	return out
}

func (s *Server) Team(id int64) (t scoring.Team) {
	s.load(scoring.ResourceTeams, id, &t)
	return t
}

func (s *Server) Player(id int64) (p scoring.Player) {
	s.load(scoring.ResourcePlayers, id, &p)
	return p
}

func (s *Server) MiniGame(id int64) (g scoring.MiniGame) {
	s.load(scoring.ResourceMiniGames, id, &g)
	return g
}

func (s *Server) put(resource string, id int64, v any, out any) {
	obj := toObject(v)

	s.mu.Lock()
	if id == 0 {
		s.nextID[resource]++
		id = s.nextID[resource]
	} else if id > s.nextID[resource] {
		s.nextID[resource] = id
	}
	obj["id"] = id
	s.data[resource][id] = obj
	s.mu.Unlock()

	fromObject(obj, out)
}

func (s *Server) load(resource string, id int64, out any) {
	s.mu.Lock()
	obj := s.data[resource][id]
	s.mu.Unlock()
	if obj != nil {
		fromObject(obj, out)
	}
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
		if r.Body != nil && r.Method != http.MethodGet {
			json.NewDecoder(r.Body).Decode(&req.Body)
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		key := r.Method + " " + r.URL.Path
		status, fail := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()

		if fail {
			writeJSON(w, status, map[string]string{"detail": "injected failure"})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), bodyKey{}, req.Body)))
	})
}

type bodyKey struct{}

func bodyFrom(r *http.Request) map[string]any {
	body, _ := r.Context().Value(bodyKey{}).(map[string]any)
	return body
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")

	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.data[resource]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	ids := make([]int64, 0, len(store))
	for id := range store {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	q := r.URL.Query()
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		obj := store[id]
		if name := q.Get("name"); q.Has("name") && obj["name"] != name {
			continue
		}
		if team := q.Get("team"); q.Has("team") && !sameID(obj["team"], team) {
			continue
		}
		out = append(out, obj)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.lookup(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	body := bodyFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.data[resource]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	s.nextID[resource]++
	id := s.nextID[resource]
	obj := map[string]any{}
	for k, v := range body {
		obj[k] = v
	}
	obj["id"] = id
	store[id] = obj
	writeJSON(w, http.StatusCreated, obj)
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.lookup(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	for k, v := range body {
		if k != "id" {
			obj[k] = v
		}
	}
	writeJSON(w, http.StatusOK, obj)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(r); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	delete(s.data[chi.URLParam(r, "resource")], id)
	w.WriteHeader(http.StatusNoContent)
}

// lookup must be called with s.mu held.
func (s *Server) lookup(r *http.Request) (map[string]any, bool) {
	store, ok := s.data[chi.URLParam(r, "resource")]
	if !ok {
		return nil, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return nil, false
	}
	obj, ok := store[id]
	return obj, ok
}

func sameID(v any, raw string) bool {
	f, ok := v.(float64)
	if !ok {
		return false
	}
	return strconv.FormatInt(int64(f), 10) == raw
}

func toObject(v any) map[string]any {
	buf, _ := json.Marshal(v)
	var obj map[string]any
	json.Unmarshal(buf, &obj)
	return obj
}

func fromObject(obj map[string]any, out any) {
	buf, _ := json.Marshal(obj)
	json.Unmarshal(buf, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
