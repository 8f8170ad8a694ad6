package console

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hkpass/console/internal/database"
	"github.com/hkpass/console/internal/migrations"
	"github.com/hkpass/console/internal/scoreapi"
	"github.com/hkpass/console/internal/scoreapi/scoreapitest"
	"github.com/hkpass/console/internal/scoring"
	"github.com/hkpass/console/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v int64) *int64 { return &v }

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return store.New(db)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]Event
}

func (p *recordingPublisher) Publish(topic string, ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string][]Event)
	}
	p.events[topic] = append(p.events[topic], ev)
}

func (p *recordingPublisher) on(topic string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events[topic]...)
}

type memMirror struct {
	mu  sync.Mutex
	buf []byte
}

func (m *memMirror) Save(_ context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.buf = b
	m.mu.Unlock()
	return nil
}

func (m *memMirror) Load(_ context.Context, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buf == nil {
		return io.EOF
	}
	return json.Unmarshal(m.buf, v)
}

// fixture is the attack scenario: target Red, attacker Blue with player 7.
type fixture struct {
	api     *scoreapitest.Server
	console *Console
	journal *store.Store
	pub     *recordingPublisher

	red, blue scoring.Team
	player    scoring.Player
	game      scoring.MiniGame
}

func newFixture(t *testing.T, compensate bool) *fixture {
	t.Helper()
	api := scoreapitest.New(t)

	f := &fixture{api: api, journal: setupStore(t), pub: &recordingPublisher{}}
	f.red = api.AddTeam(scoring.Team{ID: 1, Name: "Red", Score: 10, AttackedCount: 2})
	f.blue = api.AddTeam(scoring.Team{ID: 2, Name: "Blue", Score: 5})
	f.player = api.AddPlayer(scoring.Player{ID: 1, Name: "Ann", Number: "7", PersonalScore: 1, Chips: 20, Team: ptr(2)})
	api.AddPlayer(scoring.Player{ID: 2, Name: "Bo", Number: "3", Team: ptr(1)})
	f.game = api.AddMiniGame(scoring.MiniGame{ID: 1, Name: "Darts", AvailableChips: 15, PlayCount: 4, IsDisplayed: true})
	api.AddMiniGame(scoring.MiniGame{ID: 2, Name: "Hidden", IsDisplayed: false})
	api.SetSettings(scoring.Settings{ID: 1, AttackerTeamBonus: 2, AttackerPlayerBonus: 1, AttackedIncrement: 1, LoginPassword: "hunter2"})

	f.console = New(Options{
		Upstream:   scoreapi.New(api.URL(), 5*time.Second, discardLogger()),
		Journal:    f.journal,
		Publisher:  f.pub,
		Logger:     discardLogger(),
		Interval:   time.Hour,
		Policy:     ApplyLastWins,
		Compensate: compensate,
	})
	if err := f.console.Refresh(context.Background(), 1); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}
	api.ResetRequests()
	return f
}
