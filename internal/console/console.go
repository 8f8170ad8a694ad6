// Package console keeps canonical copies of the scoring API's collections
// in sync through polling, applies operator actions against the API and
// serves the derived screens.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hkpass/console/internal/poller"
	"github.com/hkpass/console/internal/scoreapi"
	"github.com/hkpass/console/internal/scoring"
	"github.com/hkpass/console/internal/store"
)

// Upstream is the part of the scoring API the console drives.
type Upstream interface {
	ListTeams(ctx context.Context) ([]scoring.Team, error)
	TeamByName(ctx context.Context, name string) (scoring.Team, error)
	ListPlayers(ctx context.Context) ([]scoring.Player, error)
	PlayersByTeam(ctx context.Context, teamID int64) ([]scoring.Player, error)
	ListMiniGames(ctx context.Context) ([]scoring.MiniGame, error)
	GetMiniGame(ctx context.Context, id int64) (scoring.MiniGame, error)
	GetSettings(ctx context.Context) (scoring.Settings, error)

	PatchTeam(ctx context.Context, id int64, fields scoreapi.Fields) (scoring.Team, error)
	PatchPlayer(ctx context.Context, id int64, fields scoreapi.Fields) (scoring.Player, error)
	PatchMiniGame(ctx context.Context, id int64, fields scoreapi.Fields) (scoring.MiniGame, error)
	PatchSettings(ctx context.Context, id int64, fields scoreapi.Fields) (scoring.Settings, error)

	CreateTeam(ctx context.Context, fields scoreapi.Fields) (scoring.Team, error)
	CreatePlayer(ctx context.Context, fields scoreapi.Fields) (scoring.Player, error)
	CreateMiniGame(ctx context.Context, fields scoreapi.Fields) (scoring.MiniGame, error)

	DeleteTeam(ctx context.Context, id int64) error
	DeletePlayer(ctx context.Context, id int64) error
	DeleteMiniGame(ctx context.Context, id int64) error
}

// Journal records multi-step actions.
type Journal interface {
	Begin(ctx context.Context, kind string, payload any) (string, error)
	RecordStep(ctx context.Context, actionID string, st store.Step) error
	Finish(ctx context.Context, actionID string, status store.Status, errMsg string) error
}

// Publisher fans change notifications out to live subscribers.
type Publisher interface {
	Publish(topic string, ev Event)
}

// Mirror keeps a copy of the last applied snapshot outside the process.
type Mirror interface {
	Save(ctx context.Context, v any) error
	Load(ctx context.Context, v any) error
}

// TopicAll receives every event.
const TopicAll = "console"

// TeamTopic receives events touching one team.
func TeamTopic(name string) string {
	return "team:" + strings.ToLower(strings.TrimSpace(name))
}

// Event is published after a poll tick changed data or an action finished.
type Event struct {
	Type       string   `json:"type"`
	Generation uint64   `json:"generation,omitempty"`
	Resources  []string `json:"resources,omitempty"`
	Action     string   `json:"action,omitempty"`
	ActionID   string   `json:"actionId,omitempty"`
}

type Options struct {
	Upstream   Upstream
	Journal    Journal
	Publisher  Publisher
	Mirror     Mirror
	Logger     *slog.Logger
	Interval   time.Duration
	Policy     ApplyPolicy
	Compensate bool
}

type Console struct {
	api        Upstream
	journal    Journal
	pub        Publisher
	mirror     Mirror
	logger     *slog.Logger
	interval   time.Duration
	compensate bool

	poller   *poller.Poller
	teams    *List[scoring.Team]
	players  *List[scoring.Player]
	games    *List[scoring.MiniGame]
	settings *Value[scoring.Settings]

	// applyMu serialises tick applies against Stop.
	applyMu  sync.Mutex
	lastTick atomic.Uint64
	// warmSettings is set while the cached settings came from the mirror,
	// which never holds the login password.
	warmSettings atomic.Bool
}

func New(opts Options) *Console {
	c := &Console{
		api:        opts.Upstream,
		journal:    opts.Journal,
		pub:        opts.Publisher,
		mirror:     opts.Mirror,
		logger:     opts.Logger,
		interval:   opts.Interval,
		compensate: opts.Compensate,
		teams:      NewList[scoring.Team](opts.Policy),
		players:    NewList[scoring.Player](opts.Policy),
		games:      NewList[scoring.MiniGame](opts.Policy),
		settings:   NewValue[scoring.Settings](opts.Policy),
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.journal == nil {
		c.journal = nopJournal{}
	}
	if c.pub == nil {
		c.pub = nopPublisher{}
	}
	if c.interval <= 0 {
		c.interval = time.Second
	}
	c.poller = poller.New("console", c.logger)
	return c
}

// Start warms the lists from the mirror, if any, and begins polling.
func (c *Console) Start(ctx context.Context) error {
	c.warm(ctx)
	if err := c.poller.Start(ctx, c.interval, c.Refresh); err != nil {
		return fmt.Errorf("starting poller: %w", err)
	}
	c.logger.Info("console polling started", "interval", c.interval.String())
	return nil
}

// Stop cancels polling. Once it returns no tick result is applied; ticks
// still fetching are discarded when they resolve.
func (c *Console) Stop() {
	c.poller.Stop()
	// A tick past its cancellation check finishes applying first.
	c.applyMu.Lock()
	c.applyMu.Unlock()
	c.logger.Info("console polling stopped")
}

// stamp is the newest tick generation started so far. Entities the server
// returns after this point are at least as fresh as any of those ticks.
func (c *Console) stamp() uint64 {
	return max(c.poller.Generation(), c.lastTick.Load())
}

func (c *Console) noteTick(gen uint64) {
	for {
		cur := c.lastTick.Load()
		if gen <= cur || c.lastTick.CompareAndSwap(cur, gen) {
			return
		}
	}
}

// Snapshot is the full canonical state at one moment.
type Snapshot struct {
	Generation     uint64             `json:"generation"`
	Teams          []scoring.Team     `json:"teams"`
	Players        []scoring.Player   `json:"players"`
	MiniGames      []scoring.MiniGame `json:"minigames"`
	Settings       scoring.Settings   `json:"settings"`
	SettingsLoaded bool               `json:"settingsLoaded"`
}

func (c *Console) Snapshot() Snapshot {
	s, ok := c.settings.Get()
	return Snapshot{
		Generation:     c.teams.Generation(),
		Teams:          c.teams.Snapshot(),
		Players:        c.players.Snapshot(),
		MiniGames:      c.games.Snapshot(),
		Settings:       s,
		SettingsLoaded: ok,
	}
}

// Generation is the tick generation the cached teams were last replaced by.
func (c *Console) Generation() uint64 { return c.teams.Generation() }

// Refresh is one poll tick: it fetches every collection concurrently and,
// when all succeed, applies them under the configured ApplyPolicy. A tick
// whose context was cancelled before it resolved is discarded.
func (c *Console) Refresh(ctx context.Context, gen uint64) error {
	c.noteTick(gen)

	var (
		teams           []scoring.Team
		players         []scoring.Player
		games           []scoring.MiniGame
		settings        scoring.Settings
		settingsMissing bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		teams, err = c.api.ListTeams(gctx)
		return err
	})
	g.Go(func() (err error) {
		players, err = c.api.ListPlayers(gctx)
		return err
	})
	g.Go(func() (err error) {
		games, err = c.api.ListMiniGames(gctx)
		return err
	})
	g.Go(func() error {
		s, err := c.api.GetSettings(gctx)
		if errors.Is(err, scoreapi.ErrNotFound) {
			settingsMissing = true
			return nil
		}
		settings = s
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refreshing generation %d: %w", gen, err)
	}

	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	if ctx.Err() != nil {
		c.logger.Debug("discarding tick after stop", "generation", gen)
		return nil
	}

	var changed []string
	if _, ch := c.teams.SetAll(gen, teams); ch {
		changed = append(changed, scoring.ResourceTeams)
	}
	if _, ch := c.players.SetAll(gen, players); ch {
		changed = append(changed, scoring.ResourcePlayers)
	}
	if _, ch := c.games.SetAll(gen, games); ch {
		changed = append(changed, scoring.ResourceMiniGames)
	}
	if !settingsMissing {
		applied, ch := c.settings.Set(gen, settings)
		if applied {
			c.warmSettings.Store(false)
		}
		if ch {
			changed = append(changed, scoring.ResourceSettings)
		}
	}

	if len(changed) == 0 {
		return nil
	}
	c.logger.Debug("poll tick applied", "generation", gen, "changed", changed)

	if c.mirror != nil {
		snap := c.Snapshot()
		snap.Settings = snap.Settings.Redacted()
		if err := c.mirror.Save(ctx, snap); err != nil {
			c.logger.Warn("saving snapshot mirror", "error", err)
		}
	}
	c.pub.Publish(TopicAll, Event{Type: "snapshot", Generation: gen, Resources: changed})
	return nil
}

func (c *Console) warm(ctx context.Context) {
	if c.mirror == nil {
		return
	}
	var snap Snapshot
	if err := c.mirror.Load(ctx, &snap); err != nil {
		c.logger.Info("no snapshot to warm from", "reason", err)
		return
	}
	c.teams.SetAll(0, snap.Teams)
	c.players.SetAll(0, snap.Players)
	c.games.SetAll(0, snap.MiniGames)
	if snap.SettingsLoaded {
		c.settings.Set(0, snap.Settings)
		c.warmSettings.Store(true)
	}
	c.logger.Info("warmed from snapshot mirror",
		"teams", len(snap.Teams),
		"players", len(snap.Players),
		"minigames", len(snap.MiniGames),
	)
}

// LoadSettings returns the cached settings, fetching them when no tick has
// delivered them yet.
func (c *Console) LoadSettings(ctx context.Context) (scoring.Settings, error) {
	if s, ok := c.settings.Get(); ok && !c.warmSettings.Load() {
		return s, nil
	}
	s, err := c.api.GetSettings(ctx)
	if errors.Is(err, scoreapi.ErrNotFound) {
		return scoring.Settings{}, fmt.Errorf("settings: %w", ErrNotFound)
	}
	if err != nil {
		return scoring.Settings{}, err
	}
	c.settings.Replace(c.stamp(), s)
	c.warmSettings.Store(false)
	return s, nil
}

type nopJournal struct{}

func (nopJournal) Begin(context.Context, string, any) (string, error)         { return "", nil }
func (nopJournal) RecordStep(context.Context, string, store.Step) error       { return nil }
func (nopJournal) Finish(context.Context, string, store.Status, string) error { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(string, Event) {}
