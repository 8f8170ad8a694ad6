package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hkpass/console/internal/console"
	"github.com/hkpass/console/internal/scoring"
)

// handleEvents streams console events over SSE. With ?team= only events
// touching that team are sent.
//
// The stream opens with a snapshot event whose id is the cache generation,
// so a screen knows to refetch. A client reconnecting with a Last-Event-ID
// equal to the current generation has missed nothing and skips it.
func handleEvents(logger *slog.Logger, broker *Broker, c *console.Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		topic := topicFor(r.URL.Query().Get("team"))
		ch := broker.Subscribe(topic)
		defer broker.Unsubscribe(topic, ch)

		gen := c.Generation()
		if r.Header.Get("Last-Event-ID") != strconv.FormatUint(gen, 10) {
			data, _ := json.Marshal(snapshotEvent(gen))
			fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", gen, data)
		}
		flusher.Flush()
		logger.Debug("sse subscriber joined", "topic", topic, "generation", gen)

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: update\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}

// snapshotEvent tells a new subscriber every collection may have changed.
func snapshotEvent(gen uint64) console.Event {
	return console.Event{
		Type:       "snapshot",
		Generation: gen,
		Resources: []string{
			scoring.ResourceTeams,
			scoring.ResourcePlayers,
			scoring.ResourceMiniGames,
			scoring.ResourceSettings,
		},
	}
}
