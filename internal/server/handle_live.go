package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"

	"github.com/hkpass/console/internal/console"
)

// handleLive is the WebSocket twin of the SSE stream, opening with the same
// snapshot event. Client messages are ignored.
func handleLive(logger *slog.Logger, broker *Broker, c *console.Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		topic := topicFor(r.URL.Query().Get("team"))
		ch := broker.Subscribe(topic)
		defer broker.Unsubscribe(topic, ch)

		ctx := conn.CloseRead(r.Context())
		hello, _ := json.Marshal(snapshotEvent(c.Generation()))
		if err := conn.Write(ctx, websocket.MessageText, hello); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}
		for {
			select {
			case <-ctx.Done():
				logger.Debug("websocket closed", "topic", topic)
				return
			case data := <-ch:
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}
