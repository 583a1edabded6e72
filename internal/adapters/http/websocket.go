package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/wayfinder/internal/adapters/nats"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to channels.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "positions" | "telemetry" | "direction" | "speech" | "notices"
}

// wsEvent wraps a relayed NATS message with its channel so the dashboard can
// route it without parsing subjects.
type wsEvent struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// channelSubject maps a dashboard channel name to its NATS subject.
func channelSubject(channel, deviceID string) (string, bool) {
	switch channel {
	case "positions":
		return natsadapter.SubjectPositionPrefix + deviceID, true
	case "telemetry":
		return natsadapter.SubjectTelemetry, true
	case "direction":
		return natsadapter.SubjectDirection, true
	case "speech":
		return natsadapter.SubjectSpeech, true
	case "notices":
		return natsadapter.SubjectNotice, true
	default:
		return "", false
	}
}

// WebSocketHandler returns a handler that upgrades to WebSocket and relays
// navigation events to the dashboard.
// Clients send JSON: {"action":"subscribe","channel":"speech"}.
// Every client starts subscribed to direction, speech, and notices, which is
// what the voice dashboard needs to operate.
func WebSocketHandler(nc *nats.Conn, deviceID string) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // channel -> subscription

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		subscribe := func(channel string) error {
			subject, ok := channelSubject(channel, deviceID)
			if !ok {
				return fmt.Errorf("unknown channel %q", channel)
			}
			sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
				_ = writeJSON(wsEvent{Channel: channel, Data: msg.Data})
			})
			if err != nil {
				return err
			}
			subs[channel] = sub
			return nil
		}

		for _, channel := range []string{"direction", "speech", "notices"} {
			if err := subscribe(channel); err != nil {
				slog.Warn("ws default subscribe failed", "channel", channel, "error", err)
				return
			}
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			if _, ok := channelSubject(m.Channel, deviceID); !ok {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + m.Channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[m.Channel]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "channel": m.Channel})
					continue
				}
				if err := subscribe(m.Channel); err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "channel": m.Channel})

			case "unsubscribe":
				if s, exists := subs[m.Channel]; exists {
					_ = s.Unsubscribe()
					delete(subs, m.Channel)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "channel": m.Channel})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + m.Channel})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
