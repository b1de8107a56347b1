// Package live streams dashboard updates over server-sent events. Each
// connection receives a snapshot of the active sessions, then incremental
// domain events relayed through Redis pub/sub.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cozyhive/backend-pos/internal/obs"
	"github.com/cozyhive/backend-pos/internal/session"
)

// Feed serves the SSE endpoint.
type Feed struct {
	R         *redis.Client
	Channel   string
	Sessions  *session.Service
	Log       zerolog.Logger
	Heartbeat time.Duration
}

// Serve handles GET /api/v1/live. It writes a `snapshot` event with the
// current active sessions, then relays pub/sub envelopes as `update` events
// until the client disconnects.
func (f *Feed) Serve(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if obs.LiveFeedSubscribers != nil {
		obs.LiveFeedSubscribers.Inc()
		defer obs.LiveFeedSubscribers.Dec()
	}

	ctx := r.Context()
	if err := f.writeSnapshot(ctx, w); err != nil {
		f.Log.Warn().Err(err).Msg("live: snapshot failed")
		return
	}
	flusher.Flush()

	channel := f.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	sub := f.R.Subscribe(ctx, channel)
	defer func() { _ = sub.Close() }()

	heartbeat := f.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case msg, open := <-messages:
			if !open {
				return
			}
			if err := writeEvent(w, "update", []byte(msg.Payload)); err != nil {
				return
			}
			// session changes refresh the dashboard snapshot so clients
			// never have to reassemble state from deltas
			if sessionTopic(msg.Payload) {
				if err := f.writeSnapshot(ctx, w); err != nil {
					f.Log.Warn().Err(err).Msg("live: snapshot refresh failed")
					return
				}
			}
			flusher.Flush()
		}
	}
}

func (f *Feed) writeSnapshot(ctx context.Context, w http.ResponseWriter) error {
	views, err := f.Sessions.ListActive(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{"sessions": views})
	if err != nil {
		return err
	}
	return writeEvent(w, "snapshot", data)
}

func sessionTopic(payload string) bool {
	var envelope struct {
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return false
	}
	return strings.HasPrefix(envelope.Topic, "session.")
}

func writeEvent(w http.ResponseWriter, event string, data []byte) error {
	if _, err := w.Write([]byte("event: " + event + "\n")); err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write([]byte("\n\n"))
	return err
}
