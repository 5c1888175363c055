package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/iams-api/internal/infrastructure/metrics"
	"github.com/iams-api/internal/transport/http/middleware"
	"golang.org/x/sync/errgroup"
)

// SSE event names.
const (
	eventConnected    = "connected"
	eventNotification = "notification"
	eventHeartbeat    = "heartbeat"
)

type connectedEvent struct {
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId"`
}

type heartbeatEvent struct {
	Time time.Time `json:"time"`
}

// sseWriter serialises event frames from the forwarding and heartbeat loops.
type sseWriter struct {
	mu sync.Mutex
	w  http.ResponseWriter
	f  http.Flusher
}

func (s *sseWriter) send(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// Stream serves GET /notifications/stream as Server-Sent Events. It holds
// the request open until the client goes away or the server shuts down.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	// The server's WriteTimeout would otherwise cut the stream.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sub := h.svc.Subscribe(claims.UserID)
	defer h.svc.Unsubscribe(sub)
	log := slog.With("user_id", claims.UserID, "connection_id", sub.ID())

	sw := &sseWriter{w: w, f: flusher}
	if err := sw.send(eventConnected, connectedEvent{UserID: claims.UserID, ConnectionID: sub.ID()}); err != nil {
		log.Debug("notification stream closed before connect", "err", err)
		return
	}
	log.Debug("notification stream opened")

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		for {
			n, err := sub.Next(ctx)
			if err != nil {
				return err
			}
			if err := sw.send(eventNotification, n); err != nil {
				return err
			}
			metrics.NotificationsDelivered.Inc()
		}
	})
	g.Go(func() error {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case t := <-ticker.C:
				if err := sw.send(eventHeartbeat, heartbeatEvent{Time: t.UTC()}); err != nil {
					return err
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Debug("notification stream closed", "err", err)
}
