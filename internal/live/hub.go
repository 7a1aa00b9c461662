// Package live owns the ephemeral session registry and the transport that
// pushes rendered notifications to connected clients. Sessions exist only
// for the lifetime of a connection and are never persisted.
package live

import (
	"log/slog"
	"sync"
	"time"

	"github.com/quillpress/quillpress/internal/observability"
)

const sessionBuffer = 16

type session struct {
	id     string
	userID string
	ch     chan string
}

// Hub tracks live sessions. Registration and removal are serialized behind
// a mutex; delivery iterates over a snapshot, so a session connecting or
// disconnecting mid-delivery cannot corrupt iteration.
type Hub struct {
	mu          sync.RWMutex
	sessions    map[string]*session
	sendTimeout time.Duration
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewHub constructs a Hub. sendTimeout bounds the push to a single session's
// channel; a session that cannot accept within the window is skipped for
// that event only, not disconnected.
func NewHub(sendTimeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Hub {
	if sendTimeout <= 0 {
		sendTimeout = 2 * time.Second
	}
	return &Hub{
		sessions:    make(map[string]*session),
		sendTimeout: sendTimeout,
		metrics:     metrics,
		logger:      logger,
	}
}

// Register adds a live session for userID and returns its message channel
// together with an unregister func. The caller must invoke the unregister
// func on disconnect.
func (h *Hub) Register(sessionID, userID string) (<-chan string, func()) {
	s := &session{id: sessionID, userID: userID, ch: make(chan string, sessionBuffer)}

	h.mu.Lock()
	h.sessions[sessionID] = s
	h.mu.Unlock()

	return s.ch, func() {
		h.mu.Lock()
		delete(h.sessions, sessionID)
		h.mu.Unlock()
	}
}

// Deliver pushes a message to every live session belonging to userID.
// Delivery is best-effort: a full channel drops the message for that
// session after the send timeout and the failure is invisible to whoever
// produced the event.
func (h *Hub) Deliver(userID, message string) {
	h.mu.RLock()
	targets := make([]*session, 0, 2)
	for _, s := range h.sessions {
		if s.userID == userID {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		h.send(s, message)
	}
}

func (h *Hub) send(s *session, message string) {
	timer := time.NewTimer(h.sendTimeout)
	defer timer.Stop()

	select {
	case s.ch <- message:
		if h.metrics != nil {
			h.metrics.LiveDelivered()
		}
	case <-timer.C:
		if h.metrics != nil {
			h.metrics.LiveDropped()
		}
		if h.logger != nil {
			h.logger.Warn("live session send timed out",
				slog.String("session_id", s.id),
				slog.String("user_id", s.userID))
		}
	}
}

// ConnectedUserIDs returns the distinct users with at least one live
// session. Feeds audience resolution for platform-wide announcements.
func (h *Hub) ConnectedUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{}, len(h.sessions))
	out := make([]string, 0, len(h.sessions))
	for _, s := range h.sessions {
		if _, ok := seen[s.userID]; ok {
			continue
		}
		seen[s.userID] = struct{}{}
		out = append(out, s.userID)
	}
	return out
}

// SessionCount reports the number of live sessions, for health reporting.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
