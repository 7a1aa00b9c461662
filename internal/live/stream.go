package live

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/quillpress/quillpress/internal/identity"
	"github.com/quillpress/quillpress/internal/platform/httpx"
)

const heartbeatInterval = 25 * time.Second

// StreamHandler serves the server-sent-events notification stream. Each
// connection is one live session, registered on connect and removed on
// disconnect.
type StreamHandler struct {
	hub    *Hub
	logger *slog.Logger
}

// NewStreamHandler constructs a StreamHandler.
func NewStreamHandler(hub *Hub, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, logger: logger}
}

// Stream upgrades the request to a text/event-stream connection and relays
// hub messages until the client goes away.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.Problem(w, http.StatusInternalServerError, "Streaming Unsupported", "")
		return
	}

	sessionID := uuid.NewString()
	messages, unregister := h.hub.Register(sessionID, principal.UserID)
	defer unregister()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Info("live session opened",
		slog.String("session_id", sessionID),
		slog.String("user_id", principal.UserID))

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("live session closed", slog.String("session_id", sessionID))
			return
		case <-heartbeat.C:
			// SSE comment line; keeps proxies from idling the connection out.
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case message := <-messages:
			if _, err := fmt.Fprintf(w, "event: notification\ndata: %s\n\n", message); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
