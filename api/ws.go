package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"course-chat/contract"
	"course-chat/domain"
	"course-chat/realtime"
	"course-chat/services"
)

// WSHandler attaches live sessions. A valid token binds the session to its
// user address; a missing or bad token degrades to an anonymous session
// that only observes broadcasts.
type WSHandler struct {
	log        *slog.Logger
	auth       services.IAuthService
	registry   contract.Registry
	publisher  contract.Publisher
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewWSHandler(
	log *slog.Logger,
	auth services.IAuthService,
	registry contract.Registry,
	publisher contract.Publisher,
	bufferSize int,
) *WSHandler {
	return &WSHandler{
		log:        log,
		auth:       auth,
		registry:   registry,
		publisher:  publisher,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy belongs to the deployment edge.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var user domain.UserID
	if token := bearerToken(r); token != "" {
		resolved, err := h.auth.ResolveIdentity(token)
		if err != nil {
			h.log.Debug("ws token rejected, continuing as anonymous", "error", err)
		} else {
			user = resolved
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	session := realtime.NewSession(conn, user, h.bufferSize)
	h.registry.Attach(user, session)
	h.log.Debug("session attached", "user", user, "anonymous", user == "")

	// Presence hints fire on every connect and disconnect; they are
	// non-authoritative, so no attempt is made to coalesce multi-device
	// transitions.
	if user != "" {
		h.publisher.PublishPresence(r.Context(), user, true)
	}

	go session.WritePump()
	session.ReadPump() // blocks until the client goes away

	h.registry.Detach(session)
	session.Close()
	if user != "" {
		h.publisher.PublishPresence(r.Context(), user, false)
	}
	h.log.Debug("session detached", "user", user)
}
