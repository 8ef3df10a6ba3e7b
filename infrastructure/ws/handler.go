package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/services"
)

// Handler upgrades HTTP requests to the relay's event channel.
//
// The handshake accepts an optional token (?token=...): a valid one
// pre-fills the session's username so the client can skip "set username",
// an invalid one rejects the connection, and no token at all is fine since
// the in-band identity flow still applies.
type Handler struct {
	service        services.IChatService
	secret         []byte
	sendBufferSize int
	log            *slog.Logger
	upgrader       websocket.Upgrader
}

func NewHandler(service services.IChatService, secret []byte, sendBufferSize int, log *slog.Logger) *Handler {
	return &Handler{
		service:        service,
		secret:         secret,
		sendBufferSize: sendBufferSize,
		log:            log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The relay serves browser clients from arbitrary origins,
			// mirroring the permissive CORS policy of the HTTP API.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var username string
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err := auth.ValidateToken(h.secret, token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		username = claims.Username
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	session := domain.NewSession(uuid.NewString(), username)
	client := NewClient(conn, h.service, session, h.sendBufferSize, h.log)

	h.log.Info("Session connected", "session_id", session.ID, "remote", r.RemoteAddr)
	h.service.Connect(session, client)
	go client.Run()
}
