package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/domain"
	"chat-relay/domain/event"
	relayerrors "chat-relay/errors"
	"chat-relay/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client binds one WebSocket connection to its session. It is the
// contract.EventSink for that session: the relay hands it events, the write
// pump flushes them to the peer. The send channel is buffered; a peer that
// cannot drain it loses events rather than stalling the relay.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	service services.IChatService
	session *domain.Session
	log     *slog.Logger
}

func NewClient(conn *websocket.Conn, service services.IChatService, session *domain.Session,
	sendBufferSize int, log *slog.Logger) *Client {
	return &Client{
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		service: service,
		session: session,
		log:     log,
	}
}

// Consume implements contract.EventSink. It never blocks the relay: when the
// send buffer is full the event is dropped and the loss is logged.
func (c *Client) Consume(e event.Event) error {
	frame, err := EncodeEvent(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Name(), err)
	}
	select {
	case c.send <- frame:
		return nil
	default:
		c.log.Warn("Send buffer full, dropping event",
			"session_id", c.session.ID, "event", e.Name())
		return nil
	}
}

// Run starts both pumps and blocks until the connection is gone. Disconnect
// side effects run exactly once, from the read pump's teardown.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.service.Disconnect(c.session)
		close(c.send)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, io.EOF) {
				c.log.Warn("Read failed", "session_id", c.session.ID, "error", err)
			}
			return
		}
		c.handleFrame(raw)
	}
}

// handleFrame dispatches one inbound envelope. Malformed frames are dropped;
// a transport error must never disturb other sessions. Acks go out only when
// the frame carried an ack id.
func (c *Client) handleFrame(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Warn("Malformed frame", "session_id", c.session.ID, "error", err)
		return
	}

	switch env.Event {
	case EventSetUsername:
		name, err := c.service.SetUsername(c.session, decodeString(env.Data))
		if err != nil {
			c.ack(env, Ack{OK: false, Error: AckErrEmpty})
			return
		}
		c.ack(env, Ack{OK: true, Username: name})

	case EventSetColor:
		color := c.service.SetColor(c.session, decodeString(env.Data))
		c.ack(env, Ack{OK: true, Color: color})

	case EventJoinRoom:
		room, err := c.service.JoinRoom(c.session, decodeString(env.Data))
		if err != nil {
			c.ack(env, Ack{OK: false})
			return
		}
		c.ack(env, Ack{OK: true, Room: room})

	case EventChatMessage:
		if err := c.service.PostMessage(c.session, decodeString(env.Data)); err != nil {
			if errors.Is(err, relayerrors.ErrNoIdentity) {
				c.ack(env, Ack{OK: false, Error: AckErrNoUsername})
				return
			}
			c.ack(env, Ack{OK: false})
			return
		}
		c.ack(env, Ack{OK: true})

	case EventTyping:
		c.service.Typing(c.session)

	case EventStopTyping:
		c.service.StopTyping(c.session)

	default:
		c.log.Debug("Ignoring unknown event", "session_id", c.session.ID, "event", env.Event)
	}
}

// decodeString reads a JSON string payload, tolerating raw text for clients
// that skip the quoting.
func decodeString(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return string(data)
	}
	return s
}

func (c *Client) ack(env Envelope, ack Ack) {
	if env.ID == nil {
		return
	}
	frame, err := EncodeAck(*env.ID, ack)
	if err != nil {
		c.log.Error("Ack encoding failed", "session_id", c.session.ID, "error", err)
		return
	}
	select {
	case c.send <- frame:
	default:
		c.log.Warn("Send buffer full, dropping ack", "session_id", c.session.ID)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
