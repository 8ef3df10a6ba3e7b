// Package client is the Go client for the relay's WebSocket event channel.
// It pairs acked requests with their responses and exposes everything else
// as a stream of envelopes.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/infrastructure/ws"
)

const defaultAckTimeout = 5 * time.Second

// Client is one live connection to the relay. Safe for concurrent use.
type Client struct {
	conn       *websocket.Conn
	events     chan ws.Envelope
	done       chan struct{}
	ackTimeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int64]chan ws.Ack
	nextID  int64
	closed  bool
}

// Dial connects to the relay at rawURL (a ws:// or wss:// endpoint). A
// non-empty token is passed in the handshake to pre-claim an identity.
func Dial(ctx context.Context, rawURL, token string) (*Client, error) {
	endpoint, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay URL: %w", err)
	}
	if token != "" {
		query := endpoint.Query()
		query.Set("token", token)
		endpoint.RawQuery = query.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c := &Client{
		conn:       conn,
		events:     make(chan ws.Envelope, 64),
		done:       make(chan struct{}),
		ackTimeout: defaultAckTimeout,
		pending:    make(map[int64]chan ws.Ack),
	}
	go c.readLoop()
	return c, nil
}

// Events streams every server-pushed envelope: chat messages, system
// notices, counts, typing indicators. The channel closes when the
// connection dies.
func (c *Client) Events() <-chan ws.Envelope {
	return c.events
}

// SetUsername claims an identity and returns the server's ack.
func (c *Client) SetUsername(name string) (ws.Ack, error) {
	return c.call(ws.EventSetUsername, name)
}

// SetColor proposes a color; a blank string asks the server to pick one.
func (c *Client) SetColor(color string) (ws.Ack, error) {
	return c.call(ws.EventSetColor, color)
}

// JoinRoom enters a room; a blank name means the default room.
func (c *Client) JoinRoom(room string) (ws.Ack, error) {
	return c.call(ws.EventJoinRoom, room)
}

// SendMessage posts a chat message to the current room.
func (c *Client) SendMessage(text string) (ws.Ack, error) {
	return c.call(ws.EventChatMessage, text)
}

// Typing signals that the user started typing. Fire-and-forget.
func (c *Client) Typing() error {
	return c.emit(ws.EventTyping)
}

// StopTyping signals that the user stopped typing. Fire-and-forget.
func (c *Client) StopTyping() error {
	return c.emit(ws.EventStopTyping)
}

// Close tears the connection down. Pending calls fail with a closed error.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

// call sends an acked request and waits for the matching ack.
func (c *Client) call(eventName string, payload string) (ws.Ack, error) {
	ackCh := make(chan ws.Ack, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ws.Ack{}, fmt.Errorf("client closed")
	}
	c.nextID++
	id := c.nextID
	c.pending[id] = ackCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.write(eventName, payload, &id); err != nil {
		return ws.Ack{}, err
	}

	select {
	case ack := <-ackCh:
		return ack, nil
	case <-c.done:
		return ws.Ack{}, fmt.Errorf("connection closed waiting for %q ack", eventName)
	case <-time.After(c.ackTimeout):
		return ws.Ack{}, fmt.Errorf("timed out waiting for %q ack", eventName)
	}
}

func (c *Client) emit(eventName string) error {
	return c.write(eventName, "", nil)
}

func (c *Client) write(eventName, payload string, id *int64) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(ws.Envelope{Event: eventName, Data: data, ID: id})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) readLoop() {
	defer func() {
		close(c.done)
		close(c.events)
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env ws.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}

		if env.Event == "ack" && env.ID != nil {
			var ack ws.Ack
			if err := json.Unmarshal(env.Data, &ack); err != nil {
				continue
			}
			c.mu.Lock()
			pending, ok := c.pending[*env.ID]
			c.mu.Unlock()
			if ok {
				pending <- ack
			}
			continue
		}

		select {
		case c.events <- env:
		default:
			// A reader that stopped draining loses events; the
			// relay itself applies the same policy to slow peers.
		}
	}
}
