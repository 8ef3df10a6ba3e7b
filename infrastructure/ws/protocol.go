// Package ws carries the relay's event channel over WebSocket. Frames are
// JSON envelopes: inbound {"event","data","id"} where id is an optional ack
// correlation number, outbound {"event","data"}, and acks
// {"event":"ack","id","data"}.
package ws

import (
	"encoding/json"

	"chat-relay/domain/event"
)

// Client-to-server event names.
const (
	EventSetUsername = "set username"
	EventSetColor    = "set color"
	EventJoinRoom    = "join room"
	EventChatMessage = "chat message"
	EventTyping      = "typing"
	EventStopTyping  = "stop typing"

	eventAck = "ack"
)

// Ack error codes reported to the caller of the triggering event.
const (
	AckErrEmpty      = "empty"
	AckErrNoUsername = "no-username"
)

// Envelope is one frame on the wire, in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	ID    *int64          `json:"id,omitempty"`
}

// Ack is the acknowledgment payload of a client-to-server event. It reports
// validation results only; it says nothing about persistence.
type Ack struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Username string `json:"username,omitempty"`
	Color    string `json:"color,omitempty"`
	Room     string `json:"room,omitempty"`
}

// EncodeEvent wraps a server event into its wire frame.
func EncodeEvent(e event.Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: e.Name(), Data: data})
}

// EncodeAck wraps an ack for the inbound frame identified by id.
func EncodeAck(id int64, ack Ack) ([]byte, error) {
	data, err := json.Marshal(ack)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: eventAck, Data: data, ID: &id})
}
