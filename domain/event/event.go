// Package event defines the events pushed from the relay to connected
// clients. Each event knows its wire name; payload shapes follow the
// client-facing protocol and must not change without a protocol bump.
package event

import (
	"chat-relay/domain"
)

// Event is anything the relay can push to a client connection.
type Event interface {
	Name() string
}

// ChatMessage carries one user message to every member of its room.
type ChatMessage struct {
	ID    string `json:"id"`
	User  string `json:"user"`
	Text  string `json:"text"`
	Ts    int64  `json:"ts"`
	Color string `json:"color"`
	Room  string `json:"room"`
}

func (ChatMessage) Name() string { return "chat message" }

// FromMessage converts a domain message into its wire form.
// Timestamps travel as Unix milliseconds.
func FromMessage(m domain.Message) ChatMessage {
	return ChatMessage{
		ID:    m.ID,
		User:  m.Author,
		Text:  m.Text,
		Ts:    m.At.UnixMilli(),
		Color: m.Color,
		Room:  m.Room,
	}
}

// System is a synthetic notification not authored by any user, such as
// join and leave announcements.
type System struct {
	Text string `json:"text"`
}

func (System) Name() string { return "system" }

// UserCount is the global number of live sessions, sent to everyone.
type UserCount int

func (UserCount) Name() string { return "UserCount" }

// RoomUserCount is the member count of a single room, sent to that room.
type RoomUserCount struct {
	Room  string `json:"room"`
	Count int    `json:"count"`
}

func (RoomUserCount) Name() string { return "RoomUserCount" }

// RoomJoined confirms a join to the joining session only.
type RoomJoined struct {
	Room string `json:"room"`
}

func (RoomJoined) Name() string { return "RoomJoined" }

// Typing tells the other members of a room that a user started typing.
type Typing struct {
	User string `json:"user"`
	Room string `json:"room"`
}

func (Typing) Name() string { return "typing" }

// StopTyping tells the other members of a room that a user stopped typing.
type StopTyping struct {
	User string `json:"user"`
	Room string `json:"room"`
}

func (StopTyping) Name() string { return "stop typing" }
