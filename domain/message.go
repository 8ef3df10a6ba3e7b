// Package domain contains core concepts of the chat relay.
// This file defines Message events and related rules.
// Messages are immutable once created.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxMessageLen bounds message text; longer input is truncated, not rejected.
const MaxMessageLen = 2000

// DefaultColor is applied to messages from sessions that never picked a color.
const DefaultColor = "#3f51b5"

// Message represents an immutable chat event inside one room.
type Message struct {
	ID     string
	Author string
	Text   string
	Color  string
	Room   string
	At     time.Time
}

// NewMessage builds a message for the given room, truncating the text to
// MaxMessageLen runes and falling back to DefaultColor when color is blank.
func NewMessage(author, text, color, room string, at time.Time) Message {
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > MaxMessageLen {
		text = string(runes[:MaxMessageLen])
	}
	if color == "" {
		color = DefaultColor
	}
	return Message{
		ID:     NewMessageID(at),
		Author: author,
		Text:   text,
		Color:  color,
		Room:   room,
		At:     at,
	}
}

// NewMessageID combines wall-clock millis with a random tie-breaker.
// IDs are unique within the process lifetime but not strictly monotonic.
func NewMessageID(at time.Time) string {
	return fmt.Sprintf("%d-%s", at.UnixMilli(), uuid.NewString()[:8])
}
