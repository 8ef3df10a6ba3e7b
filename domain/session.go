// Package domain contains core concepts of the chat relay.
// This file defines the Session owned by each live connection.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"strings"

	"chat-relay/errors"
)

const (
	// DefaultRoom receives messages from sessions that never joined a room.
	DefaultRoom = "General"

	// MaxUsernameLen bounds usernames; longer input is truncated, not rejected.
	MaxUsernameLen = 24

	// FallbackName labels sessions that act before claiming an identity.
	FallbackName = "Guest"
)

// Session is the per-connection mutable state. It is owned exclusively by the
// connection handler and must never be shared across connections.
type Session struct {
	ID       string
	Username string
	Color    string
	Room     string
}

// NewSession creates a session with no color and no room. A verified username
// from the connection handshake may be passed in; an empty string leaves the
// session anonymous until SetUsername succeeds.
func NewSession(id, username string) *Session {
	return &Session{ID: id, Username: username}
}

// SetUsername trims and stores the proposed name, truncated to MaxUsernameLen
// runes. Empty input fails with ErrEmptyUsername and leaves the session
// untouched. Repeated calls overwrite the previous name (last call wins);
// uniqueness across sessions is deliberately not enforced.
func (s *Session) SetUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", errors.ErrEmptyUsername
	}
	if runes := []rune(name); len(runes) > MaxUsernameLen {
		name = string(runes[:MaxUsernameLen])
	}
	s.Username = name
	return name, nil
}

// SetColor stores the trimmed value, or a random palette entry when blank.
// Any non-blank value is accepted verbatim; rendering is the consumer's job.
func (s *Session) SetColor(raw string) string {
	s.Color = PickColor(raw)
	return s.Color
}

// DisplayName returns the username, or FallbackName for anonymous sessions.
func (s *Session) DisplayName() string {
	if s.Username == "" {
		return FallbackName
	}
	return s.Username
}

// CurrentRoom returns the joined room, or DefaultRoom when none was joined.
func (s *Session) CurrentRoom() string {
	if s.Room == "" {
		return DefaultRoom
	}
	return s.Room
}
