package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain/event"
)

func TestEncodeEvent(t *testing.T) {
	req := require.New(t)

	frame, err := EncodeEvent(event.ChatMessage{
		ID:    "1-abc",
		User:  "Alice",
		Text:  "hello",
		Ts:    1700000000000,
		Color: "#2196f3",
		Room:  "General",
	})
	req.NoError(err)

	var env Envelope
	req.NoError(json.Unmarshal(frame, &env))
	req.Equal("chat message", env.Event)
	req.Nil(env.ID)

	var decoded event.ChatMessage
	req.NoError(json.Unmarshal(env.Data, &decoded))
	req.Equal("Alice", decoded.User)
	req.Equal("hello", decoded.Text)
	req.Equal(int64(1700000000000), decoded.Ts)
}

func TestEncodeAck(t *testing.T) {
	req := require.New(t)

	frame, err := EncodeAck(7, Ack{OK: true, Room: "General"})
	req.NoError(err)

	var env Envelope
	req.NoError(json.Unmarshal(frame, &env))
	req.Equal("ack", env.Event)
	req.NotNil(env.ID)
	req.Equal(int64(7), *env.ID)

	var ack Ack
	req.NoError(json.Unmarshal(env.Data, &ack))
	req.True(ack.OK)
	req.Equal("General", ack.Room)
	req.Empty(ack.Error)
}

func TestEnvelope_InboundWithAndWithoutID(t *testing.T) {
	req := require.New(t)

	// A frame with an id asks for an ack
	var withID Envelope
	req.NoError(json.Unmarshal([]byte(`{"event":"join room","data":"Lobby","id":3}`), &withID))
	req.Equal(EventJoinRoom, withID.Event)
	req.NotNil(withID.ID)
	req.Equal(int64(3), *withID.ID)

	// A frame without one is fire-and-forget
	var withoutID Envelope
	req.NoError(json.Unmarshal([]byte(`{"event":"typing"}`), &withoutID))
	req.Equal(EventTyping, withoutID.Event)
	req.Nil(withoutID.ID)
}
