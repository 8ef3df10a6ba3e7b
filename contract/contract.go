//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain/event"
)

// EventSink is the delivery side of one live connection. Consume must not
// block the caller; a sink that cannot keep up drops the event and reports
// the loss itself.
type EventSink interface {
	Consume(e event.Event) error
}

// IRegistry tracks live sessions and room membership. A session belongs to
// at most one room at a time; enforcing that transition is the relay's job,
// the registry only stores the result.
type IRegistry interface {
	AddSession(sessionID string, sink EventSink)
	RemoveSession(sessionID string)
	JoinRoom(sessionID, room string)
	LeaveRoom(sessionID, room string)
	SinkOf(sessionID string) (EventSink, bool)
	AllSinks(exclude ...string) []EventSink
	SinksForRoom(room string, exclude ...string) []EventSink
	SessionCount() int
	RoomCount(room string) int
	RoomTotal() int
}
