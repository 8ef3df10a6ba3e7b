package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/runtime"
)

// IChatService is the transport-facing surface of the relay. Handlers talk
// to this interface only, so the wire layer stays decoupled from the engine.
type IChatService interface {
	Connect(session *domain.Session, sink contract.EventSink)
	Disconnect(session *domain.Session)
	SetUsername(session *domain.Session, raw string) (string, error)
	SetColor(session *domain.Session, raw string) string
	JoinRoom(session *domain.Session, room string) (string, error)
	PostMessage(session *domain.Session, text string) error
	Typing(session *domain.Session)
	StopTyping(session *domain.Session)
}

type ChatService struct {
	relay *runtime.Relay
}

func NewChatService(relay *runtime.Relay) *ChatService {
	return &ChatService{relay: relay}
}

func (s *ChatService) Connect(session *domain.Session, sink contract.EventSink) {
	s.relay.Connect(session, sink)
}

func (s *ChatService) Disconnect(session *domain.Session) {
	s.relay.Disconnect(session)
}

func (s *ChatService) SetUsername(session *domain.Session, raw string) (string, error) {
	return s.relay.SetUsername(session, raw)
}

func (s *ChatService) SetColor(session *domain.Session, raw string) string {
	return s.relay.SetColor(session, raw)
}

func (s *ChatService) JoinRoom(session *domain.Session, room string) (string, error) {
	return s.relay.JoinRoom(session, room)
}

func (s *ChatService) PostMessage(session *domain.Session, text string) error {
	return s.relay.PostMessage(session, text)
}

func (s *ChatService) Typing(session *domain.Session) {
	s.relay.Typing(session)
}

func (s *ChatService) StopTyping(session *domain.Session) {
	s.relay.StopTyping(session)
}
