package chat

import (
	"encoding/json"
	"time"

	"chatline-platform/internal/message"
)

// Wire events. Every frame on the socket is an Envelope; Data carries the
// event-specific payload.
const (
	EventJoinSession      = "joinSession"
	EventSendMessage      = "sendMessage"
	EventUserOnline       = "userOnline"
	EventReceiveMessage   = "receiveMessage"
	EventUserStatusUpdate = "userStatusUpdate"
	EventError            = "error"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	SessionID string `json:"session_id"`
}

type SendPayload struct {
	SessionID  string `json:"session_id"`
	ReceiverID string `json:"receiver_id"`
	Body       string `json:"message"`
}

type UserOnlinePayload struct {
	UserID string `json:"user_id"`
}

type StatusUpdatePayload struct {
	UserID   string     `json:"user_id"`
	Online   bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encodeEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

func encodeMessage(m message.Message) ([]byte, error) {
	return encodeEvent(EventReceiveMessage, m)
}

func encodeError(msg string) []byte {
	frame, err := encodeEvent(EventError, ErrorPayload{Message: msg})
	if err != nil {
		return []byte(`{"event":"error"}`)
	}
	return frame
}
