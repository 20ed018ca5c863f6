package ws

import "encoding/json"

// Client-to-server events.
const (
	EventJoinRoom    = "joinRoom"
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
)

// Server-to-client events.
const (
	EventNewMessage        = "newMessage"
	EventUserJoined        = "userJoined"
	EventUserLeft          = "userLeft"
	EventUserTyping        = "userTyping"
	EventUserStoppedTyping = "userStoppedTyping"
	EventNewNotification   = "newNotification"
	EventMessageError      = "messageError"
)

// Envelope is the wire frame for every websocket event, in both
// directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope wraps a payload in an Envelope. Payloads are our own
// types, so a marshal failure is a programming error; it yields an
// envelope with empty data rather than an error return at every
// broadcast site.
func NewEnvelope(event string, data any) Envelope {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{Event: event}
	}
	return Envelope{Event: event, Data: raw}
}

// RoomPayload carries a bare room id (joinRoom).
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// TypingPayload identifies who is typing where (typing / stopTyping).
type TypingPayload struct {
	RoomID string `json:"roomId"`
	Sender string `json:"sender"`
}

// TypingEvent is broadcast to room peers (userTyping / userStoppedTyping).
type TypingEvent struct {
	Sender string `json:"sender"`
}

// RosterEvent is broadcast on membership changes (userJoined / userLeft).
type RosterEvent struct {
	Users []string `json:"users"`
	Count int      `json:"userCount"`
}
