// Package server defines the wire envelope, event payloads, and shared
// helpers used across the connection and hub logic.
package server

import (
	"encoding/json"
	"strings"
)

// Inbound event names (client to server).
const (
	EventCreateRoom  = "create-room"
	EventJoinRoom    = "join-room"
	EventSendMessage = "send-message"
)

// Outbound event names (server to client).
const (
	EventRoomCreated    = "room-created"
	EventRoomNotFound   = "room-not-found"
	EventRoomHistory    = "room-history"
	EventReceiveMessage = "receive-message"
)

// Sender labels for synthetic messages.
const (
	SystemSender = "System"
	AISender     = "AI"
)

// Message is a single chat message. Messages are immutable once appended to
// a room's history.
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Event is the JSON envelope exchanged on the websocket. Data is left raw so
// each handler can decode its own payload shape.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// CreateRoomPayload is the payload for create-room.
type CreateRoomPayload struct {
	RoomID string `json:"roomId"`
}

// JoinRoomPayload is the payload for join-room.
type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// SendMessagePayload is the payload for send-message.
type SendMessagePayload struct {
	RoomID string `json:"roomId"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// InboundEvent pairs a decoded envelope with the connection it arrived on.
type InboundEvent struct {
	Client *Client
	Event  Event
}

// encodeEvent marshals an outbound envelope. A nil data value produces an
// envelope with the data field omitted.
func encodeEvent(name string, data any) ([]byte, error) {
	ev := Event{Name: name}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		ev.Data = raw
	}
	return json.Marshal(ev)
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
