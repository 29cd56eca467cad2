// Package server relays chat messages: bounded per-room history plus fan-out
// to room subscribers.
package server

import "log"

// handleSendMessage appends the message to the room history and broadcasts
// it to every subscriber, sender included. A send against a missing room is
// dropped with no signal to anyone. The assistant hook runs after the
// primary broadcast so it can never delay delivery.
func (h *Hub) handleSendMessage(p SendMessagePayload) {
	room, ok := h.rooms.Get(p.RoomID)
	if !ok {
		log.Printf("Dropping message for missing room %s", p.RoomID)
		return
	}

	msg := Message{Sender: p.Sender, Text: p.Text}
	room.appendMessage(msg, h.historyLimit)
	h.broadcastToRoom(room, EventReceiveMessage, msg, nil)

	h.maybeAskAssistant(room, p.Text)
}
