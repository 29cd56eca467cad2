// Package server implements the assistant hook: trigger detection, prompt
// construction from room history, and asynchronous completion delivery.
package server

import (
	"fmt"
	"log"
	"strings"

	"github.com/mindmesh/mindmesh-server/internal/llm"
)

// aiTrigger marks a message as an assistant request, matched
// case-insensitively anywhere in the text.
const aiTrigger = "@ai"

// aiFallbackText replaces the reply when the completion fails or comes back
// empty. Raw provider errors never reach clients.
const aiFallbackText = "AI is temporarily unavailable."

const aiSystemPrompt = "You are an AI assistant inside an anonymous group chat. " +
	"Be concise, friendly, and helpful."

func containsTrigger(text string) bool {
	return strings.Contains(strings.ToLower(text), aiTrigger)
}

// stripTrigger removes the first occurrence of the trigger token, case
// insensitively, and trims the surrounding whitespace.
func stripTrigger(text string) string {
	if i := strings.Index(strings.ToLower(text), aiTrigger); i >= 0 {
		text = text[:i] + text[i+len(aiTrigger):]
	}
	return strings.TrimSpace(text)
}

// buildPrompt renders the room history as "sender: text" lines followed by
// the user's question with the trigger stripped.
func buildPrompt(history []Message, question string) string {
	var b strings.Builder
	b.WriteString("Conversation:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Sender, m.Text)
	}
	b.WriteString("\nQuestion:\n")
	b.WriteString(stripTrigger(question))
	return b.String()
}

// maybeAskAssistant starts a completion for a triggering message. The prompt
// captures the history as it stands after the triggering message was
// appended; events processed while the completion is in flight are not
// retroactively inserted. The reply re-enters the event loop through
// aiReplies, so only the synthetic message is delayed.
func (h *Hub) maybeAskAssistant(room *Room, text string) {
	if !containsTrigger(text) {
		return
	}

	roomID := room.id
	if h.completer == nil {
		log.Printf("No completion provider configured; sending fallback to room %s", roomID)
		h.handleAIReply(aiReply{roomID: roomID})
		return
	}

	prompt := buildPrompt(room.historySnapshot(), text)
	maxTokens := currentConfig().AI.MaxTokens

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		resp, err := h.completer.Complete(h.ctx, llm.CompletionRequest{
			Prompt:    prompt,
			System:    aiSystemPrompt,
			MaxTokens: maxTokens,
		})

		var reply string
		if err != nil {
			log.Printf("AI completion failed for room %s: %v", roomID, err)
		} else {
			reply = strings.TrimSpace(resp.Content)
		}

		select {
		case h.aiReplies <- aiReply{roomID: roomID, text: reply}:
		case <-h.ctx.Done():
		}
	}()
}

// handleAIReply appends and broadcasts the assistant's message, or the
// fallback notice when the completion produced nothing. A reply whose room
// has since been deleted is dropped; if the id was reused, the current
// subscribers receive it.
func (h *Hub) handleAIReply(r aiReply) {
	room, ok := h.rooms.Get(r.roomID)
	if !ok {
		log.Printf("Dropping AI reply for missing room %s", r.roomID)
		return
	}

	text := r.text
	if text == "" {
		text = aiFallbackText
	}

	msg := Message{Sender: AISender, Text: text}
	room.appendMessage(msg, h.historyLimit)
	h.broadcastToRoom(room, EventReceiveMessage, msg, nil)
}
