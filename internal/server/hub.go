// Package server coordinates client registration, room-scoped broadcast, and
// connection cleanup via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/mindmesh/mindmesh-server/internal/llm"
)

// departure identifies a pending grace-period expiry. The task handle lets
// the loop ignore an expiry event that raced with a rejoin followed by a
// fresh disconnect.
type departure struct {
	roomID   string
	username string
	task     *ScheduledTask
}

// aiReply carries a completed (or failed) assistant completion back into the
// event loop. An empty text means the completion failed or returned nothing.
type aiReply struct {
	roomID string
	text   string
}

// Hub owns every room and serializes all room-state mutation through its Run
// loop: joins, sends, disconnect finalization, timer expiries, and assistant
// replies all land here one at a time, so the room maps need no locking.
// The clients set is the one structure shared with the pump goroutines and
// keeps mutex protection for frame delivery.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	inbound    chan InboundEvent
	departures chan departure
	aiReplies  chan aiReply

	rooms     *RoomRegistry
	completer llm.Provider

	historyLimit int
	gracePeriod  time.Duration

	mutex  sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a Hub wired to the given completion provider. A nil
// provider disables the assistant hook; triggering messages then produce the
// fallback notice.
func NewHub(completer llm.Provider) *Hub {
	cfg := currentConfig()
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:      make(map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		inbound:      make(chan InboundEvent),
		departures:   make(chan departure),
		aiReplies:    make(chan aiReply),
		rooms:        NewRoomRegistry(),
		completer:    completer,
		historyLimit: cfg.HistoryLimit,
		gracePeriod:  cfg.GracePeriod,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// GetRegisterChan returns the channel used for registering new clients.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// Run starts the hub's event loop. It should be called in its own goroutine
// as it runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("Received nil client registration; skipping")
				continue
			}
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleDisconnect(client)

		case ev := <-h.inbound:
			h.handleEvent(ev)

		case d := <-h.departures:
			h.finalizeDeparture(d)

		case r := <-h.aiReplies:
			h.handleAIReply(r)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()
	log.Printf("Client %s registered from %s. Total clients: %d", client.id, client.addr, clientCount)

	// Stub clients without a real connection (tests) get no pumps.
	if client.conn == nil {
		return
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// handleEvent routes a decoded inbound envelope to the matching handler.
func (h *Hub) handleEvent(ev InboundEvent) {
	switch ev.Event.Name {
	case EventCreateRoom:
		var p CreateRoomPayload
		if !decodePayload(ev, &p) {
			return
		}
		h.handleCreateRoom(ev.Client, p)

	case EventJoinRoom:
		var p JoinRoomPayload
		if !decodePayload(ev, &p) {
			return
		}
		h.handleJoinRoom(ev.Client, p)

	case EventSendMessage:
		var p SendMessagePayload
		if !decodePayload(ev, &p) {
			return
		}
		h.handleSendMessage(p)

	default:
		log.Printf("Unhandled event %q from %s", ev.Event.Name, ev.Client.addr)
	}
}

func decodePayload(ev InboundEvent, dst any) bool {
	if err := json.Unmarshal(ev.Event.Data, dst); err != nil {
		log.Printf("Invalid %s payload from %s: %v", ev.Event.Name, ev.Client.addr, err)
		return false
	}
	return true
}

func (h *Hub) safeSend(client *Client, frame []byte) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- frame:
		return true
	default:
		return false
	}
}

// sendEvent delivers an event to a single connection.
func (h *Hub) sendEvent(client *Client, name string, data any) {
	frame, err := encodeEvent(name, data)
	if err != nil {
		log.Printf("Error encoding %s event: %v", name, err)
		return
	}
	h.safeSend(client, frame)
}

// broadcastToRoom delivers an event to every subscriber of the room except
// exclude. Subscribers whose send buffer is full are dropped through the
// same path as a closed connection so presence stays consistent.
func (h *Hub) broadcastToRoom(room *Room, name string, data any, exclude *Client) {
	frame, err := encodeEvent(name, data)
	if err != nil {
		log.Printf("Error encoding %s event: %v", name, err)
		return
	}

	var failed []*Client
	for client := range room.subscribers {
		if client == exclude {
			continue
		}
		if !h.safeSend(client, frame) {
			failed = append(failed, client)
		}
	}

	for _, client := range failed {
		log.Printf("Client %s from %s dropped due to full send buffer", client.id, client.addr)
		h.handleDisconnect(client)
	}
}

// shutdownClients closes all active client connections.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				log.Printf("Error closing client connection from %s: %v", client.addr, err)
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for the pump and
// completion goroutines to finish, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
