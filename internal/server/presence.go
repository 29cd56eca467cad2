// Package server implements the room lifecycle and presence state machine:
// create, join, rejoin-within-grace, disconnect, and departure finalization.
package server

import "log"

// handleCreateRoom allocates a room. A duplicate id is a silent no-op: the
// requester receives no confirmation at all, matching the long-standing
// client contract.
func (h *Hub) handleCreateRoom(client *Client, p CreateRoomPayload) {
	if _, created := h.rooms.Create(p.RoomID); !created {
		log.Printf("Room %s already exists; ignoring create from %s", p.RoomID, client.addr)
		return
	}

	log.Printf("Room %s created", p.RoomID)
	h.sendEvent(client, EventRoomCreated, nil)
}

// handleJoinRoom moves (room, username) to Active. A join that lands while a
// grace-period timer is pending is a rejoin: the timer is cancelled and no
// joined notice goes out, so brief drops stay invisible to the rest of the
// room. History is always delivered to the joining connection only.
func (h *Hub) handleJoinRoom(client *Client, p JoinRoomPayload) {
	room, ok := h.rooms.Get(p.RoomID)
	if !ok {
		h.sendEvent(client, EventRoomNotFound, nil)
		return
	}

	// A connection that already represents a user elsewhere leaves that room
	// first, so the old room's membership and subscriber set do not keep a
	// ghost entry around.
	if client.roomID != "" && (client.roomID != p.RoomID || client.username != p.Username) {
		h.leaveRoom(client)
	}

	task, rejoining := room.departures[p.Username]
	if rejoining {
		task.Cancel()
		delete(room.departures, p.Username)
	}

	room.users[p.Username] = client
	room.subscribers[client] = struct{}{}
	client.roomID = p.RoomID
	client.username = p.Username

	h.sendEvent(client, EventRoomHistory, room.historySnapshot())

	if !rejoining {
		h.broadcastToRoom(room, EventReceiveMessage, Message{
			Sender: SystemSender,
			Text:   p.Username + " joined the room",
		}, client)
	}

	log.Printf("User %s joined room %s (rejoin=%t)", p.Username, p.RoomID, rejoining)
}

// handleDisconnect unregisters the connection and runs the room-leave
// transition for its session.
func (h *Hub) handleDisconnect(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()
	close(client.send)
	log.Printf("Client %s unregistered from %s. Total clients: %d", client.id, client.addr, clientCount)

	h.leaveRoom(client)
}

// leaveRoom drops the connection from its session's room and, when it is the
// connection currently representing the user, transitions that user
// Active -> Departing: membership drops immediately, the departed notice
// waits for the grace period. Called on disconnect and when a connection
// joins a different room.
func (h *Hub) leaveRoom(client *Client) {
	roomID, username := client.roomID, client.username
	if roomID == "" || username == "" {
		return
	}
	room, ok := h.rooms.Get(roomID)
	if !ok {
		return
	}

	delete(room.subscribers, client)

	// Only the connection currently representing the user starts a grace
	// timer; a superseded connection going away must not mark the user as
	// departing. This also keeps at most one live timer per username: a
	// rejoin cancels the old timer before this connection can disconnect
	// again.
	if current, active := room.users[username]; !active || current != client {
		return
	}
	delete(room.users, username)

	roomIDCopy, usernameCopy := roomID, username
	var task *ScheduledTask
	task = schedule(h.gracePeriod, func() {
		select {
		case h.departures <- departure{roomID: roomIDCopy, username: usernameCopy, task: task}:
		case <-h.ctx.Done():
		}
	})
	room.departures[username] = task
	log.Printf("User %s departing room %s; grace period %s", username, roomID, h.gracePeriod)
}

// finalizeDeparture runs when a grace timer expires without a rejoin: the
// departed notice goes out exactly once, and an emptied room is destroyed.
func (h *Hub) finalizeDeparture(d departure) {
	room, ok := h.rooms.Get(d.roomID)
	if !ok {
		return
	}

	// A rejoin may have cancelled this timer after it fired but before the
	// loop got here, and a later disconnect may even have scheduled a new
	// one. Only the exact task we scheduled finalizes.
	if current, pending := room.departures[d.username]; !pending || current != d.task {
		return
	}
	delete(room.departures, d.username)

	h.broadcastToRoom(room, EventReceiveMessage, Message{
		Sender: SystemSender,
		Text:   d.username + " left the room",
	}, nil)
	log.Printf("User %s left room %s", d.username, d.roomID)

	// The room survives while any grace period is still pending: a member
	// whose timer has not expired yet may rejoin and must find the room and
	// its history intact.
	if len(room.users) == 0 && len(room.departures) == 0 {
		h.rooms.Delete(d.roomID)
		log.Printf("Room %s deleted", d.roomID)
	}
}
