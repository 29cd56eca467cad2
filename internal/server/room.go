// Package server holds the room state and the registry that owns the
// room-id mapping. Both are touched only from the hub's event loop.
package server

// Room is a named chat channel with its own membership, subscribers, bounded
// history, and pending grace-period departures.
//
// users and departures are disjoint by construction: a username moves from
// users to departures on disconnect and back on rejoin, never appearing in
// both.
type Room struct {
	id          string
	users       map[string]*Client        // username -> connection currently representing it
	subscribers map[*Client]struct{}      // connections receiving broadcasts
	history     []Message                 // oldest first
	departures  map[string]*ScheduledTask // username -> pending grace timer
}

func newRoom(id string) *Room {
	return &Room{
		id:          id,
		users:       make(map[string]*Client),
		subscribers: make(map[*Client]struct{}),
		departures:  make(map[string]*ScheduledTask),
	}
}

// appendMessage appends msg to the history, evicting the oldest entry when
// the buffer exceeds limit.
func (r *Room) appendMessage(msg Message, limit int) {
	r.history = append(r.history, msg)
	if len(r.history) > limit {
		r.history = r.history[1:]
	}
}

// historySnapshot returns a copy of the current history, oldest first.
func (r *Room) historySnapshot() []Message {
	out := make([]Message, len(r.history))
	copy(out, r.history)
	return out
}

// RoomRegistry owns the mapping of room id to room state. It is not
// goroutine-safe on its own; the hub's event loop is its single writer.
type RoomRegistry struct {
	rooms map[string]*Room
}

// NewRoomRegistry creates an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*Room)}
}

// Create allocates an empty room under id. It returns the existing room and
// false when the id is already taken.
func (reg *RoomRegistry) Create(id string) (*Room, bool) {
	if room, ok := reg.rooms[id]; ok {
		return room, false
	}
	room := newRoom(id)
	reg.rooms[id] = room
	return room, true
}

// Get returns the room for id, or false when it does not exist.
func (reg *RoomRegistry) Get(id string) (*Room, bool) {
	room, ok := reg.rooms[id]
	return room, ok
}

// Delete removes the room for id.
func (reg *RoomRegistry) Delete(id string) {
	delete(reg.rooms, id)
}

// Len returns the number of live rooms.
func (reg *RoomRegistry) Len() int {
	return len(reg.rooms)
}
