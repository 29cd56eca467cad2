package server

import (
	"fmt"
	"testing"
)

// TestRegistryCreateIsIdempotent verifies that only the first create for an
// id allocates a room and that later creates leave the existing room intact.
func TestRegistryCreateIsIdempotent(t *testing.T) {
	reg := NewRoomRegistry()

	first, created := reg.Create("R1")
	if !created {
		t.Fatal("first Create returned created=false")
	}
	first.appendMessage(Message{Sender: "alice", Text: "hello"}, 20)

	second, created := reg.Create("R1")
	if created {
		t.Error("second Create returned created=true")
	}
	if second != first {
		t.Error("second Create returned a different room")
	}
	if len(first.history) != 1 {
		t.Errorf("history length after duplicate create = %d, want 1", len(first.history))
	}
	if reg.Len() != 1 {
		t.Errorf("registry length = %d, want 1", reg.Len())
	}
}

func TestRegistryGetAndDelete(t *testing.T) {
	reg := NewRoomRegistry()

	if _, ok := reg.Get("missing"); ok {
		t.Error("Get on empty registry returned ok=true")
	}

	reg.Create("R1")
	if _, ok := reg.Get("R1"); !ok {
		t.Fatal("Get after Create returned ok=false")
	}

	reg.Delete("R1")
	if _, ok := reg.Get("R1"); ok {
		t.Error("Get after Delete returned ok=true")
	}
}

// TestHistoryEvictsOldestFirst verifies the bounded FIFO: appending 21
// messages with a limit of 20 keeps exactly the most recent 20.
func TestHistoryEvictsOldestFirst(t *testing.T) {
	room := newRoom("R1")

	for i := 1; i <= 21; i++ {
		room.appendMessage(Message{Sender: "alice", Text: fmt.Sprintf("msg-%d", i)}, 20)
	}

	if len(room.history) != 20 {
		t.Fatalf("history length = %d, want 20", len(room.history))
	}
	if room.history[0].Text != "msg-2" {
		t.Errorf("oldest entry = %q, want %q", room.history[0].Text, "msg-2")
	}
	if room.history[19].Text != "msg-21" {
		t.Errorf("newest entry = %q, want %q", room.history[19].Text, "msg-21")
	}
}

func TestHistorySnapshotIsACopy(t *testing.T) {
	room := newRoom("R1")
	room.appendMessage(Message{Sender: "alice", Text: "hello"}, 20)

	snapshot := room.historySnapshot()
	snapshot[0].Text = "mutated"

	if room.history[0].Text != "hello" {
		t.Error("mutating the snapshot changed the room history")
	}
}
