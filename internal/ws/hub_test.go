package ws

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

// fakeConn satisfies Conn; tests read delivered envelopes straight from
// the session queue instead of running WritePump.
type fakeConn struct{}

func (fakeConn) WriteJSON(v any) error { return nil }
func (fakeConn) Close() error          { return nil }

func newTestSession(id, username string) *Session {
	return NewSession(id, username, fakeConn{})
}

// drain empties the session's outbound queue.
func drain(s *Session) []Envelope {
	var out []Envelope
	for {
		select {
		case env := <-s.send:
			out = append(out, env)
		default:
			return out
		}
	}
}

func lastEvent(t *testing.T, s *Session, event string) json.RawMessage {
	t.Helper()
	var data json.RawMessage
	found := false
	for _, env := range drain(s) {
		if env.Event == event {
			data = env.Data
			found = true
		}
	}
	if !found {
		t.Fatalf("session %s: no %q event delivered", s.ID, event)
	}
	return data
}

func TestJoinBroadcastsRoster(t *testing.T) {
	h := NewHub(zerolog.Nop())
	alice := newTestSession("s1", "alice")
	bob := newTestSession("s2", "bob")
	h.Register(alice)
	h.Register(bob)

	h.Join(alice, "job_J1_freelancer_alice")
	h.Join(bob, "job_J1_freelancer_alice")

	var roster RosterEvent
	if err := json.Unmarshal(lastEvent(t, alice, EventUserJoined), &roster); err != nil {
		t.Fatal(err)
	}
	if roster.Count != 2 {
		t.Errorf("userCount = %d, want 2", roster.Count)
	}
	if len(roster.Users) != 2 || roster.Users[0] != "alice" || roster.Users[1] != "bob" {
		t.Errorf("roster = %v, want [alice bob]", roster.Users)
	}
}

func TestLeaveShrinksAndCleansUp(t *testing.T) {
	h := NewHub(zerolog.Nop())
	alice := newTestSession("s1", "alice")
	bob := newTestSession("s2", "bob")
	h.Register(alice)
	h.Register(bob)
	h.Join(alice, "r1")
	h.Join(bob, "r1")
	drain(alice)
	drain(bob)

	h.Leave(alice, "r1")
	if got := h.RoomCount("r1"); got != 1 {
		t.Fatalf("RoomCount = %d, want 1", got)
	}

	var roster RosterEvent
	if err := json.Unmarshal(lastEvent(t, bob, EventUserLeft), &roster); err != nil {
		t.Fatal(err)
	}
	if roster.Count != 1 || roster.Users[0] != "bob" {
		t.Errorf("roster after leave = %+v", roster)
	}

	// Last member out drops the room entry entirely.
	h.Leave(bob, "r1")
	if got := h.RoomCount("r1"); got != 0 {
		t.Fatalf("RoomCount after empty = %d, want 0", got)
	}
}

func TestLeaveUnknownRoomIsNoop(t *testing.T) {
	h := NewHub(zerolog.Nop())
	alice := newTestSession("s1", "alice")
	h.Register(alice)

	h.Leave(alice, "never-joined") // must not panic or emit
	if events := drain(alice); len(events) != 0 {
		t.Errorf("unexpected events: %v", events)
	}
}

func TestDisconnectLeavesAllRooms(t *testing.T) {
	h := NewHub(zerolog.Nop())
	alice := newTestSession("s1", "alice")
	bob := newTestSession("s2", "bob")
	h.Register(alice)
	h.Register(bob)
	h.Join(alice, "r1")
	h.Join(alice, "r2")
	h.Join(bob, "r1")
	drain(bob)

	h.Disconnect(alice)

	if got := h.RoomCount("r1"); got != 1 {
		t.Errorf("r1 count = %d, want 1", got)
	}
	if got := h.RoomCount("r2"); got != 0 {
		t.Errorf("r2 count = %d, want 0", got)
	}
	lastEvent(t, bob, EventUserLeft)

	// Events queued after disconnect are dropped, not a panic.
	h.BroadcastAll(EventNewNotification, map[string]string{"title": "x"})
}

func TestTypingNotEchoedToSender(t *testing.T) {
	h := NewHub(zerolog.Nop())
	alice := newTestSession("s1", "alice")
	bob := newTestSession("s2", "bob")
	h.Register(alice)
	h.Register(bob)
	h.Join(alice, "r1")
	h.Join(bob, "r1")
	drain(alice)
	drain(bob)

	h.BroadcastRoomExcept("r1", alice, EventUserTyping, TypingEvent{Sender: "alice"})

	for _, env := range drain(alice) {
		if env.Event == EventUserTyping {
			t.Fatal("typing event echoed to sender")
		}
	}
	lastEvent(t, bob, EventUserTyping)
}

func TestBroadcastRoomReachesAllMembers(t *testing.T) {
	h := NewHub(zerolog.Nop())
	sessions := []*Session{
		newTestSession("s1", "alice"),
		newTestSession("s2", "alice"), // second tab, same user
		newTestSession("s3", "bob"),
	}
	for _, s := range sessions {
		h.Register(s)
		h.Join(s, "r1")
		drain(s)
	}

	h.BroadcastRoom("r1", EventNewMessage, map[string]string{"text": "hi"})

	for _, s := range sessions {
		lastEvent(t, s, EventNewMessage)
	}
}

func TestBroadcastAllReachesUnjoinedSessions(t *testing.T) {
	h := NewHub(zerolog.Nop())
	idle := newTestSession("s1", "carol")
	h.Register(idle)

	h.BroadcastAll(EventNewNotification, map[string]string{"title": "New Message"})
	lastEvent(t, idle, EventNewNotification)
}
