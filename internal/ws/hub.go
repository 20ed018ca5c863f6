// Package ws tracks live websocket sessions and their room membership,
// and fans events out to them.
package ws

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Hub is the session registry: which connections exist and which rooms
// each has joined. It is constructed in main and injected wherever
// broadcasting is needed; it holds no global state, so tests build a
// fresh one each.
//
// All exported methods are safe for concurrent use. Broadcasts snapshot
// the member set under the lock and write outside it, so membership may
// mutate mid-broadcast without skipping or doubling a recipient.
type Hub struct {
	mu       sync.Mutex
	rooms    map[string]map[*Session]struct{}
	sessions map[*Session]map[string]struct{}
	logger   zerolog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Session]struct{}),
		sessions: make(map[*Session]map[string]struct{}),
		logger:   logger,
	}
}

// Register adds a connected session to the hub. Until it joins a room
// it only receives hub-wide events (notifications).
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.sessions[s] = make(map[string]struct{})
	}
	h.mu.Unlock()
}

// Join adds the session to a room and announces the updated roster to
// every member, the joiner included.
func (h *Hub) Join(s *Session, roomID string) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.sessions[s] = make(map[string]struct{})
	}
	h.sessions[s][roomID] = struct{}{}

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Session]struct{})
		h.rooms[roomID] = members
	}
	members[s] = struct{}{}

	targets, roster := h.snapshotLocked(roomID)
	h.mu.Unlock()

	h.logger.Debug().Str("session", s.ID).Str("room", roomID).Msg("session joined room")
	deliver(targets, NewEnvelope(EventUserJoined, roster))
}

// Leave removes the session from a room. Unknown rooms and rooms the
// session never joined are a no-op. The last member leaving drops the
// room entry; otherwise the remaining members get the updated roster.
func (h *Hub) Leave(s *Session, roomID string) {
	h.mu.Lock()
	targets, roster, left := h.leaveLocked(s, roomID)
	h.mu.Unlock()

	if left {
		deliver(targets, NewEnvelope(EventUserLeft, roster))
	}
}

// Disconnect removes the session from every room it joined and from the
// hub, then closes its outbound queue. Remaining members of each room
// are told.
func (h *Hub) Disconnect(s *Session) {
	h.mu.Lock()
	var announcements []struct {
		targets []*Session
		roster  RosterEvent
	}
	for roomID := range h.sessions[s] {
		if targets, roster, left := h.leaveLocked(s, roomID); left {
			announcements = append(announcements, struct {
				targets []*Session
				roster  RosterEvent
			}{targets, roster})
		}
	}
	delete(h.sessions, s)
	h.mu.Unlock()

	for _, a := range announcements {
		deliver(a.targets, NewEnvelope(EventUserLeft, a.roster))
	}
	s.closeSend()
	h.logger.Debug().Str("session", s.ID).Msg("session disconnected")
}

// leaveLocked removes s from roomID and returns the remaining members
// plus their roster. left is false when s was not a member.
func (h *Hub) leaveLocked(s *Session, roomID string) (targets []*Session, roster RosterEvent, left bool) {
	members, ok := h.rooms[roomID]
	if !ok {
		return nil, RosterEvent{}, false
	}
	if _, ok := members[s]; !ok {
		return nil, RosterEvent{}, false
	}
	delete(members, s)
	delete(h.sessions[s], roomID)

	if len(members) == 0 {
		delete(h.rooms, roomID)
		return nil, RosterEvent{}, true
	}
	targets, roster = h.snapshotLocked(roomID)
	return targets, roster, true
}

// snapshotLocked copies a room's member set and builds its roster.
// Callers must hold h.mu.
func (h *Hub) snapshotLocked(roomID string) ([]*Session, RosterEvent) {
	members := h.rooms[roomID]
	targets := make([]*Session, 0, len(members))
	users := make([]string, 0, len(members))
	for m := range members {
		targets = append(targets, m)
		users = append(users, m.Username)
	}
	sort.Strings(users)
	return targets, RosterEvent{Users: users, Count: len(members)}
}

// BroadcastRoom sends an event to every member of a room.
func (h *Hub) BroadcastRoom(roomID, event string, data any) {
	h.mu.Lock()
	targets, _ := h.snapshotLocked(roomID)
	h.mu.Unlock()

	deliver(targets, NewEnvelope(event, data))
}

// BroadcastRoomExcept sends an event to every room member but one,
// used for typing indicators which are never echoed to their sender.
func (h *Hub) BroadcastRoomExcept(roomID string, except *Session, event string, data any) {
	h.mu.Lock()
	targets, _ := h.snapshotLocked(roomID)
	h.mu.Unlock()

	env := NewEnvelope(event, data)
	for _, t := range targets {
		if t == except {
			continue
		}
		t.queue(env)
	}
}

// BroadcastAll sends an event to every connected session, joined to a
// room or not. Used for live notification pushes; delivery is best
// effort.
func (h *Hub) BroadcastAll(event string, data any) {
	h.mu.Lock()
	targets := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	deliver(targets, NewEnvelope(event, data))
}

// RoomCount returns the number of sessions currently joined to a room.
func (h *Hub) RoomCount(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

func deliver(targets []*Session, env Envelope) {
	for _, t := range targets {
		t.queue(env)
	}
}
