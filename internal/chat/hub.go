package chat

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub maintains the set of live sessions and the room membership registry.
// All maps are guarded by mu; broadcast fan-out snapshots membership under
// the lock before any delivery, so a member joining mid-fan-out never
// receives a broadcast that started before it arrived.
type Hub struct {
	mu sync.RWMutex

	// All registered sessions, joined or not.
	sessions map[*Session]bool

	// Room name to current member set. A room exists only while non-empty.
	rooms map[string]map[*Session]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[*Session]bool),
		rooms:    make(map[string]map[*Session]bool),
	}
}

// Register adds a freshly accepted session to the hub.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s] = true
	total := len(h.sessions)
	h.mu.Unlock()
	log.Info().Str("remote", s.Remote()).Int("total_sessions", total).Msg("Client connected")
}

// Unregister removes a session entirely. Any remaining room membership is
// released silently; callers that want a departure notice use Leave first.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	h.removeFromRoom(s)
	delete(h.sessions, s)
	total := len(h.sessions)
	h.mu.Unlock()
	log.Info().Str("remote", s.Remote()).Int("total_sessions", total).Msg("Client disconnected")
}

// Join moves a session into room, creating the room entry if absent, and
// returns the room it previously belonged to ("" if none). The removal and
// insertion are one atomic step: at no observable instant does the session
// belong to two rooms.
func (h *Hub) Join(s *Session, room string) (old string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	old = h.removeFromRoom(s)
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Session]bool)
	}
	h.rooms[room][s] = true
	s.setRoom(room)
	return old
}

// Leave removes a session from its current room, pruning the room entry if
// its member set becomes empty. It reports the room left, if any.
func (h *Hub) Leave(s *Session) (room string, hadRoom bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room = h.removeFromRoom(s)
	return room, room != ""
}

// removeFromRoom detaches s from its room under h.mu and returns the old
// room name.
func (h *Hub) removeFromRoom(s *Session) string {
	room := s.Room()
	if room == "" {
		return ""
	}
	if members, ok := h.rooms[room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	s.setRoom("")
	return room
}

// Broadcast delivers one encoded frame to every member of room except
// exclude. Membership is snapshotted before the first delivery; members
// whose queues are gone or full are dropped from the registry and closed,
// never treated as a fatal broadcast error.
func (h *Hub) Broadcast(room string, frame []byte, exclude *Session) {
	h.mu.RLock()
	members := make([]*Session, 0, len(h.rooms[room]))
	for m := range h.rooms[room] {
		if m != exclude {
			members = append(members, m)
		}
	}
	h.mu.RUnlock()

	for _, m := range members {
		if !m.Enqueue(frame) {
			log.Warn().Str("remote", m.Remote()).Str("room", room).Msg("Dropping unresponsive session from broadcast")
			h.Unregister(m)
			m.Close()
		}
	}
}

// ListRooms returns the names of all currently non-empty rooms, sorted.
func (h *Hub) ListRooms() []string {
	h.mu.RLock()
	names := make([]string, 0, len(h.rooms))
	for name := range h.rooms {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)
	return names
}

// RoomCounts returns the member count per non-empty room.
func (h *Hub) RoomCounts() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	counts := make(map[string]int, len(h.rooms))
	for name, members := range h.rooms {
		counts[name] = len(members)
	}
	return counts
}

// SessionCount returns the number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// CloseAll terminates every registered session. Used at shutdown after the
// listener has stopped accepting.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
