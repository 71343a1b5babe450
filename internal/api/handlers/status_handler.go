package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/avelinof/chatrelay/internal/chat"
	"github.com/avelinof/chatrelay/internal/monitoring"
)

// StatusHandler serves the operational endpoints: health, room listing, and
// runtime stats.
type StatusHandler struct {
	db    *sql.DB
	hub   *chat.Hub
	stats *monitoring.StatUpdater
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(db *sql.DB, hub *chat.Hub, stats *monitoring.StatUpdater) *StatusHandler {
	return &StatusHandler{db: db, hub: hub, stats: stats}
}

// Health reports whether the database is reachable.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type roomInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// Rooms lists all currently non-empty rooms with member counts.
func (h *StatusHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	counts := h.hub.RoomCounts()
	rooms := make([]roomInfo, 0, len(counts))
	for name, members := range counts {
		rooms = append(rooms, roomInfo{Name: name, Members: members})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	writeJSON(w, http.StatusOK, rooms)
}

// Stats returns the latest monitoring snapshot.
func (h *StatusHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
