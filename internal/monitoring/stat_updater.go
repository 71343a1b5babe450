package monitoring

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/avelinof/chatrelay/internal/chat"
)

// Snapshot is one sample of process and service health.
type Snapshot struct {
	Timestamp      time.Time `json:"timestamp"`
	Sessions       int       `json:"sessions"`
	Rooms          int       `json:"rooms"`
	Goroutines     int       `json:"goroutines"`
	CPUPercent     float64   `json:"cpuPercent"`
	RSSBytes       uint64    `json:"rssBytes"`
	HostMemPercent float64   `json:"hostMemPercent"`
}

// StatUpdater periodically samples process and host stats and keeps the
// latest snapshot for the status API.
type StatUpdater struct {
	hub    *chat.Hub
	proc   *process.Process
	ticker *time.Ticker
	done   chan bool

	mu   sync.RWMutex
	last Snapshot
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(hub *chat.Hub) *StatUpdater {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn().Err(err).Msg("Could not attach to own process for stats")
	}
	return &StatUpdater{
		hub:  hub,
		proc: proc,
		done: make(chan bool),
	}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting background stat updater...")
	su.ticker = time.NewTicker(30 * time.Second)
	defer su.ticker.Stop()

	// Run once immediately on start
	su.update()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-su.ticker.C:
			su.update()
		}
	}
}

// Stop halts the updater.
func (su *StatUpdater) Stop() {
	su.done <- true
}

// Snapshot returns the most recent sample.
func (su *StatUpdater) Snapshot() Snapshot {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.last
}

func (su *StatUpdater) update() {
	snap := Snapshot{
		Timestamp:  time.Now().UTC(),
		Sessions:   su.hub.SessionCount(),
		Rooms:      len(su.hub.ListRooms()),
		Goroutines: runtime.NumGoroutine(),
	}

	if su.proc != nil {
		if cpu, err := su.proc.CPUPercent(); err == nil {
			snap.CPUPercent = cpu
		}
		if mi, err := su.proc.MemoryInfo(); err == nil {
			snap.RSSBytes = mi.RSS
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snap.HostMemPercent = vm.UsedPercent
	}

	su.mu.Lock()
	su.last = snap
	su.mu.Unlock()

	log.Debug().
		Int("sessions", snap.Sessions).
		Int("rooms", snap.Rooms).
		Float64("cpu_percent", snap.CPUPercent).
		Uint64("rss_bytes", snap.RSSBytes).
		Msg("Stats updated")
}
