package monitoring

import (
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/avelinof/chatrelay/internal/services"
)

// Retention periodically deletes messages and file shares older than the
// configured horizon, including the stored file bodies.
type Retention struct {
	messages services.MessageServiceProvider
	files    services.FileServiceProvider
	days     int
	cron     *cron.Cron
}

// NewRetention creates a retention sweeper. It does nothing until Start.
func NewRetention(messages services.MessageServiceProvider, files services.FileServiceProvider, days int) *Retention {
	return &Retention{
		messages: messages,
		files:    files,
		days:     days,
		cron:     cron.New(),
	}
}

// Start schedules the sweep with the given cron expression.
func (r *Retention) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, r.Sweep); err != nil {
		return err
	}
	r.cron.Start()
	log.Info().Str("schedule", schedule).Int("days", r.days).Msg("Retention sweeper scheduled")
	return nil
}

// Stop halts the scheduler; a running sweep finishes.
func (r *Retention) Stop() {
	r.cron.Stop()
}

// Sweep runs one retention pass immediately.
func (r *Retention) Sweep() {
	cutoff := time.Now().UTC().AddDate(0, 0, -r.days)

	removed, err := r.messages.PruneBefore(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Retention: failed to prune messages")
	}

	paths, err := r.files.PruneBefore(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Retention: failed to prune file records")
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", p).Msg("Retention: could not remove stored file")
		}
	}

	log.Info().Int64("messages", removed).Int("files", len(paths)).Time("cutoff", cutoff).Msg("Retention sweep complete")
}
