package server

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// StartRetention schedules transcript pruning. It returns nil when there
// is no store, no schedule or no max age.
func (s *Server) StartRetention() (*cron.Cron, error) {
	cfg := s.cfg.Retention
	if s.store == nil || cfg.Schedule == "" || cfg.MaxAgeDays <= 0 {
		return nil, nil
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Schedule, func() {
		if _, err := s.PruneTranscripts(time.Now()); err != nil {
			log.Error().Err(err).Msg("Transcript retention failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", cfg.Schedule, err)
	}
	scheduler.Start()
	log.Info().Str("schedule", cfg.Schedule).Int("max_age_days", cfg.MaxAgeDays).Msg("Transcript retention scheduled")
	return scheduler, nil
}

// PruneTranscripts deletes conversations last touched more than
// Retention.MaxAgeDays before now.
func (s *Server) PruneTranscripts(now time.Time) (int64, error) {
	if s.store == nil || s.cfg.Retention.MaxAgeDays <= 0 {
		return 0, nil
	}
	cutoff := now.AddDate(0, 0, -s.cfg.Retention.MaxAgeDays)
	removed, err := s.store.PruneBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune transcripts: %w", err)
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("Pruned old transcripts")
	}
	return removed, nil
}
