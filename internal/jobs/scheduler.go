package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"photoboard/api/internal/catalog"
	"photoboard/api/internal/service"
)

// Scheduler runs the catalog sync on a cron schedule so the pending queue
// stays fresh without the operator pressing the sync button.
type Scheduler struct {
	cron     *cron.Cron
	reviews  *service.ReviewService
	schedule string
	log      zerolog.Logger
}

func NewScheduler(reviews *service.ReviewService, schedule string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		reviews:  reviews,
		schedule: schedule,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.schedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runSync); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("background sync scheduled")
	return nil
}

// Stop waits up to five seconds for an in-flight sync to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) runSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	summary, err := s.reviews.Sync(ctx)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingCredentials) {
			s.log.Debug().Msg("background sync skipped, no upstream credentials")
			return
		}
		s.log.Error().Err(err).Msg("background sync failed")
		return
	}

	s.log.Info().
		Int("total_remote", summary.TotalRemote).
		Int("added", summary.Added).
		Int("removed", summary.Removed).
		Msg("background sync complete")
}
