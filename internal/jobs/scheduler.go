package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// IndexSweeper prunes per-user session indexes of expired sessions.
type IndexSweeper interface {
	SweepIndexes(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron     *cron.Cron
	sessions IndexSweeper
	schedule string
	log      zerolog.Logger
}

func NewScheduler(sessions IndexSweeper, schedule string, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		sessions: sessions,
		schedule: schedule,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.sessions == nil || s.schedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sweepSessions); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) sweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.sessions.SweepIndexes(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session index sweep failed")
		return
	}
	s.log.Debug().Int("removed", removed).Msg("session index sweep done")
}
