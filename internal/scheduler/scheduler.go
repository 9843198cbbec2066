package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// DefaultSweepInterval is how often idle sessions are looked for.
const DefaultSweepInterval = time.Minute

// Sweeper drops sessions that have been idle too long.
type Sweeper interface {
	SweepIdle(now time.Time) int
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	interval  time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// New creates a new scheduler instance.
func New(sweeper Sweeper, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sweeper:   sweeper,
		interval:  interval,
		now:       time.Now,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.sweepIdle); err != nil {
		return fmt.Errorf("schedule idle sweep: %w", err)
	}
	s.scheduler.StartAsync()
	s.log.Info().Dur("interval", s.interval).Msg("Scheduler started")
	return nil
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) sweepIdle() {
	if n := s.sweeper.SweepIdle(s.now()); n > 0 {
		s.log.Debug().Int("removed", n).Msg("Idle sweep finished")
	}
}
