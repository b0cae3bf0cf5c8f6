package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the calendar-aligned sweeps. Interval jobs go through
// Runner; anything that should fire at a wall-clock time goes here.
type Scheduler struct {
	engine *cron.Cron
	sweeps *Sweeps
	log    *zap.SugaredLogger
}

func NewScheduler(sweeps *Sweeps, log *zap.SugaredLogger, loc *time.Location) *Scheduler {
	return &Scheduler{
		engine: cron.New(cron.WithLocation(loc)),
		sweeps: sweeps,
		log:    log.With("component", "scheduler"),
	}
}

func (s *Scheduler) Start() error {
	// hourly: close survey windows that ended
	if _, err := s.engine.AddFunc("0 * * * *", s.wrap("pulse_close", s.sweeps.ClosePulseSessions)); err != nil {
		return err
	}
	// every school-day morning: flag students with a week of silence
	if _, err := s.engine.AddFunc("0 8 * * 1-5", s.wrap("inactivity_alerts", s.sweeps.InactivityAlerts)); err != nil {
		return err
	}
	s.engine.Start()
	s.log.Infow("scheduler started")
	return nil
}

func (s *Scheduler) wrap(name string, fn Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		run(ctx, name, fn)
	}
}

// Stop waits for in-flight jobs before returning.
func (s *Scheduler) Stop() {
	<-s.engine.Stop().Done()
	s.log.Infow("scheduler stopped")
}
