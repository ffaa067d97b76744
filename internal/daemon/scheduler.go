package daemon

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for periodic full rebuilds.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates an idle scheduler.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// SchedulePeriodicRebuild registers fire to run every interval and returns
// the job ID for logging.
func (s *Scheduler) SchedulePeriodicRebuild(interval time.Duration, fire func()) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fire),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		return "", fmt.Errorf("create periodic rebuild job: %w", err)
	}
	return job.ID().String(), nil
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
