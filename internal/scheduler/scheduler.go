package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-core/internal/log"
	"github.com/i474232898/weather-core/internal/weather"
)

// Updater is the part of weather.Manager the scheduler drives.
type Updater interface {
	Update(done func(weather.UpdateOutcome))
}

// Scheduler periodically asks the manager to refresh.
type Scheduler struct {
	scheduler *gocron.Scheduler
	updater   Updater
	interval  time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, updater Updater) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		updater:   updater,
		interval:  interval,
	}
}

// Start schedules the periodic job, which also runs once immediately, and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Infow("scheduler: started", "everyMinutes", minutes)
	return nil
}

func (s *Scheduler) run() {
	log.Debugw("scheduler: requesting weather update")
	s.updater.Update(func(o weather.UpdateOutcome) {
		log.Infow("scheduler: update finished",
			"result", o.Result, "singleError", o.SingleErr, "multipleError", o.MultipleErr)
	})
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
