package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/i474232898/weather-indexer/internal/weather"
)

// Cycle is one unit of scheduled work.
type Cycle interface {
	RunCycle(ctx context.Context) weather.CycleResult
}

// Scheduler runs the ingest cycle on a cron schedule. At most one cycle is in
// flight: a tick that fires while the previous cycle is still running is skipped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cycle     Cycle
	spec      string
	timeout   time.Duration
	running   *atomic.Bool
	log       *zap.SugaredLogger
}

// New creates a new Scheduler. spec is a standard 5-field cron expression, or
// a 6-field one with leading seconds. timeout bounds each cycle (0 = none).
func New(spec string, timeout time.Duration, cycle Cycle, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cycle:     cycle,
		spec:      spec,
		timeout:   timeout,
		running:   atomic.NewBool(false),
		log:       log,
	}
}

// Start registers the job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	var job *gocron.Scheduler
	switch len(strings.Fields(s.spec)) {
	case 5:
		job = s.scheduler.Cron(s.spec)
	case 6:
		job = s.scheduler.CronWithSeconds(s.spec)
	default:
		return fmt.Errorf("scheduler: invalid cron expression %q", s.spec)
	}

	if _, err := job.Do(s.tick); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	s.scheduler.StartAsync()
	s.log.Infow("scheduler: started", "schedule", s.spec, "cycle_timeout", s.timeout)
	return nil
}

// Stop stops the scheduler and cancels any future runs. A cycle already in
// flight is not interrupted.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) tick() {
	s.log.Info("scheduler: fetching weather data")

	res, err := s.RunNow(context.Background())
	if err != nil {
		s.log.Warnw("scheduler: tick skipped", "reason", err)
		return
	}
	s.log.Infow("scheduler: cycle finished",
		"cycle", res.ID, "stage", res.Stage, "ok", res.OK(), "duration", res.Duration)
}

// RunNow runs one cycle immediately unless one is already in flight, in which
// case it returns weather.ErrCycleAlreadyRunning.
func (s *Scheduler) RunNow(ctx context.Context) (weather.CycleResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return weather.CycleResult{}, weather.ErrCycleAlreadyRunning
	}
	defer s.running.Store(false)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return s.cycle.RunCycle(ctx), nil
}

// Running reports whether a cycle is in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}
