package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/robfig/cron/v3"
)

const DefaultPollTick = time.Second

type Job func(ctx context.Context) error

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Scheduler runs a single job on a fixed schedule. It polls the clock every
// tick instead of sleeping until the next run so an interrupt is observed
// within one tick. Runs never overlap.
type Scheduler struct {
	schedule cron.Schedule
	clock    clock.Clock
	tick     time.Duration
	grace    time.Duration
	logger   Logger
}

type Option func(*Scheduler)

func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithPollTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithShutdownGrace bounds how long a run in progress may continue after ctx
// is cancelled before its own context is cancelled too. Zero waits for the
// run to finish.
func WithShutdownGrace(d time.Duration) Option {
	return func(s *Scheduler) { s.grace = d }
}

func WithLogger(l Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

func New(schedule cron.Schedule, opts ...Option) *Scheduler {
	s := &Scheduler{
		schedule: schedule,
		clock:    clock.New(),
		tick:     DefaultPollTick,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Every fires one interval after the previous run finished.
func Every(interval time.Duration) cron.Schedule {
	return cron.Every(interval)
}

// Parse accepts a standard five-field cron expression or a descriptor such
// as "@hourly".
func Parse(spec string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Run blocks until ctx is cancelled and returns nil on a clean interrupt.
// The first run is due one schedule step after Run starts. A run already in
// progress when ctx is cancelled is allowed to finish within the shutdown
// grace period.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	ticker := s.clock.Ticker(s.tick)
	defer ticker.Stop()

	t := newTracker(s.schedule, s.clock.Now())
	s.infof("Next backup at %s", t.next.Format(time.DateTime))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if ctx.Err() != nil {
			return nil
		}
		if !t.due(s.clock.Now()) {
			continue
		}

		jobCtx, stop := s.jobContext(ctx)
		err := job(jobCtx)
		stop()
		if err != nil {
			s.errorf("Scheduled run failed: %v", err)
		}

		t.advance(s.clock.Now())
		s.infof("Next backup at %s", t.next.Format(time.DateTime))
	}
}

// jobContext outlives ctx by at most the grace period.
func (s *Scheduler) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if s.grace <= 0 {
		return jobCtx, cancel
	}

	stopAfter := context.AfterFunc(ctx, func() {
		s.infof("Interrupted, waiting up to %s for the current run", s.grace)
		timer := s.clock.Timer(s.grace)
		defer timer.Stop()
		select {
		case <-timer.C:
			s.errorf("Shutdown grace period elapsed, cancelling the current run")
			cancel()
		case <-jobCtx.Done():
		}
	})

	return jobCtx, func() {
		stopAfter()
		cancel()
	}
}

func (s *Scheduler) infof(template string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Infof(template, args...)
	}
}

func (s *Scheduler) errorf(template string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Errorf(template, args...)
	}
}

// tracker is the Idle/Running decision: a run is due once the clock reaches
// next, and next only moves forward after a run completes.
type tracker struct {
	schedule cron.Schedule
	next     time.Time
}

func newTracker(schedule cron.Schedule, start time.Time) *tracker {
	return &tracker{schedule: schedule, next: schedule.Next(start)}
}

func (t *tracker) due(now time.Time) bool {
	return !now.Before(t.next)
}

func (t *tracker) advance(finished time.Time) {
	t.next = t.schedule.Next(finished)
}
