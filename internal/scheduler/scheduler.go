// Package scheduler repeats a run on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RunFunc is one scheduled execution.
type RunFunc func(ctx context.Context) error

// Scheduler triggers a RunFunc on a standard five-field cron expression (or
// a descriptor such as "@daily"). Overlapping triggers are skipped while a
// run is still in progress.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	run      RunFunc
	log      logrus.FieldLogger

	mu    sync.Mutex
	entry cron.EntryID
}

// New validates spec and returns a stopped Scheduler.
func New(spec string, run RunFunc, log logrus.FieldLogger) (*Scheduler, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(log)),
		cron.SkipIfStillRunning(cron.PrintfLogger(log)),
	))
	return &Scheduler{cron: c, schedule: sched, spec: spec, run: run, log: log}, nil
}

// Next returns the first activation strictly after t.
func (s *Scheduler) Next(t time.Time) time.Time { return s.schedule.Next(t) }

// Run starts the schedule and blocks until ctx is done, then waits for an
// in-flight run to return. Each run receives ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.entry = s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		start := time.Now()
		err := s.run(ctx)
		entry := s.log.WithFields(logrus.Fields{
			"schedule": s.spec,
			"elapsed":  time.Since(start).Truncate(time.Millisecond),
		})
		if err != nil {
			entry.WithError(err).Warn("scheduled run failed")
			return
		}
		entry.Info("scheduled run finished")
	}))
	s.mu.Unlock()

	s.cron.Start()
	s.log.WithFields(logrus.Fields{"schedule": s.spec, "next": s.Next(time.Now())}).Info("scheduler started")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}
