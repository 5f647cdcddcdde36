// Package refresh tells connected sessions when the calendar day changes, so
// they drop uncommitted edits and refetch their day view.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler checks for a day change on a cron schedule and calls notify with
// the new date (YYYY-MM-DD) when one happened.
type Scheduler struct {
	mu       sync.Mutex
	spec     string
	schedule cron.Schedule
	loc      *time.Location
	notify   func(today string)
	now      func() time.Time
	logger   *slog.Logger

	cron *cron.Cron
	last string
	done chan struct{}
}

func NewScheduler(spec string, loc *time.Location, notify func(today string), logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		spec:     spec,
		schedule: schedule,
		loc:      loc,
		notify:   notify,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// Next is the next time the schedule fires after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// Start runs the schedule until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}

	s.last = s.today()
	s.cron = cron.New(cron.WithLocation(s.loc))
	s.cron.Schedule(s.schedule, cron.FuncJob(s.tick))
	s.cron.Start()
	s.done = make(chan struct{})
	s.logger.Info("refresh scheduler started", "schedule", s.spec, "next", s.Next(s.now()))

	c, done := s.cron, s.done
	go func() {
		select {
		case <-ctx.Done():
			<-c.Stop().Done()
		case <-done:
		}
	}()
}

// Stop halts the schedule and waits for a running check to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, done := s.cron, s.done
	s.cron, s.done = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	close(done)
	<-c.Stop().Done()
}

func (s *Scheduler) today() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

func (s *Scheduler) tick() {
	today := s.today()

	s.mu.Lock()
	changed := today != s.last
	s.last = today
	s.mu.Unlock()

	if !changed {
		s.logger.Debug("refresh check", "today", today)
		return
	}
	s.logger.Info("day rollover", "today", today)
	s.notify(today)
}
