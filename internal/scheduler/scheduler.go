// Package scheduler drives both engines in daemon mode. Cron triggers
// push run requests into per-engine mailboxes; one goroutine per engine
// drains its mailbox and runs serially, so runs of the same engine never
// overlap in-process. The two engines remain independent and may run
// concurrently with each other, which the capture and retention designs
// explicitly allow.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pgkeep/pgkeep/internal/mailbox"
)

// Job is one engine invocation. Errors are handled (logged, summarized)
// inside the job itself; the scheduler only sequences them.
type Job func(ctx context.Context)

// Scheduler owns the cron instance and the two run loops. Jobs can be
// swapped at any time (SIGHUP reload) without restarting cron.
type Scheduler struct {
	log zerolog.Logger

	mu      sync.RWMutex
	capture Job
	retain  Job

	captureMB *mailbox.Mailbox[time.Time]
	retainMB  *mailbox.Mailbox[time.Time]
}

func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		log:       log,
		captureMB: mailbox.New[time.Time](),
		retainMB:  mailbox.New[time.Time](),
	}
}

// SetJobs installs (or replaces, on reload) the engine entry points.
func (s *Scheduler) SetJobs(capture, retain Job) {
	s.mu.Lock()
	s.capture = capture
	s.retain = retain
	s.mu.Unlock()
}

// Run blocks until ctx is cancelled, then waits for cron and any
// in-flight engine run to finish.
func (s *Scheduler) Run(ctx context.Context, captureSpec, retainSpec string) error {
	c := cron.New()

	if _, err := c.AddFunc(captureSpec, func() { s.captureMB.Put(time.Now()) }); err != nil {
		return fmt.Errorf("scheduler: capture schedule %q: %w", captureSpec, err)
	}
	if _, err := c.AddFunc(retainSpec, func() { s.retainMB.Put(time.Now()) }); err != nil {
		return fmt.Errorf("scheduler: retention schedule %q: %w", retainSpec, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.loop(ctx, "capture", s.captureMB, func() Job { s.mu.RLock(); defer s.mu.RUnlock(); return s.capture })
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, "retention", s.retainMB, func() Job { s.mu.RLock(); defer s.mu.RUnlock(); return s.retain })
	}()

	s.log.Info().
		Str("capture_schedule", captureSpec).
		Str("retention_schedule", retainSpec).
		Msg("scheduler started")
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	wg.Wait()
	return nil
}

func (s *Scheduler) loop(ctx context.Context, name string, mb *mailbox.Mailbox[time.Time], job func() Job) {
	for {
		triggered, ok := mb.Take(ctx)
		if !ok {
			return
		}
		s.log.Debug().Str("engine", name).Time("triggered_at", triggered).Msg("run triggered")
		if j := job(); j != nil {
			j(ctx)
		}
	}
}
