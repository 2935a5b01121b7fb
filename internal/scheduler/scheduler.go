package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RunFunc executes a skill by name with the given variables.
type RunFunc func(ctx context.Context, skillName string, vars map[string]string) error

// Scheduler ticks once per minute and runs every enabled entry whose cron
// expression matches the current minute.
type Scheduler struct {
	store *Store
	run   RunFunc

	mu      sync.Mutex
	wg      sync.WaitGroup
	running map[string]bool
}

// New creates a Scheduler backed by store, dispatching runs to run.
func New(store *Store, run RunFunc) *Scheduler {
	return &Scheduler{
		store:   store,
		run:     run,
		running: make(map[string]bool),
	}
}

// Start blocks until ctx is cancelled, ticking at the top of each minute.
func (s *Scheduler) Start(ctx context.Context) error {
	slog.Info("scheduler started")

	// Align the first tick to the next minute boundary.
	now := time.Now()
	first := now.Truncate(time.Minute).Add(time.Minute)
	timer := time.NewTimer(first.Sub(now))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case t := <-timer.C:
		s.tick(ctx, t)
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return ctx.Err()
		case t := <-ticker.C:
			s.tick(ctx, t)
		}
	}
}

// RunDue runs every enabled entry due at the given time and waits for the
// runs to finish. Used by the one-shot "schedule run" command.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) {
	s.tick(ctx, now)
	s.wg.Wait()
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	entries, err := s.store.List()
	if err != nil {
		slog.Error("scheduler: list entries", "error", err)
		return
	}

	for _, entry := range entries {
		if !entry.Enabled {
			continue
		}
		expr, err := ParseCron(entry.CronSpec)
		if err != nil {
			slog.Warn("scheduler: invalid cron, skipping", "id", entry.ID, "cron", entry.CronSpec, "error", err)
			continue
		}
		if !expr.Matches(now) {
			continue
		}
		s.dispatch(ctx, entry, now)
	}
}

func (s *Scheduler) dispatch(ctx context.Context, entry Entry, now time.Time) {
	s.mu.Lock()
	if s.running[entry.ID] {
		s.mu.Unlock()
		slog.Warn("scheduler: previous run still in progress, skipping", "id", entry.ID, "skill", entry.SkillName)
		return
	}
	s.running[entry.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.running, entry.ID)
			s.mu.Unlock()
		}()

		slog.Info("scheduler: running skill", "id", entry.ID, "skill", entry.SkillName)
		if err := s.run(ctx, entry.SkillName, entry.Vars); err != nil {
			slog.Error("scheduler: skill failed", "id", entry.ID, "skill", entry.SkillName, "error", err)
		}
		if err := s.store.MarkRun(entry.ID, now); err != nil {
			slog.Error("scheduler: mark run", "id", entry.ID, "error", err)
		}
	}()
}
