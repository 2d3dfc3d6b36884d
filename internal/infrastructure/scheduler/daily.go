// Package scheduler owns the recurring per-user digest triggers. One
// goroutine per job sleeps until the next local-time occurrence, fires, and
// rearms; the job table is guarded by a single mutex.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"SportDigest/internal/domain"
	"SportDigest/internal/ports"
)

// FireFunc is invoked on each firing with the owning user id. It runs on the
// job's goroutine: a slow firing delays that user's next computation but
// never another user's job.
type FireFunc func(userID string)

// Registry implements ports.JobRegistry. At most one active job per user id;
// Upsert replaces (cancels-then-recreates), last writer wins.
type Registry struct {
	mu     sync.Mutex
	jobs   map[string]*job
	fire   FireFunc
	logger *slog.Logger
}

var _ ports.JobRegistry = (*Registry)(nil)

type job struct {
	userID string
	hour   int
	minute int
	loc    *time.Location
	stop   chan struct{}
}

// NewRegistry builds an empty registry around the firing callback.
func NewRegistry(fire FireFunc, logger *slog.Logger) *Registry {
	return &Registry{
		jobs:   map[string]*job{},
		fire:   fire,
		logger: logger,
	}
}

// Upsert installs or replaces the recurring trigger for a user. Validation
// failures leave any existing job untouched.
func (r *Registry) Upsert(userID string, hour, minute int, timezone string) error {
	if userID == "" {
		return fmt.Errorf("empty user id")
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid trigger time %02d:%02d", hour, minute)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("unknown timezone %s: %w", timezone, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.jobs[userID]; ok {
		close(existing.stop)
	}

	j := &job{
		userID: userID,
		hour:   hour,
		minute: minute,
		loc:    loc,
		stop:   make(chan struct{}),
	}
	r.jobs[userID] = j
	go r.run(j)

	if r.logger != nil {
		r.logger.Info("scheduled digest", "user_id", userID, "time", fmt.Sprintf("%02d:%02d", hour, minute), "timezone", timezone)
	}
	return nil
}

// Remove cancels the user's trigger; reports whether one existed.
func (r *Registry) Remove(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[userID]
	if !ok {
		return false
	}
	close(j.stop)
	delete(r.jobs, userID)

	if r.logger != nil {
		r.logger.Info("unscheduled digest", "user_id", userID)
	}
	return true
}

// Jobs lists active triggers with their next fire times.
func (r *Registry) Jobs() []domain.ScheduledJob {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs := make([]domain.ScheduledJob, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, domain.ScheduledJob{
			UserID:   j.userID,
			NextFire: NextFire(time.Now().In(j.loc), j.hour, j.minute),
		})
	}
	return jobs
}

// Stop cancels all triggers.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, j := range r.jobs {
		close(j.stop)
		delete(r.jobs, id)
	}
}

func (r *Registry) run(j *job) {
	for {
		next := NextFire(time.Now().In(j.loc), j.hour, j.minute)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			r.safeFire(j.userID)
		case <-j.stop:
			timer.Stop()
			return
		}
	}
}

// safeFire shields the job loop from a panicking firing: the job must rearm
// regardless of this firing's outcome.
func (r *Registry) safeFire(userID string) {
	defer func() {
		if rec := recover(); rec != nil && r.logger != nil {
			r.logger.Error("digest firing panicked", "user_id", userID, "panic", rec)
		}
	}()

	if r.fire != nil {
		r.fire(userID)
	}
}

// NextFire returns the first occurrence of hour:minute strictly after now,
// in now's location.
func NextFire(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
