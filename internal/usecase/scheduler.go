package usecase

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler bridges the job registry's fire callbacks to digest generation
// and rebuilds the job table from the store at startup.
type Scheduler struct {
	service     *DigestService
	fireTimeout time.Duration
	logger      *slog.Logger
}

// NewScheduler constructs the scheduler usecase.
func NewScheduler(service *DigestService, fireTimeout time.Duration, logger *slog.Logger) *Scheduler {
	if fireTimeout <= 0 {
		fireTimeout = 5 * time.Minute
	}
	return &Scheduler{service: service, fireTimeout: fireTimeout, logger: logger}
}

// Rehydrate reinstalls a job for every stored profile. A broken profile is
// logged and skipped so the rest of the table still comes up.
func (s *Scheduler) Rehydrate(ctx context.Context) error {
	ids, err := s.service.store.ListUserIDs(ctx)
	if err != nil {
		return err
	}

	restored := 0
	for _, id := range ids {
		profile, ok, err := s.service.store.Profile(ctx, id)
		if err != nil || !ok {
			s.logger.Warn("skipping job rehydration", "user_id", id, "error", err)
			continue
		}
		hour, minute, err := ParseDeliveryTime(profile.DeliveryTime)
		if err != nil {
			s.logger.Warn("skipping job rehydration", "user_id", id, "error", err)
			continue
		}
		if err := s.service.jobs.Upsert(id, hour, minute, profile.Timezone); err != nil {
			s.logger.Warn("skipping job rehydration", "user_id", id, "error", err)
			continue
		}
		restored++
	}

	s.logger.Info("scheduled jobs rehydrated", "count", restored)
	return nil
}

// HandleFiring runs one scheduled generation. Errors are logged, never
// propagated, so one bad run does not disturb the job loop.
func (s *Scheduler) HandleFiring(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.fireTimeout)
	defer cancel()

	digest, err := s.service.GenerateDigest(ctx, userID)
	if err != nil {
		s.logger.Error("scheduled digest failed", "user_id", userID, "error", err)
		return
	}
	s.logger.Info("scheduled digest delivered", "user_id", userID, "generated_at", digest.GeneratedAt)
}
