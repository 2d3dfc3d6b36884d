package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"SportDigest/internal/domain"
	"SportDigest/internal/ports"
)

// ErrUserNotFound marks operations that target an unknown user id.
var ErrUserNotFound = errors.New("user not found")

// ValidationError marks schedule input rejected before any state change.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ServiceDeps wires the persistence gateway, job registry, and orchestrator
// into the digest service.
type ServiceDeps struct {
	Store        ports.ProfileStore
	Jobs         ports.JobRegistry
	Orchestrator *Orchestrator
	Archive      ports.DigestArchive
	HistoryCap   int
	Logger       *slog.Logger

	// Applied when an incoming profile leaves the field blank.
	DefaultDeliveryTime string
	DefaultTimezone     string
}

// DigestService exposes the operations consumed by the HTTP surface and the
// scheduler: preference management, on-demand generation, and job control.
type DigestService struct {
	store           ports.ProfileStore
	jobs            ports.JobRegistry
	orch            *Orchestrator
	archive         ports.DigestArchive
	historyCap      int
	logger          *slog.Logger
	defaultDelivery string
	defaultTimezone string
}

// NewDigestService constructs the service.
func NewDigestService(deps ServiceDeps) *DigestService {
	histCap := deps.HistoryCap
	if histCap <= 0 {
		histCap = 30
	}
	delivery := deps.DefaultDeliveryTime
	if delivery == "" {
		delivery = "07:00"
	}
	timezone := deps.DefaultTimezone
	if timezone == "" {
		timezone = "UTC"
	}
	return &DigestService{
		store:           deps.Store,
		jobs:            deps.Jobs,
		orch:            deps.Orchestrator,
		archive:         deps.Archive,
		historyCap:      histCap,
		logger:          deps.Logger,
		defaultDelivery: delivery,
		defaultTimezone: timezone,
	}
}

// SaveProfile validates and persists preferences, assigns a user id when the
// request carries none, and installs (or replaces) the recurring job.
func (s *DigestService) SaveProfile(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	if strings.TrimSpace(profile.DeliveryTime) == "" {
		profile.DeliveryTime = s.defaultDelivery
	}
	if strings.TrimSpace(profile.Timezone) == "" {
		profile.Timezone = s.defaultTimezone
	}

	hour, minute, err := ParseDeliveryTime(profile.DeliveryTime)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if _, err := time.LoadLocation(profile.Timezone); err != nil {
		return domain.UserProfile{}, validationErrorf("unknown timezone %q", profile.Timezone)
	}

	if profile.UserID == "" {
		profile.UserID = uuid.NewString()
	}
	profile.History = nil // preserved by the store on upsert

	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		return domain.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}

	if err := s.jobs.Upsert(profile.UserID, hour, minute, profile.Timezone); err != nil {
		return domain.UserProfile{}, fmt.Errorf("schedule digest: %w", err)
	}

	return profile, nil
}

// GenerateDigest runs one on-demand orchestration for the user and appends
// the result to the bounded history.
func (s *DigestService) GenerateDigest(ctx context.Context, userID string) (domain.FinalDigest, error) {
	profile, ok, err := s.store.Profile(ctx, userID)
	if err != nil {
		return domain.FinalDigest{}, fmt.Errorf("load profile: %w", err)
	}
	if !ok {
		return domain.FinalDigest{}, ErrUserNotFound
	}

	digest := s.orch.Run(ctx, domain.Snapshot(profile))

	entry := domain.DigestEntry{Digest: digest.Text, Timestamp: digest.GeneratedAt}
	if err := s.store.AppendHistory(ctx, userID, entry, s.historyCap); err != nil {
		return domain.FinalDigest{}, fmt.Errorf("append history: %w", err)
	}

	s.mirrorToArchive(ctx, userID, digest)

	return digest, nil
}

// Profile returns the stored profile for a user.
func (s *DigestService) Profile(ctx context.Context, userID string) (domain.UserProfile, error) {
	profile, ok, err := s.store.Profile(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("load profile: %w", err)
	}
	if !ok {
		return domain.UserProfile{}, ErrUserNotFound
	}
	return profile, nil
}

// DeleteProfile removes the user's record and cancels their scheduled job.
func (s *DigestService) DeleteProfile(ctx context.Context, userID string) error {
	deleted, err := s.store.DeleteProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}

	s.UnscheduleDigest(userID)
	return nil
}

// History returns up to limit most recent digest entries for a user.
func (s *DigestService) History(ctx context.Context, userID string, limit int) ([]domain.DigestEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	if _, err := s.Profile(ctx, userID); err != nil {
		return nil, err
	}

	history, err := s.store.History(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return history, nil
}

// ScheduleDigest updates the user's delivery preferences and replaces their
// recurring job. Invalid input leaves both store and job table untouched.
func (s *DigestService) ScheduleDigest(ctx context.Context, userID, deliveryTime, timezone string) error {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	profile.DeliveryTime = deliveryTime
	profile.Timezone = timezone
	_, err = s.SaveProfile(ctx, profile)
	return err
}

// UnscheduleDigest cancels the user's recurring job, if any.
func (s *DigestService) UnscheduleDigest(userID string) bool {
	return s.jobs.Remove(userID)
}

// ListScheduledJobs lists all active jobs with their next fire times.
func (s *DigestService) ListScheduledJobs() []domain.ScheduledJob {
	return s.jobs.Jobs()
}

// mirrorToArchive best-effort copies the digest into the Postgres archive;
// archive trouble never fails the generation.
func (s *DigestService) mirrorToArchive(ctx context.Context, userID string, digest domain.FinalDigest) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveDigest(ctx, userID, digest.Text, digest.GeneratedAt); err != nil && s.logger != nil {
		s.logger.Warn("archive write failed", "user_id", userID, "error", err)
	}
}

// ParseDeliveryTime parses a 24h "HH:MM" delivery time.
func ParseDeliveryTime(value string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, 0, validationErrorf("delivery time %q not in HH:MM format", value)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, validationErrorf("delivery time %q has invalid hour", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, validationErrorf("delivery time %q has invalid minute", value)
	}

	return hour, minute, nil
}
