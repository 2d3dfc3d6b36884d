package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"SportDigest/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memStore struct {
	mu    sync.Mutex
	users map[string]domain.UserProfile
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]domain.UserProfile)}
}

func (s *memStore) Profile(ctx context.Context, userID string) (domain.UserProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[userID]
	return p, ok, nil
}

func (s *memStore) UpsertProfile(ctx context.Context, profile domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[profile.UserID]; ok && len(profile.History) == 0 {
		profile.History = existing.History
	}
	s.users[profile.UserID] = profile
	return nil
}

func (s *memStore) DeleteProfile(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[userID]
	delete(s.users, userID)
	return ok, nil
}

func (s *memStore) AppendHistory(ctx context.Context, userID string, entry domain.DigestEntry, cap int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[userID]
	if !ok {
		return errors.New("unknown user")
	}
	p.History = append(p.History, entry)
	if len(p.History) > cap {
		p.History = p.History[len(p.History)-cap:]
	}
	s.users[userID] = p
	return nil
}

func (s *memStore) History(ctx context.Context, userID string, limit int) ([]domain.DigestEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.users[userID].History
	if len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]domain.DigestEntry(nil), h...), nil
}

func (s *memStore) ListUserIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids, nil
}

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]domain.ScheduledJob
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[string]domain.ScheduledJob)}
}

func (r *memJobs) Upsert(userID string, hour, minute int, timezone string) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().In(loc)
	r.jobs[userID] = domain.ScheduledJob{UserID: userID, NextFire: time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)}
	return nil
}

func (r *memJobs) Remove(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[userID]
	delete(r.jobs, userID)
	return ok
}

func (r *memJobs) Jobs() []domain.ScheduledJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ScheduledJob, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	return out
}

func (r *memJobs) Stop() {}

func newTestService(t *testing.T) (*DigestService, *memStore, *memJobs) {
	t.Helper()
	store := newMemStore()
	jobs := newMemJobs()
	svc := NewDigestService(ServiceDeps{
		Store: store,
		Jobs:  jobs,
		Orchestrator: NewOrchestrator(OrchestratorDeps{
			Resolver: &stubResolver{facts: map[domain.RequestKind]string{
				domain.KindUpcomingGames: "Lakers vs Celtics at 7pm.",
				domain.KindRecentResults: "Lakers 112-105 Nuggets.",
			}},
			Synthesizer: NewSynthesizer(nil, nil),
		}),
		HistoryCap: 30,
	})
	return svc, store, jobs
}

func validProfile() domain.UserProfile {
	return domain.UserProfile{
		Teams:        []string{"Lakers"},
		Leagues:      []string{"NBA"},
		DeliveryTime: "08:00",
		Timezone:     "America/New_York",
	}
}

func TestSaveProfileAssignsIDAndSchedules(t *testing.T) {
	t.Parallel()
	svc, _, jobs := newTestService(t)

	saved, err := svc.SaveProfile(context.Background(), validProfile())
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if saved.UserID == "" {
		t.Fatal("expected generated user id")
	}
	if got := len(jobs.Jobs()); got != 1 {
		t.Fatalf("expected 1 scheduled job, got %d", got)
	}
}

func TestSaveProfileAppliesScheduleDefaults(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	p := validProfile()
	p.DeliveryTime = ""
	p.Timezone = " "
	saved, err := svc.SaveProfile(context.Background(), p)
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if saved.DeliveryTime != "07:00" || saved.Timezone != "UTC" {
		t.Errorf("defaults not applied: %q %q", saved.DeliveryTime, saved.Timezone)
	}
}

func TestSaveProfileRejectsBadDeliveryTime(t *testing.T) {
	t.Parallel()
	svc, _, jobs := newTestService(t)

	cases := []string{"25:00", "08:61", "0800", "aa:bb"}
	for _, tc := range cases {
		p := validProfile()
		p.DeliveryTime = tc
		_, err := svc.SaveProfile(context.Background(), p)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("delivery time %q: expected validation error, got %v", tc, err)
		}
	}
	if got := len(jobs.Jobs()); got != 0 {
		t.Errorf("invalid input installed %d jobs", got)
	}
}

func TestSaveProfileRejectsBadTimezone(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	p := validProfile()
	p.Timezone = "Mars/Olympus"
	_, err := svc.SaveProfile(context.Background(), p)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateDigestAppendsHistory(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	saved, err := svc.SaveProfile(context.Background(), validProfile())
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	digest, err := svc.GenerateDigest(context.Background(), saved.UserID)
	if err != nil {
		t.Fatalf("GenerateDigest: %v", err)
	}
	if !strings.Contains(digest.Text, "Lakers vs Celtics") {
		t.Errorf("digest missing gathered content:\n%s", digest.Text)
	}

	history, err := svc.History(context.Background(), saved.UserID, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Digest != digest.Text {
		t.Errorf("expected the generated digest in history, got %+v", history)
	}
}

func TestGenerateDigestUnknownUser(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	_, err := svc.GenerateDigest(context.Background(), "ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDeleteProfileRemovesJob(t *testing.T) {
	t.Parallel()
	svc, _, jobs := newTestService(t)

	saved, err := svc.SaveProfile(context.Background(), validProfile())
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	if err := svc.DeleteProfile(context.Background(), saved.UserID); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	if got := len(jobs.Jobs()); got != 0 {
		t.Errorf("expected job removed, %d remain", got)
	}
	if err := svc.DeleteProfile(context.Background(), saved.UserID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second delete: expected ErrUserNotFound, got %v", err)
	}
}

func TestUnscheduleDigestKeepsProfile(t *testing.T) {
	t.Parallel()
	svc, _, jobs := newTestService(t)

	saved, err := svc.SaveProfile(context.Background(), validProfile())
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	if !svc.UnscheduleDigest(saved.UserID) {
		t.Fatal("expected unschedule to report a cancelled job")
	}
	if got := len(jobs.Jobs()); got != 0 {
		t.Errorf("expected no jobs after unschedule, got %d", got)
	}
	if svc.UnscheduleDigest(saved.UserID) {
		t.Error("second unschedule should report nothing to cancel")
	}

	if _, err := svc.Profile(context.Background(), saved.UserID); err != nil {
		t.Errorf("profile should survive unscheduling: %v", err)
	}
}

func TestScheduleDigestReplacesJob(t *testing.T) {
	t.Parallel()
	svc, _, jobs := newTestService(t)

	saved, err := svc.SaveProfile(context.Background(), validProfile())
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	if err := svc.ScheduleDigest(context.Background(), saved.UserID, "21:15", "Europe/London"); err != nil {
		t.Fatalf("ScheduleDigest: %v", err)
	}

	all := jobs.Jobs()
	if len(all) != 1 {
		t.Fatalf("expected replacement to keep one job, got %d", len(all))
	}
	if all[0].NextFire.Hour() != 21 || all[0].NextFire.Minute() != 15 {
		t.Errorf("job not rescheduled: next fire %v", all[0].NextFire)
	}

	updated, err := svc.Profile(context.Background(), saved.UserID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if updated.DeliveryTime != "21:15" || updated.Timezone != "Europe/London" {
		t.Errorf("profile delivery fields not updated: %+v", updated)
	}
}

func TestSchedulerRehydrateRestoresJobs(t *testing.T) {
	t.Parallel()
	svc, store, jobs := newTestService(t)

	for _, id := range []string{"u1", "u2"} {
		p := validProfile()
		p.UserID = id
		if err := store.UpsertProfile(context.Background(), p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	bad := validProfile()
	bad.UserID = "u3"
	bad.DeliveryTime = "not-a-time"
	if err := store.UpsertProfile(context.Background(), bad); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sched := NewScheduler(svc, time.Minute, discardLogger())
	if err := sched.Rehydrate(context.Background()); err != nil {
		t.Fatalf("Rehydrate: %v", err)
	}

	if got := len(jobs.Jobs()); got != 2 {
		t.Errorf("expected 2 rehydrated jobs, got %d", got)
	}
}

func TestHandleFiringSwallowsErrors(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	sched := NewScheduler(svc, time.Minute, discardLogger())
	sched.HandleFiring("ghost") // must not panic or propagate
}
