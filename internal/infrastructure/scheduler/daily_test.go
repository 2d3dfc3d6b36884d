package scheduler

import (
	"sync"
	"testing"
	"time"
)

func TestNextFire(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	now := time.Date(2024, time.March, 10, 6, 30, 0, 0, loc)

	next := NextFire(now, 8, 0)
	if next.Day() != 10 || next.Hour() != 8 || next.Minute() != 0 {
		t.Fatalf("expected same-day 08:00, got %v", next)
	}

	// Past today's slot: fire rolls to tomorrow.
	next = NextFire(now, 6, 0)
	if next.Day() != 11 || next.Hour() != 6 {
		t.Fatalf("expected next-day 06:00, got %v", next)
	}

	// Exactly at the slot: strictly after now.
	next = NextFire(now, 6, 30)
	if !next.After(now) {
		t.Fatalf("NextFire must be strictly after now, got %v", next)
	}
}

func TestUpsertReplacesExistingJob(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	defer r.Stop()

	if err := r.Upsert("u1", 8, 0, "America/Sao_Paulo"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := r.Upsert("u1", 9, 30, "America/Sao_Paulo"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	jobs := r.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("expected exactly one job after replace, got %d", len(jobs))
	}
	if jobs[0].UserID != "u1" {
		t.Fatalf("unexpected job owner %s", jobs[0].UserID)
	}
	if jobs[0].NextFire.Hour() != 9 || jobs[0].NextFire.Minute() != 30 {
		t.Fatalf("next fire should reflect 09:30, got %v", jobs[0].NextFire)
	}
}

func TestUpsertValidation(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	defer r.Stop()

	if err := r.Upsert("u1", 25, 0, "UTC"); err == nil {
		t.Fatal("expected error for hour out of range")
	}
	if err := r.Upsert("u1", 8, 0, "Not/AZone"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
	if err := r.Upsert("", 8, 0, "UTC"); err == nil {
		t.Fatal("expected error for empty user id")
	}
	if len(r.Jobs()) != 0 {
		t.Fatal("validation failures must not install jobs")
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	defer r.Stop()

	if err := r.Upsert("u1", 7, 0, "UTC"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if !r.Remove("u1") {
		t.Fatal("expected Remove to report an existing job")
	}
	if r.Remove("u1") {
		t.Fatal("second Remove should report no job")
	}
	if len(r.Jobs()) != 0 {
		t.Fatal("job list should be empty after removal")
	}
}

func TestFiringSurvivesPanic(t *testing.T) {
	t.Parallel()

	r := NewRegistry(func(string) { panic("boom") }, nil)
	defer r.Stop()

	// Calling the guarded fire path directly must not propagate the panic.
	r.safeFire("u1")
}

func TestConcurrentUpserts(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil, nil)
	defer r.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// All writers target the same user: last-writer-wins, never duplicates.
			if err := r.Upsert("shared", 8, 0, "UTC"); err != nil {
				t.Errorf("upsert: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(r.Jobs()); got != 1 {
		t.Fatalf("expected one job for shared user, got %d", got)
	}
}
