package sportsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"SportDigest/internal/config"
	"SportDigest/internal/domain"
)

func TestQueryFixtures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("team") != "Lakers" {
			http.Error(w, "missing team", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"events":[{"home":"Lakers","away":"Suns","start":"19:30 PT","channel":"ESPN"}]}`))
	}))
	defer server.Close()

	client := NewClient(config.SportsAPIConfig{BaseURL: server.URL}, server.Client())

	got, err := client.Query(context.Background(), domain.FactRequest{Kind: domain.KindUpcomingGames}, []string{"Lakers"})
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if !strings.Contains(got, "Lakers vs Suns") || !strings.Contains(got, "ESPN") {
		t.Fatalf("unexpected payload: %s", got)
	}
}

func TestQueryResultsWithScores(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"events":[{"home":"Lakers","away":"Nuggets","home_score":112,"away_score":105,"status":"final"}]}`))
	}))
	defer server.Close()

	client := NewClient(config.SportsAPIConfig{BaseURL: server.URL}, server.Client())

	got, err := client.Query(context.Background(), domain.FactRequest{Kind: domain.KindRecentResults}, []string{"Lakers"})
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if !strings.Contains(got, "Lakers 112-105 Nuggets") {
		t.Fatalf("unexpected payload: %s", got)
	}
}

func TestQueryStandings(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/standings" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"table":[{"rank":1,"team":"Thunder","record":"12-2"},{"rank":4,"team":"Lakers","record":"9-5"}]}`))
	}))
	defer server.Close()

	client := NewClient(config.SportsAPIConfig{BaseURL: server.URL}, server.Client())

	got, err := client.Query(context.Background(), domain.FactRequest{Kind: domain.KindStandings}, []string{"NBA"})
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if !strings.Contains(got, "4. Lakers (9-5)") {
		t.Fatalf("unexpected payload: %s", got)
	}
}

func TestQueryErrors(t *testing.T) {
	t.Parallel()

	t.Run("non-200", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient(config.SportsAPIConfig{BaseURL: server.URL}, server.Client())
		if _, err := client.Query(context.Background(), domain.FactRequest{Kind: domain.KindRecentResults}, []string{"Lakers"}); err == nil {
			t.Fatal("expected error for non-200 status")
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"events": not json`))
		}))
		defer server.Close()

		client := NewClient(config.SportsAPIConfig{BaseURL: server.URL}, server.Client())
		if _, err := client.Query(context.Background(), domain.FactRequest{Kind: domain.KindRecentResults}, []string{"Lakers"}); err == nil {
			t.Fatal("expected error for malformed payload")
		}
	})

	t.Run("unconfigured", func(t *testing.T) {
		t.Parallel()
		client := NewClient(config.SportsAPIConfig{}, nil)
		if _, err := client.Query(context.Background(), domain.FactRequest{Kind: domain.KindRecentResults}, []string{"Lakers"}); err == nil {
			t.Fatal("expected error when base URL missing")
		}
	})
}

func TestQueryUnsupportedKind(t *testing.T) {
	t.Parallel()

	client := NewClient(config.SportsAPIConfig{BaseURL: "http://example.invalid"}, nil)
	got, err := client.Query(context.Background(), domain.FactRequest{Kind: domain.KindPlayerNews}, []string{"LeBron James"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty result for unsupported kind, got %q", got)
	}
}
