// Package sportsapi implements the structured-source resolver tier against a
// scoreboard-style JSON API.
package sportsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"SportDigest/internal/config"
	"SportDigest/internal/domain"
	"SportDigest/internal/ports"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Client queries fixtures, results, and standings for followed entities.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ ports.StructuredSource = (*Client)(nil)

// NewClient creates a reusable HTTP client for the configured API.
func NewClient(cfg config.SportsAPIConfig, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: client,
	}
}

// Name identifies the source inside invocation logs.
func (c *Client) Name() string {
	return "sportsapi"
}

// Query maps the request kind to an API endpoint and renders the payload as a
// compact text line per event. Kinds without a structured endpoint return an
// empty result so the resolver falls through to the next tier.
func (c *Client) Query(ctx context.Context, req domain.FactRequest, entities []string) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("sports api not configured")
	}
	if len(entities) == 0 {
		return "", nil
	}

	switch req.Kind {
	case domain.KindUpcomingGames, domain.KindBroadcasts:
		return c.fetchEvents(ctx, "/fixtures", entities)
	case domain.KindRecentResults, domain.KindLiveScores:
		return c.fetchEvents(ctx, "/results", entities)
	case domain.KindStandings:
		return c.fetchStandings(ctx, entities)
	default:
		// Player news, injuries, and stats have no structured endpoint here.
		return "", nil
	}
}

type event struct {
	Home      string `json:"home"`
	Away      string `json:"away"`
	HomeScore *int   `json:"home_score"`
	AwayScore *int   `json:"away_score"`
	Start     string `json:"start"`
	Channel   string `json:"channel"`
	Status    string `json:"status"`
}

type eventsResponse struct {
	Events []event `json:"events"`
}

func (c *Client) fetchEvents(ctx context.Context, path string, teams []string) (string, error) {
	var resp eventsResponse
	if err := c.get(ctx, path, url.Values{"team": teams}, &resp); err != nil {
		return "", err
	}

	lines := make([]string, 0, len(resp.Events))
	for _, ev := range resp.Events {
		lines = append(lines, formatEvent(ev))
	}

	return strings.Join(lines, "; "), nil
}

type standingsResponse struct {
	Table []struct {
		Rank   int    `json:"rank"`
		Team   string `json:"team"`
		Record string `json:"record"`
	} `json:"table"`
}

func (c *Client) fetchStandings(ctx context.Context, leagues []string) (string, error) {
	var resp standingsResponse
	if err := c.get(ctx, "/standings", url.Values{"league": leagues}, &resp); err != nil {
		return "", err
	}

	lines := make([]string, 0, len(resp.Table))
	for _, row := range resp.Table {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", row.Rank, row.Team, row.Record))
	}

	return strings.Join(lines, "; "), nil
}

func formatEvent(ev event) string {
	matchup := fmt.Sprintf("%s vs %s", ev.Home, ev.Away)
	if ev.HomeScore != nil && ev.AwayScore != nil {
		matchup = fmt.Sprintf("%s %d-%d %s", ev.Home, *ev.HomeScore, *ev.AwayScore, ev.Away)
	}

	var extras []string
	if ev.Start != "" {
		extras = append(extras, ev.Start)
	}
	if ev.Channel != "" {
		extras = append(extras, ev.Channel)
	}
	if ev.Status != "" {
		extras = append(extras, ev.Status)
	}

	if len(extras) == 0 {
		return matchup
	}
	return fmt.Sprintf("%s (%s)", matchup, strings.Join(extras, ", "))
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	endpoint := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := jsonAPI.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
