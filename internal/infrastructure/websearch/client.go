// Package websearch implements the web-search resolver tier against an
// HTML results endpoint (DuckDuckGo-compatible markup).
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SportDigest/internal/config"
	"SportDigest/internal/ports"
)

// Client fetches and parses ranked result snippets for a query.
type Client struct {
	endpoint   string
	maxResults int
	httpClient *http.Client
}

var _ ports.SearchClient = (*Client)(nil)

// NewClient wires an HTTP client; maxResults defaults to 3.
func NewClient(cfg config.SearchConfig, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		maxResults: maxResults,
		httpClient: client,
	}
}

// Search returns up to maxResults snippets ranked as served. An empty result
// set is an error so the caller falls through to the next tier.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("search endpoint not configured")
	}

	doc, err := c.fetchDocument(ctx, query)
	if err != nil {
		return nil, err
	}

	snippets := extractSnippets(doc, c.maxResults)
	if len(snippets) == 0 {
		return nil, fmt.Errorf("no results for query %q", query)
	}

	return snippets, nil
}

func (c *Client) fetchDocument(ctx context.Context, query string) (*goquery.Document, error) {
	searchURL, err := buildSearchURL(c.endpoint, query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "SportDigest/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractSnippets(doc *goquery.Document, limit int) []string {
	var snippets []string

	doc.Find(".result").EachWithBreak(func(i int, result *goquery.Selection) bool {
		title := strings.TrimSpace(result.Find(".result__a").First().Text())
		snippet := strings.TrimSpace(result.Find(".result__snippet").First().Text())

		text := snippet
		if title != "" && snippet != "" {
			text = fmt.Sprintf("%s: %s", title, snippet)
		} else if title != "" {
			text = title
		}
		if text != "" {
			snippets = append(snippets, text)
		}

		return len(snippets) < limit
	})

	return snippets
}

func buildSearchURL(base, query string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search endpoint %s: %w", base, err)
	}

	values := parsed.Query()
	values.Set("q", query)
	parsed.RawQuery = values.Encode()
	return parsed.String(), nil
}
