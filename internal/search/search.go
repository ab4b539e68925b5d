// Package search enriches prompts with Google Custom Search results.
// Search is strictly best-effort: every failure mode degrades to "no
// results" so the bot can always answer from persona and history alone.
package search

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const endpoint = "https://www.googleapis.com/customsearch/v1"

// Result is one validated search hit.
type Result struct {
	Title   string
	Snippet string
	Link    string
}

// Phrases that signal the user wants depth on the current topic rather than
// a new query. A clarification query is re-targeted at the active topic.
var clarificationPhrases = []string{
	"подробнее", "расскажи подробнее", "детали", "ещё", "tell me more", "details",
	"а что насчёт", "расскажи ещё", "больше", "углубись", "да, хочу",
}

// Snippets carrying these markers usually point at dead pages.
var deadLinkMarkers = []string{"404", "not found", "страница не найдена"}

type Config struct {
	APIKey       string
	EngineID     string
	NumResults   int
	Locale       string
	ProbeTimeout time.Duration
}

type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	probe   *http.Client
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.NumResults <= 0 {
		cfg.NumResults = 7
	}
	if cfg.Locale == "" {
		cfg.Locale = "ru"
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		baseURL: endpoint,
		http:    &http.Client{Timeout: 15 * time.Second},
		probe: &http.Client{
			Timeout: cfg.ProbeTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		logger: logger,
	}
}

// Enabled reports whether search credentials are configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != "" && c.cfg.EngineID != ""
}

// IsClarification reports whether query is one of the fixed "go deeper"
// phrases.
func IsClarification(query string) bool {
	lower := strings.ToLower(query)
	for _, p := range clarificationPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Search queries the provider and returns validated results, or nil when
// nothing usable came back. A clarification query with a known active topic
// re-queries the topic instead of the literal phrase.
func (c *Client) Search(ctx context.Context, query, activeTopic string) []Result {
	if IsClarification(query) && activeTopic != "" {
		query = activeTopic
	}
	results, err := c.fetch(ctx, query)
	if err != nil {
		c.logger.Warn("search_error", "query", query, "error", err.Error())
		return nil
	}
	if len(results) == 0 {
		c.logger.Info("search_no_results", "query", query)
		return nil
	}
	return results
}

type cseResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"items"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) fetch(ctx context.Context, query string) ([]Result, error) {
	q := url.Values{}
	q.Set("key", c.cfg.APIKey)
	q.Set("cx", c.cfg.EngineID)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(c.cfg.NumResults))
	q.Set("gl", c.cfg.Locale)
	q.Set("hl", c.cfg.Locale)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search http %d", resp.StatusCode)
	}

	var out cseResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, fmt.Errorf("search provider: %s", out.Error.Message)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	// Dedupe by link, first occurrence wins.
	seen := make(map[string]bool, len(out.Items))
	var valid []Result
	for _, item := range out.Items {
		if item.Link == "" || seen[item.Link] {
			continue
		}
		seen[item.Link] = true

		snippet := strings.ToLower(item.Snippet)
		dead := false
		for _, marker := range deadLinkMarkers {
			if strings.Contains(snippet, marker) {
				dead = true
				break
			}
		}
		if dead {
			c.logger.Warn("search_dead_source_skipped", "link", item.Link)
			continue
		}
		if !c.linkAlive(ctx, item.Link) {
			continue
		}
		valid = append(valid, Result{
			Title:   item.Title,
			Snippet: item.Snippet,
			Link:    item.Link,
		})
		if len(valid) >= c.cfg.NumResults {
			break
		}
	}
	return valid, nil
}

// linkAlive probes the link with a short-timeout HEAD request.
func (c *Client) linkAlive(ctx context.Context, link string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return false
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		c.logger.Warn("search_link_unreachable", "link", link, "error", err.Error())
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
