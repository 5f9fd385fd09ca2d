// Package collect gathers raw signals for each entity from Reddit search and
// Google News and stores them as the JSON files the pipeline loads.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/TobiSchelling/SignalTopics/internal/config"
	"github.com/TobiSchelling/SignalTopics/internal/logging"
	"github.com/TobiSchelling/SignalTopics/internal/signals"
)

const (
	defaultRedditURL = "https://www.reddit.com/search.json"
	defaultNewsURL   = "https://news.google.com/rss/search"
)

// Signal is one collected record as written to disk. Reddit posts carry
// subreddit and created_utc; news articles carry published and summary.
type Signal struct {
	Company    string   `json:"company"`
	Source     string   `json:"source"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Subreddit  string   `json:"subreddit,omitempty"`
	CreatedUTC *float64 `json:"created_utc,omitempty"`
	Published  string   `json:"published,omitempty"`
	Summary    string   `json:"summary,omitempty"`
}

// Result holds the results of collecting one entity.
type Result struct {
	Entity       string
	RedditPosts  int
	NewsArticles int
	Files        []string
	Errors       []error
}

// Collector fetches signals for entities and writes them under the data directory.
type Collector struct {
	dataDir     string
	redditURL   string
	newsURL     string
	redditLimit int
	newsLimit   int
	userAgent   string
	client      *http.Client
	limiter     *rate.Limiter
}

// NewCollector creates a new collector from the configuration.
func NewCollector(cfg *config.Config) *Collector {
	limit := rate.Inf
	if cfg.Collect.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.Collect.RequestsPerSecond)
	}
	return &Collector{
		dataDir:     cfg.DataDir,
		redditURL:   defaultRedditURL,
		newsURL:     defaultNewsURL,
		redditLimit: cfg.Collect.RedditLimit,
		newsLimit:   cfg.Collect.NewsLimit,
		userAgent:   cfg.Collect.UserAgent,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// CollectAll collects every entity in order. A failing entity does not stop the rest.
func (c *Collector) CollectAll(ctx context.Context, entities []string) []*Result {
	var results []*Result
	for _, entity := range entities {
		if ctx.Err() != nil {
			break
		}
		results = append(results, c.CollectEntity(ctx, entity))
	}
	return results
}

// CollectEntity fetches Reddit posts and news articles for one entity and
// writes the per-source files plus the combined signals file. Files are only
// written for sources that returned records.
func (c *Collector) CollectEntity(ctx context.Context, entity string) *Result {
	r := &Result{Entity: entity}
	logging.Info("Fetching signals", "entity", entity)

	posts, err := c.fetchReddit(ctx, entity)
	if err != nil {
		logging.Warn("Reddit fetch failed", "entity", entity, "error", err)
		r.Errors = append(r.Errors, err)
	}
	news, err := c.fetchNews(ctx, entity)
	if err != nil {
		logging.Warn("News fetch failed", "entity", entity, "error", err)
		r.Errors = append(r.Errors, err)
	}
	r.RedditPosts = len(posts)
	r.NewsArticles = len(news)

	var all []Signal
	if len(posts) > 0 {
		c.save(r, signals.SourcePath(c.dataDir, entity, signals.OriginSocial), posts)
		all = append(all, posts...)
	}
	if len(news) > 0 {
		c.save(r, signals.SourcePath(c.dataDir, entity, signals.OriginNews), news)
		all = append(all, news...)
	}
	if len(all) > 0 {
		c.save(r, signals.SourcePath(c.dataDir, entity, signals.OriginAggregated), all)
	}

	logging.Info("Collection complete", "entity", entity, "reddit", r.RedditPosts, "news", r.NewsArticles)
	return r
}

func (c *Collector) save(r *Result, path string, items []Signal) {
	if err := saveJSON(path, items); err != nil {
		logging.Error("Saving signals failed", "path", path, "error", err)
		r.Errors = append(r.Errors, err)
		return
	}
	logging.Info("Saved signals", "count", len(items), "path", path)
	r.Files = append(r.Files, path)
}

func saveJSON(path string, items []Signal) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding signals: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// get performs a rate-limited GET with the configured user agent.
func (c *Collector) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Host)
	}
	return resp, nil
}
