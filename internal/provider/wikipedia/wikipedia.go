// Package wikipedia looks up short page summaries on Wikipedia, either by
// free-text search or from an exact article URL.
package wikipedia

import (
	"context"
	"crypto/sha1" //nolint:gosec // cache key derivation, not security
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kohlkopf/kohlkopf/internal/cache"
	"github.com/kohlkopf/kohlkopf/internal/provider"
)

const (
	defaultBaseURL = "https://de.wikipedia.org"
	cacheTTL       = 7 * 24 * time.Hour
	searchLimit    = 5
)

// Client talks to the MediaWiki Action API and the REST summary endpoint.
type Client struct {
	client    *http.Client
	cache     *cache.Cache
	logger    *slog.Logger
	baseURL   string
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the edition searched by ResolveByQuery.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithUserAgent sets the identifying User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a Wikipedia client caching through c.
func New(c *cache.Cache, logger *slog.Logger, opts ...Option) *Client {
	cl := &Client{
		client:    provider.NewHTTPClient(15*time.Second, false),
		cache:     c,
		logger:    logger.With(slog.String("provider", string(provider.NameWikipedia))),
		baseURL:   defaultBaseURL,
		userAgent: provider.UserAgent(""),
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

func hashKey(prefix, s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec
	return prefix + hex.EncodeToString(sum[:])
}

// ResolveByQuery searches the configured edition and summarizes the first
// hit. Results, including misses, are cached for a week.
func (c *Client) ResolveByQuery(ctx context.Context, query string) (*Summary, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}

	key := hashKey("wiki_artist_", strings.ToLower(q))
	return cache.Remember(ctx, c.cache, key, func(ctx context.Context) (*Summary, time.Duration, error) {
		title, err := c.findBestTitle(ctx, q)
		if err != nil {
			return nil, 0, err
		}
		if title == "" {
			c.logger.Info("no page found", slog.String("query", q))
			return nil, cacheTTL, nil
		}
		s, err := c.fetchSummary(ctx, c.baseURL, title)
		if err != nil {
			return nil, 0, err
		}
		return s, cacheTTL, nil
	})
}

// ResolveByURL summarizes the article an exact URL points at, on whatever
// edition the URL names. It never searches.
func (c *Client) ResolveByURL(ctx context.Context, rawURL string) (*Summary, error) {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return nil, nil
	}

	return cache.Remember(ctx, c.cache, hashKey("wiki_url_", u), func(ctx context.Context) (*Summary, time.Duration, error) {
		base, title, ok := ParseArticleURL(u)
		if !ok {
			c.logger.Warn("not an article url", slog.String("url", u))
			return nil, cacheTTL, nil
		}
		s, err := c.fetchSummary(ctx, base, title)
		if err != nil {
			return nil, 0, err
		}
		return s, cacheTTL, nil
	})
}

// ParseArticleURL splits an article URL such as
// https://de.wikipedia.org/wiki/Butterwegge_(Band) into its origin and the
// decoded page title.
func ParseArticleURL(raw string) (base, title string, ok bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	_, title, found := strings.Cut(u.Path, "/wiki/")
	if !found || title == "" {
		return "", "", false
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host, title, true
}

func (c *Client) findBestTitle(ctx context.Context, q string) (string, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {q},
		"format":   {"json"},
		"srlimit":  {fmt.Sprint(searchLimit)},
	}
	body, err := c.doRequest(ctx, c.baseURL+"/w/api.php?"+params.Encode())
	if err != nil {
		return "", err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &provider.ErrProviderUnavailable{
			Provider: provider.NameWikipedia,
			Cause:    fmt.Errorf("parsing search response: %w", err),
		}
	}
	if len(resp.Query.Search) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Query.Search[0].Title), nil
}

func (c *Client) fetchSummary(ctx context.Context, base, title string) (*Summary, error) {
	reqURL := base + "/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	body, err := c.doRequest(ctx, reqURL)
	if err != nil {
		var notFound *provider.ErrNotFound
		if errors.As(err, &notFound) {
			c.logger.Info("page has no summary", slog.String("title", title))
			return nil, nil
		}
		return nil, err
	}

	var s summaryResponse
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameWikipedia,
			Cause:    fmt.Errorf("parsing summary response: %w", err),
		}
	}

	out := &Summary{
		Title:       s.Title,
		Type:        s.Type,
		Description: s.Description,
		Extract:     s.Extract,
		PageURL:     s.ContentURLs.Desktop.Page,
	}
	if out.Title == "" {
		out.Title = title
	}
	if s.Thumbnail != nil {
		out.ThumbnailURL = s.Thumbnail.Source
	}
	if s.OriginalImage != nil {
		out.OriginalImageURL = s.OriginalImage.Source
	}
	if out.Type == TypeDisambiguation {
		c.logger.Info("summary is a disambiguation page", slog.String("title", out.Title))
	}
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Api-User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := c.client.Do(req) //nolint:gosec // URL built from configured base or a provider link
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{Provider: provider.NameWikipedia, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrNotFound{Provider: provider.NameWikipedia, ID: reqURL}
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameWikipedia,
			Cause:    fmt.Errorf("unexpected HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{Provider: provider.NameWikipedia, Cause: err}
	}
	return body, nil
}
