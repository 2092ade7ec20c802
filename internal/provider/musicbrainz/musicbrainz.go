package musicbrainz

import (
	"context"
	"crypto/sha1" //nolint:gosec // cache key derivation, not security
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kohlkopf/kohlkopf/internal/cache"
	"github.com/kohlkopf/kohlkopf/internal/provider"
)

const (
	defaultBaseURL = "https://musicbrainz.org/ws/2"

	// DefaultGroupScoreMargin is how many search-score points a group may
	// trail the top candidate and still be chosen. Tunable policy, not a law.
	DefaultGroupScoreMargin = 20

	hitTTL      = 7 * 24 * time.Hour
	missTTL     = time.Hour
	searchLimit = 5
	maxGenres   = 5
)

// DefaultLanguages is the Wikipedia edition preference for cross-reference links.
var DefaultLanguages = []string{"de", "en"}

// Client resolves free-text artist names against MusicBrainz.
type Client struct {
	client    *http.Client
	limiter   *provider.Limiter
	cache     *cache.Cache
	logger    *slog.Logger
	baseURL   string
	userAgent string
	margin    int
	languages []string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithLimiter sets the limiter gating the detail lookup.
func WithLimiter(l *provider.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithUserAgent sets the identifying User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithGroupScoreMargin overrides DefaultGroupScoreMargin.
func WithGroupScoreMargin(n int) Option {
	return func(c *Client) { c.margin = n }
}

// WithLanguages sets the Wikipedia edition preference, most preferred first.
func WithLanguages(langs []string) Option {
	return func(c *Client) {
		if len(langs) > 0 {
			c.languages = langs
		}
	}
}

// New creates a MusicBrainz client caching through c.
func New(c *cache.Cache, logger *slog.Logger, opts ...Option) *Client {
	cl := &Client{
		client:    provider.NewHTTPClient(15*time.Second, true),
		limiter:   provider.NewLimiter(provider.MusicBrainzInterval),
		cache:     c,
		logger:    logger.With(slog.String("provider", string(provider.NameMusicBrainz))),
		baseURL:   defaultBaseURL,
		userAgent: provider.UserAgent(""),
		margin:    DefaultGroupScoreMargin,
		languages: DefaultLanguages,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// CacheKey returns the cache key for a query.
func CacheKey(query string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(query)))) //nolint:gosec
	return "mb_artist_" + hex.EncodeToString(sum[:])
}

// Resolve finds the artist best matching query. A nil match with a nil
// error means MusicBrainz knows no such artist; that answer is cached for
// an hour, a match for a week. Errors are not cached.
func (c *Client) Resolve(ctx context.Context, query string) (*Match, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}

	return cache.Remember(ctx, c.cache, CacheKey(q), func(ctx context.Context) (*Match, time.Duration, error) {
		mbid, err := c.findBestMBID(ctx, q)
		if err != nil {
			return nil, 0, err
		}
		if mbid == "" {
			c.logger.Info("no artist found", slog.String("query", q))
			return nil, missTTL, nil
		}

		// Search and lookup together must stay under 1 req/s.
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, &provider.ErrProviderUnavailable{
				Provider: provider.NameMusicBrainz,
				Cause:    fmt.Errorf("rate limiter: %w", err),
			}
		}

		m, err := c.lookup(ctx, mbid)
		if err != nil {
			return nil, 0, err
		}
		return m, hitTTL, nil
	})
}

func (c *Client) findBestMBID(ctx context.Context, q string) (string, error) {
	params := url.Values{
		"query": {q},
		"fmt":   {"json"},
		"limit": {fmt.Sprint(searchLimit)},
	}
	// The search itself is not gated, but the lookup after it must wait.
	c.limiter.Note()
	body, err := c.doRequest(ctx, c.baseURL+"/artist/?"+params.Encode())
	if err != nil {
		return "", err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &provider.ErrProviderUnavailable{
			Provider: provider.NameMusicBrainz,
			Cause:    fmt.Errorf("parsing search response: %w", err),
		}
	}

	chosen, top, ok := chooseCandidate(resp.Artists, c.margin)
	if !ok {
		return "", nil
	}
	if chosen.ID != top.ID {
		c.logger.Info("chose group over top result",
			slog.String("query", q),
			slog.String("group_mbid", chosen.ID),
			slog.Int("group_score", chosen.Score),
			slog.Int("top_score", top.Score),
			slog.String("top_type", top.Type))
	}
	return chosen.ID, nil
}

// chooseCandidate applies the group preference: the best-scored group wins
// when it trails the best-scored candidate by at most margin points. It also
// returns the overall best so callers can tell whether the preference fired.
func chooseCandidate(artists []MBArtist, margin int) (chosen, top MBArtist, ok bool) {
	var group MBArtist
	var haveTop, haveGroup bool
	for _, a := range artists {
		if a.ID == "" {
			continue
		}
		if !haveTop || a.Score > top.Score {
			top, haveTop = a, true
		}
		if kindOf(a.Type) == KindGroup && (!haveGroup || a.Score > group.Score) {
			group, haveGroup = a, true
		}
	}
	if !haveTop {
		return MBArtist{}, MBArtist{}, false
	}
	if haveGroup && top.Score-group.Score <= margin {
		return group, top, true
	}
	return top, top, true
}

func (c *Client) lookup(ctx context.Context, mbid string) (*Match, error) {
	params := url.Values{
		"inc": {"url-rels+tags+genres"},
		"fmt": {"json"},
	}
	body, err := c.doRequest(ctx, c.baseURL+"/artist/"+url.PathEscape(mbid)+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var artist MBArtist
	if err := json.Unmarshal(body, &artist); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameMusicBrainz,
			Cause:    fmt.Errorf("parsing artist response: %w", err),
		}
	}

	m := &Match{
		MBID:           mbid,
		Name:           artist.Name,
		Kind:           kindOf(artist.Type),
		Genres:         extractGenres(&artist),
		WikipediaURL:   extractWikipediaURL(artist.Relations, c.languages),
		Disambiguation: artist.Disambiguation,
	}

	c.logger.Info("artist resolved",
		slog.String("mbid", mbid),
		slog.String("name", m.Name),
		slog.String("genres", strings.Join(m.Genres, ", ")),
		slog.Bool("has_wikipedia", m.WikipediaURL != ""))
	return m, nil
}

// doRequest executes an HTTP GET with standard headers.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := c.client.Do(req) //nolint:gosec // URL built from configured base
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{Provider: provider.NameMusicBrainz, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrNotFound{Provider: provider.NameMusicBrainz, ID: reqURL}
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider:   provider.NameMusicBrainz,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
			RetryAfter: 2 * time.Second,
		}
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameMusicBrainz,
			Cause:    fmt.Errorf("unexpected HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{Provider: provider.NameMusicBrainz, Cause: err}
	}
	return body, nil
}

// extractGenres prefers curated genres over community tags, each ranked by
// vote count.
func extractGenres(a *MBArtist) []string {
	if names := topNames(a.Genres); len(names) > 0 {
		return names
	}
	return topNames(a.Tags)
}

func topNames(tags []MBTag) []string {
	ranked := make([]MBTag, 0, len(tags))
	for _, t := range tags {
		if strings.TrimSpace(t.Name) != "" {
			ranked = append(ranked, t)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })

	var names []string
	for _, t := range ranked {
		if len(names) == maxGenres {
			break
		}
		names = append(names, t.Name)
	}
	return names
}

// extractWikipediaURL picks the wikipedia relation for the most preferred
// language edition, falling back to the first link of any other edition.
func extractWikipediaURL(rels []MBRelation, languages []string) string {
	byHost := make(map[string]string)
	var first string
	for _, rel := range rels {
		if rel.Type != "wikipedia" || rel.URL == nil || rel.URL.Resource == "" {
			continue
		}
		u, err := url.Parse(rel.URL.Resource)
		if err != nil {
			continue
		}
		host := strings.ToLower(u.Hostname())
		if _, seen := byHost[host]; !seen {
			byHost[host] = rel.URL.Resource
		}
		if first == "" {
			first = rel.URL.Resource
		}
	}
	for _, lang := range languages {
		if link, ok := byHost[lang+".wikipedia.org"]; ok {
			return link
		}
	}
	return first
}

func kindOf(mbType string) Kind {
	switch mbType {
	case "Group", "Orchestra", "Choir":
		return KindGroup
	case "Person":
		return KindPerson
	case "":
		return KindUnknown
	default:
		return KindOther
	}
}
