package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kohlkopf/kohlkopf/internal/cache"
	"github.com/kohlkopf/kohlkopf/internal/logging"
	"github.com/kohlkopf/kohlkopf/internal/provider"
)

type fakeWiki struct {
	*httptest.Server
	mu        sync.Mutex
	searches  int
	summaries map[string]int
	failAll   bool
}

func summaryJSON(base, title, extract string) string {
	return fmt.Sprintf(`{
  "type": "standard",
  "title": %q,
  "description": "deutsche Punkband",
  "extract": %q,
  "thumbnail": {"source": "%s/thumb/%s.jpg", "width": 320, "height": 240},
  "originalimage": {"source": "%s/orig/%s.jpg", "width": 1600, "height": 1200},
  "content_urls": {"desktop": {"page": "%s/wiki/%s"}}
}`, strings.ReplaceAll(title, "_", " "), extract, base, title, base, title, base, title)
}

func newFakeWiki(t *testing.T) *fakeWiki {
	t.Helper()
	fw := &fakeWiki{summaries: make(map[string]int)}
	fw.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fw.mu.Lock()
		defer fw.mu.Unlock()
		if r.Header.Get("Api-User-Agent") == "" || r.Header.Get("User-Agent") == "" {
			t.Errorf("missing identification headers on %s", r.URL)
		}
		if fw.failAll {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/w/api.php":
			fw.searches++
			switch r.URL.Query().Get("srsearch") {
			case "Butterwegge":
				_, _ = w.Write([]byte(`{"query":{"search":[{"title":"Butterwegge (Band)","pageid":1},{"title":"Christoph Butterwegge","pageid":2}]}}`))
			default:
				_, _ = w.Write([]byte(`{"query":{"search":[]}}`))
			}

		case strings.HasPrefix(r.URL.Path, "/api/rest_v1/page/summary/"):
			title := strings.TrimPrefix(r.URL.Path, "/api/rest_v1/page/summary/")
			fw.summaries[title]++
			switch title {
			case "Butterwegge_(Band)":
				_, _ = w.Write([]byte(summaryJSON(fw.URL, title, "Butterwegge ist eine Punkband aus Dortmund.")))
			case "Butter":
				_, _ = w.Write([]byte(`{"type":"disambiguation","title":"Butter","extract":"Butter steht für:"}`))
			case "Broken":
				_, _ = w.Write([]byte(`{"title": `))
			default:
				w.WriteHeader(http.StatusNotFound)
			}

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(fw.Close)
	return fw
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := cache.New(cache.NewMemory(), logging.Discard())
	return New(c, logging.Discard(), WithBaseURL(baseURL), WithUserAgent("Kohlkopf/test"))
}

func TestResolveByQuery(t *testing.T) {
	fw := newFakeWiki(t)
	c := newTestClient(t, fw.URL)

	s, err := c.ResolveByQuery(context.Background(), "Butterwegge")
	if err != nil {
		t.Fatalf("ResolveByQuery: %v", err)
	}
	if s == nil {
		t.Fatal("expected a summary")
	}
	if s.Title != "Butterwegge (Band)" {
		t.Errorf("Title = %q", s.Title)
	}
	if s.Extract != "Butterwegge ist eine Punkband aus Dortmund." {
		t.Errorf("Extract = %q", s.Extract)
	}
	if s.ImageURL() != fw.URL+"/thumb/Butterwegge_(Band).jpg" {
		t.Errorf("ImageURL = %q, want thumbnail", s.ImageURL())
	}
	if s.PageURL != fw.URL+"/wiki/Butterwegge_(Band)" {
		t.Errorf("PageURL = %q", s.PageURL)
	}
}

func TestResolveByQueryEmpty(t *testing.T) {
	fw := newFakeWiki(t)
	c := newTestClient(t, fw.URL)

	for _, q := range []string{"", "  "} {
		s, err := c.ResolveByQuery(context.Background(), q)
		if err != nil || s != nil {
			t.Errorf("ResolveByQuery(%q) = %+v, %v", q, s, err)
		}
	}
	if fw.searches != 0 {
		t.Errorf("expected no requests, got %d", fw.searches)
	}
}

func TestResolveByQueryNoHitIsCached(t *testing.T) {
	fw := newFakeWiki(t)
	c := newTestClient(t, fw.URL)
	ctx := context.Background()

	for range 2 {
		s, err := c.ResolveByQuery(ctx, "Zzzznonexistentband123")
		if err != nil || s != nil {
			t.Fatalf("ResolveByQuery = %+v, %v; want nil, nil", s, err)
		}
	}
	if fw.searches != 1 {
		t.Errorf("searches = %d, want 1 (miss cached)", fw.searches)
	}
}

func TestResolveByURL(t *testing.T) {
	fw := newFakeWiki(t)
	// The client's own edition is unreachable; the URL's origin must be used.
	c := newTestClient(t, "http://127.0.0.1:1")
	ctx := context.Background()

	link := fw.URL + "/wiki/Butterwegge_(Band)"
	for range 2 {
		s, err := c.ResolveByURL(ctx, link)
		if err != nil {
			t.Fatalf("ResolveByURL: %v", err)
		}
		if s == nil || s.Title != "Butterwegge (Band)" {
			t.Fatalf("unexpected summary %+v", s)
		}
	}
	if fw.searches != 0 {
		t.Errorf("ResolveByURL must not search, searches = %d", fw.searches)
	}
	if n := fw.summaries["Butterwegge_(Band)"]; n != 1 {
		t.Errorf("summary fetches = %d, want 1 (cached)", n)
	}
}

func TestResolveByURLPercentEncoded(t *testing.T) {
	fw := newFakeWiki(t)
	c := newTestClient(t, fw.URL)

	s, err := c.ResolveByURL(context.Background(), fw.URL+"/wiki/Butterwegge_%28Band%29")
	if err != nil || s == nil {
		t.Fatalf("ResolveByURL = %+v, %v", s, err)
	}
}

func TestResolveByURLNotAnArticle(t *testing.T) {
	fw := newFakeWiki(t)
	c := newTestClient(t, fw.URL)

	s, err := c.ResolveByURL(context.Background(), fw.URL+"/w/index.php?title=X")
	if err != nil || s != nil {
		t.Errorf("ResolveByURL = %+v, %v; want nil, nil", s, err)
	}
}

func TestResolveByURLMissingPage(t *testing.T) {
	fw := newFakeWiki(t)
	c := newTestClient(t, fw.URL)

	s, err := c.ResolveByURL(context.Background(), fw.URL+"/wiki/Nope")
	if err != nil || s != nil {
		t.Errorf("ResolveByURL = %+v, %v; want nil, nil", s, err)
	}
}

func TestDisambiguationIsData(t *testing.T) {
	fw := newFakeWiki(t)
	c := newTestClient(t, fw.URL)

	s, err := c.ResolveByURL(context.Background(), fw.URL+"/wiki/Butter")
	if err != nil || s == nil {
		t.Fatalf("ResolveByURL = %+v, %v", s, err)
	}
	if s.Type != TypeDisambiguation {
		t.Errorf("Type = %q", s.Type)
	}
	if s.ImageURL() != "" {
		t.Errorf("ImageURL = %q, want empty", s.ImageURL())
	}
}

func TestTransportErrorsAreNotCached(t *testing.T) {
	fw := newFakeWiki(t)
	fw.failAll = true
	c := newTestClient(t, fw.URL)
	ctx := context.Background()

	_, err := c.ResolveByQuery(ctx, "Butterwegge")
	var unavailable *provider.ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}

	fw.mu.Lock()
	fw.failAll = false
	fw.mu.Unlock()

	s, err := c.ResolveByQuery(ctx, "Butterwegge")
	if err != nil || s == nil {
		t.Fatalf("after recovery = %+v, %v", s, err)
	}
}

func TestMalformedSummary(t *testing.T) {
	fw := newFakeWiki(t)
	c := newTestClient(t, fw.URL)

	if _, err := c.ResolveByURL(context.Background(), fw.URL+"/wiki/Broken"); err == nil {
		t.Error("expected parse error")
	}
}

func TestParseArticleURL(t *testing.T) {
	tests := []struct {
		in        string
		base      string
		title     string
		wantValid bool
	}{
		{"https://de.wikipedia.org/wiki/Butterwegge_(Band)", "https://de.wikipedia.org", "Butterwegge_(Band)", true},
		{"https://en.wikipedia.org/wiki/Die_%C3%84rzte", "https://en.wikipedia.org", "Die_Ärzte", true},
		{"https://de.wikipedia.org/wiki/AC/DC", "https://de.wikipedia.org", "AC/DC", true},
		{"//fr.wikipedia.org/wiki/X", "https://fr.wikipedia.org", "X", true},
		{"https://de.wikipedia.org/wiki/", "", "", false},
		{"https://de.wikipedia.org/w/index.php", "", "", false},
		{"not a url", "", "", false},
	}
	for _, tt := range tests {
		base, title, ok := ParseArticleURL(tt.in)
		if ok != tt.wantValid || base != tt.base || title != tt.title {
			t.Errorf("ParseArticleURL(%q) = %q, %q, %v; want %q, %q, %v",
				tt.in, base, title, ok, tt.base, tt.title, tt.wantValid)
		}
	}
}

func TestSummaryImageFallback(t *testing.T) {
	s := &Summary{OriginalImageURL: "https://upload.example/orig.png"}
	if s.ImageURL() != "https://upload.example/orig.png" {
		t.Errorf("ImageURL = %q", s.ImageURL())
	}
}
