package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kohlkopf/kohlkopf/internal/cache"
	"github.com/kohlkopf/kohlkopf/internal/image"
	"github.com/kohlkopf/kohlkopf/internal/logging"
	"github.com/kohlkopf/kohlkopf/internal/provider"
	"github.com/kohlkopf/kohlkopf/internal/provider/musicbrainz"
	"github.com/kohlkopf/kohlkopf/internal/provider/wikipedia"
)

const (
	bandMBID   = "b7e1d0aa-3f52-4e8e-8f0c-2a4d6c9e1f22"
	bandRecord = "3f2a9c1e-5b6d-4e7f-8a9b-0c1d2e3f4a5b"
)

const searchBody = `{"count":2,"offset":0,"artists":[
  {"id":"5f2c1c3e-1d9b-4c1a-9a55-0b7f3e6d9a01","type":"Person","score":95,"name":"Christoph Butterwegge"},
  {"id":"` + bandMBID + `","type":"Group","score":88,"name":"Butterwegge"}
]}`

const artistBody = `{"id":"` + bandMBID + `","name":"Butterwegge","type":"Group",
  "genres":[{"name":"Indie","count":2},{"name":"Punk","count":5}],
  "relations":[
    {"type":"wikipedia","target-type":"url","url":{"resource":"https://en.wikipedia.org/wiki/Butterwegge_(band)"}},
    {"type":"wikipedia","target-type":"url","url":{"resource":"https://de.wikipedia.org/wiki/Butterwegge_(Band)"}}
  ]}`

// internet serves every host the pipeline talks to from one test server.
type internet struct {
	srv  *httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func (n *internet) count(key string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.hits[key]
}

func newInternet(t *testing.T) *internet {
	t.Helper()
	extract := strings.Repeat("x", 550)
	n := &internet{hits: make(map[string]int)}
	n.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Header.Get("X-Original-Host")
		key := host + r.URL.Path
		n.mu.Lock()
		n.hits[key]++
		n.mu.Unlock()

		switch {
		case host == "musicbrainz.org" && r.URL.Path == "/ws/2/artist/":
			if r.URL.Query().Get("query") == "Butterwegge" {
				fmt.Fprint(w, searchBody)
				return
			}
			fmt.Fprint(w, `{"count":0,"offset":0,"artists":[]}`)
		case host == "musicbrainz.org" && r.URL.Path == "/ws/2/artist/"+bandMBID:
			fmt.Fprint(w, artistBody)
		case host == "de.wikipedia.org" && r.URL.Path == "/api/rest_v1/page/summary/Butterwegge_(Band)":
			fmt.Fprintf(w, `{"type":"standard","title":"Butterwegge (Band)","extract":%q,
				"thumbnail":{"source":"https://upload.wikimedia.org/thumb/butterwegge.jpg"},
				"originalimage":{"source":"https://upload.wikimedia.org/orig/butterwegge.jpg"},
				"content_urls":{"desktop":{"page":"https://de.wikipedia.org/wiki/Butterwegge_(Band)"}}}`, extract)
		case host == "de.wikipedia.org" && r.URL.Path == "/w/api.php":
			fmt.Fprint(w, `{"query":{"search":[]}}`)
		case host == "upload.wikimedia.org" && r.URL.Path == "/thumb/butterwegge.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(n.srv.Close)
	return n
}

// client returns an HTTP client that sends every request to the test server.
func (n *internet) client() *http.Client {
	target, _ := url.Parse(n.srv.URL)
	return &http.Client{Transport: rewriteTransport{target: target}}
}

type rewriteTransport struct{ target *url.URL }

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Header.Set("X-Original-Host", req.URL.Hostname())
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	out.Host = ""
	return http.DefaultTransport.RoundTrip(out)
}

func newPipeline(t *testing.T, n *internet) (*Service, string) {
	t.Helper()
	hc := n.client()
	logger := logging.Discard()

	mb := musicbrainz.New(cache.New(cache.NewMemory(), logger), logger,
		musicbrainz.WithBaseURL("https://musicbrainz.org/ws/2"),
		musicbrainz.WithHTTPClient(hc),
		musicbrainz.WithLimiter(provider.NewLimiter(time.Millisecond)),
		musicbrainz.WithLanguages([]string{"de", "en"}))
	wiki := wikipedia.New(cache.New(cache.NewMemory(), logger), logger,
		wikipedia.WithBaseURL("https://de.wikipedia.org"),
		wikipedia.WithHTTPClient(hc))

	public := t.TempDir()
	images, err := image.NewFetcher(public, "images/artists", logger, image.WithHTTPClient(hc))
	if err != nil {
		t.Fatal(err)
	}
	return NewService(mb, wiki, images, logger), public
}

func TestPipelineButterwegge(t *testing.T) {
	n := newInternet(t)
	svc, public := newPipeline(t, n)

	r := &record{id: bandRecord, name: "Butterwegge"}
	svc.Enrich(context.Background(), r)

	if r.info.MBID != bandMBID {
		t.Errorf("MBID = %q, want the group's id", r.info.MBID)
	}
	if strings.Join(r.info.Genres, ",") != "Punk,Indie" {
		t.Errorf("Genres = %v", r.info.Genres)
	}
	if r.info.WikipediaURL != "https://de.wikipedia.org/wiki/Butterwegge_(Band)" {
		t.Errorf("WikipediaURL = %q", r.info.WikipediaURL)
	}
	if len(r.info.Description) != 500 || !strings.HasSuffix(r.info.Description, "…") {
		t.Errorf("Description has %d bytes, want 500 ending in an ellipsis", len(r.info.Description))
	}
	if r.info.Image != "/images/artists/butterwegge-3f2a9c1e.jpg" {
		t.Errorf("Image = %q", r.info.Image)
	}
	if _, err := os.Stat(filepath.Join(public, "images", "artists", "butterwegge-3f2a9c1e.jpg")); err != nil {
		t.Errorf("image not stored: %v", err)
	}
	if n.count("de.wikipedia.org/w/api.php") != 0 {
		t.Error("search should not run when the linked article exists")
	}

	// Second run is served from the provider caches.
	first := r.info
	svc.Enrich(context.Background(), r)
	if !r.info.Equal(first) {
		t.Errorf("second run changed fields: %+v", r.info)
	}
	if got := n.count("musicbrainz.org/ws/2/artist/"); got != 1 {
		t.Errorf("musicbrainz searches = %d, want 1", got)
	}
	if got := n.count("de.wikipedia.org/api/rest_v1/page/summary/Butterwegge_(Band)"); got != 1 {
		t.Errorf("summary fetches = %d, want 1", got)
	}

	svc.ReEnrich(context.Background(), r)
	if !r.info.Equal(first) {
		t.Errorf("re-enrich should restore the same fields: %+v", r.info)
	}
}

func TestPipelineUnknownArtist(t *testing.T) {
	n := newInternet(t)
	svc, public := newPipeline(t, n)

	r := &record{id: "r1", name: "Zzzznonexistentband123"}
	svc.Enrich(context.Background(), r)

	if !r.info.Equal(ArtistInfo{}) {
		t.Errorf("info = %+v, want empty", r.info)
	}
	svc.DeleteImage(r.info.Image)

	entries, err := os.ReadDir(public)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("public dir should be untouched, has %d entries", len(entries))
	}
}
