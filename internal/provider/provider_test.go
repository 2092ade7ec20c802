package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLimiterSpacesRequests(t *testing.T) {
	const interval = 60 * time.Millisecond
	l := NewLimiter(interval)

	// The first, ungated request is recorded; the gated one must wait.
	l.Note()
	start := time.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < interval-10*time.Millisecond {
		t.Errorf("Wait returned after %s, want at least ~%s", elapsed, interval)
	}
}

func TestLimiterHonorsContext(t *testing.T) {
	l := NewLimiter(time.Hour)
	l.Note()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestHTTPClientForceIPv4(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewHTTPClient(5*time.Second, true)
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET over IPv4: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent("ops@example.com")
	if !strings.HasPrefix(ua, "Kohlkopf/") || !strings.Contains(ua, "ops@example.com") {
		t.Errorf("unexpected user agent %q", ua)
	}
	if strings.Contains(UserAgent(""), "contact") {
		t.Error("empty contact should be omitted")
	}
}

func TestErrProviderUnavailableUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	var err error = &ErrProviderUnavailable{Provider: NameMusicBrainz, Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	var unavailable *ErrProviderUnavailable
	if !errors.As(err, &unavailable) || unavailable.Provider != NameMusicBrainz {
		t.Error("expected errors.As to match")
	}
	if NameWikipedia.DisplayName() != "Wikipedia" {
		t.Errorf("DisplayName = %q", NameWikipedia.DisplayName())
	}
}
