// Package image downloads artist images and manages the stored files.
package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/kohlkopf/kohlkopf/internal/filesystem"
	"github.com/kohlkopf/kohlkopf/internal/provider"
)

// MaxImageBytes caps how much of a response body is read.
const MaxImageBytes = 10 << 20

// ErrStorage marks failures writing or removing files under the public
// directory, as opposed to download failures.
var ErrStorage = errors.New("image storage failed")

// Fetcher downloads images into <publicDir>/<imageDir> and hands back the
// public path under which they are served.
type Fetcher struct {
	client    *http.Client
	logger    *slog.Logger
	publicDir string
	imageDir  string
	userAgent string
	now       func() time.Time
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client used for downloads.
func WithHTTPClient(hc *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = hc }
}

// WithUserAgent sets the User-Agent header sent with downloads.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithClock overrides the clock used for fallback filename suffixes.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) { f.now = now }
}

// NewFetcher creates a Fetcher. publicDir must be set; imageDir is relative
// to it and defaults to images/artists.
func NewFetcher(publicDir, imageDir string, logger *slog.Logger, opts ...FetcherOption) (*Fetcher, error) {
	if strings.TrimSpace(publicDir) == "" {
		return nil, errors.New("image fetcher: public directory is required")
	}
	imageDir = strings.Trim(filepath.ToSlash(imageDir), "/")
	if imageDir == "" {
		imageDir = "images/artists"
	}
	f := &Fetcher{
		client:    provider.NewHTTPClient(30*time.Second, false),
		logger:    logger.With(slog.String("component", "image")),
		publicDir: filepath.Clean(publicDir),
		imageDir:  imageDir,
		userAgent: provider.UserAgent(""),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// FetchAndStore downloads imageURL and stores it under a name derived from
// subjectName and recordID. A non-2xx response or an empty body yields
// ("", nil). The returned path starts with "/" and is relative to the
// public directory.
func (f *Fetcher) FetchAndStore(ctx context.Context, imageURL, subjectName, recordID string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating image request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("image download failed", slog.String("url", imageURL), slog.String("error", err.Error()))
		return "", fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Info("image not available",
			slog.String("url", imageURL),
			slog.Int("status", resp.StatusCode))
		return "", nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading image body: %w", err)
	}
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}
	if len(data) == 0 {
		f.logger.Info("image body empty", slog.String("url", imageURL))
		return "", nil
	}

	ext := Extension(resp.Header.Get("Content-Type"), imageURL, data)
	name := Filename(subjectName, recordID, ext, f.now())
	target := filepath.Join(f.publicDir, filepath.FromSlash(f.imageDir), name)

	if err := filesystem.WriteFileAtomic(target, data, 0o644); err != nil {
		f.logger.Error("storing image failed", slog.String("path", target), slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: storing image: %w", ErrStorage, err)
	}

	attrs := []any{slog.String("path", target), slog.Int("bytes", len(data))}
	if w, h, err := Dimensions(data); err == nil {
		attrs = append(attrs, slog.Int("width", w), slog.Int("height", h))
	}
	f.logger.Info("stored artist image", attrs...)

	return "/" + f.imageDir + "/" + name, nil
}

// Delete removes a file previously returned by FetchAndStore. An empty path
// or a file that no longer exists is not an error. Paths that resolve
// outside the public directory are rejected.
func (f *Fetcher) Delete(publicPath string) error {
	if strings.TrimSpace(publicPath) == "" {
		return nil
	}
	target, err := f.resolve(publicPath)
	if err != nil {
		return err
	}
	removed, err := filesystem.RemoveIfExists(target)
	if err != nil {
		f.logger.Error("deleting image failed", slog.String("path", target), slog.String("error", err.Error()))
		return fmt.Errorf("%w: deleting image: %w", ErrStorage, err)
	}
	if removed {
		f.logger.Info("deleted artist image", slog.String("path", target))
	}
	return nil
}

func (f *Fetcher) resolve(publicPath string) (string, error) {
	rel := filepath.FromSlash(strings.TrimLeft(publicPath, "/"))
	target := filepath.Join(f.publicDir, rel)
	within, err := filepath.Rel(f.publicDir, target)
	if err != nil || within == "." || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("image path %q escapes the public directory", publicPath)
	}
	return target, nil
}
