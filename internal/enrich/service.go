// Package enrich fills a record's artist fields from MusicBrainz and
// Wikipedia and stores a local copy of the artist image.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/kohlkopf/kohlkopf/internal/image"
	"github.com/kohlkopf/kohlkopf/internal/provider/musicbrainz"
	"github.com/kohlkopf/kohlkopf/internal/provider/wikipedia"
)

// DefaultMaxDescriptionLength is the longest description stored, in runes,
// before it is cut and marked with an ellipsis.
const DefaultMaxDescriptionLength = 500

const ellipsis = "…"

// Directory resolves an artist name to a MusicBrainz match. A nil match
// with a nil error means no confident match.
type Directory interface {
	Resolve(ctx context.Context, name string) (*musicbrainz.Match, error)
}

// Encyclopedia looks up article summaries.
type Encyclopedia interface {
	ResolveByQuery(ctx context.Context, query string) (*wikipedia.Summary, error)
	ResolveByURL(ctx context.Context, articleURL string) (*wikipedia.Summary, error)
}

// ImageStore downloads and removes stored artist images.
type ImageStore interface {
	FetchAndStore(ctx context.Context, imageURL, subjectName, recordID string) (string, error)
	Delete(publicPath string) error
}

// Service runs the enrichment pipeline. It owns no cache; the provider
// clients cache their own responses.
type Service struct {
	directory    Directory
	encyclopedia Encyclopedia
	images       ImageStore
	logger       *slog.Logger
	maxDescLen   int
}

// Option configures a Service.
type Option func(*Service)

// WithMaxDescriptionLength overrides DefaultMaxDescriptionLength.
// Values below 4 are ignored.
func WithMaxDescriptionLength(n int) Option {
	return func(s *Service) {
		if n >= 4 {
			s.maxDescLen = n
		}
	}
}

// NewService creates an enrichment service.
func NewService(dir Directory, enc Encyclopedia, images ImageStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		directory:    dir,
		encyclopedia: enc,
		images:       images,
		logger:       logger.With(slog.String("component", "enrich")),
		maxDescLen:   DefaultMaxDescriptionLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enrich fills the target's artist fields. It is best effort: every
// failure is logged and leaves the affected fields untouched, and it
// never returns an error or panics.
func (s *Service) Enrich(ctx context.Context, t Target) {
	name := strings.TrimSpace(t.ArtistName())
	if name == "" {
		return
	}
	info := t.ArtistInfo()
	logger := s.logger.With(slog.String("artist", name))

	s.step(ctx, logger, "musicbrainz", func() error {
		match, err := s.directory.Resolve(ctx, name)
		if err != nil {
			return err
		}
		if match == nil {
			logger.Info("no musicbrainz match")
			return nil
		}
		info.MBID = match.MBID
		if len(match.Genres) > 0 {
			info.Genres = append([]string(nil), match.Genres...)
		}
		if match.WikipediaURL != "" {
			info.WikipediaURL = match.WikipediaURL
		}
		return nil
	})

	var summary *wikipedia.Summary
	s.step(ctx, logger, "wikipedia", func() error {
		var src summarySource
		summary, src = s.resolveSummary(ctx, logger, name, info.WikipediaURL)
		if summary == nil {
			logger.Info("no wikipedia summary")
			return nil
		}
		if !src.fromURL && summary.PageURL != "" {
			info.WikipediaURL = summary.PageURL
		}
		if summary.Extract != "" {
			info.Description = TruncateDescription(summary.Extract, s.maxDescLen)
		}
		return nil
	})

	if summary == nil {
		return
	}
	imageURL := summary.ImageURL()
	if imageURL == "" {
		logger.Info("no image in wikipedia summary")
		return
	}
	s.step(ctx, logger, "image", func() error {
		path, err := s.images.FetchAndStore(ctx, imageURL, name, t.RecordID())
		if err != nil {
			return err
		}
		if path != "" {
			info.Image = path
		}
		return nil
	})
}

// ReEnrich removes the stored image, clears all artist fields and runs
// Enrich again.
func (s *Service) ReEnrich(ctx context.Context, t Target) {
	info := t.ArtistInfo()
	s.DeleteImage(info.Image)
	info.Clear()
	s.Enrich(ctx, t)
}

// DeleteImage removes a stored image. Empty or missing paths are ignored
// and failures are logged.
func (s *Service) DeleteImage(publicPath string) {
	if publicPath == "" {
		return
	}
	if err := s.images.Delete(publicPath); err != nil {
		s.logger.Log(context.Background(), failureLevel(err), "deleting artist image failed",
			slog.String("path", publicPath),
			slog.String("error", err.Error()))
	}
}

// step runs fn, logging a returned error or a recovered panic. Storage
// failures are logged as errors, provider failures as warnings.
func (s *Service) step(ctx context.Context, logger *slog.Logger, name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("enrichment step panicked",
				slog.String("step", name),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()
	if err := fn(); err != nil {
		logger.Log(ctx, failureLevel(err), "enrichment step failed",
			slog.String("step", name),
			slog.String("error", err.Error()))
	}
}

func failureLevel(err error) slog.Level {
	if errors.Is(err, image.ErrStorage) {
		return slog.LevelError
	}
	return slog.LevelWarn
}

// TruncateDescription shortens s when it has more than limit runes: the
// first limit-3 runes are kept and an ellipsis is appended.
func TruncateDescription(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := max(limit-3, 0)
	return string([]rune(s)[:keep]) + ellipsis
}
