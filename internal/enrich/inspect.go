package enrich

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kohlkopf/kohlkopf/internal/provider/musicbrainz"
)

// Report is the outcome of a dry run for one artist name.
type Report struct {
	Name string

	MusicBrainzFound bool
	MusicBrainzName  string
	MBID             string
	Kind             musicbrainz.Kind
	Genres           []string
	// MusicBrainzWikipediaURL is the article linked from MusicBrainz, if any.
	MusicBrainzWikipediaURL string

	WikipediaFound bool
	WikipediaTitle string
	// WikipediaDescription is the short page description, not the extract.
	WikipediaDescription string
	HasImage             bool
	// WikipediaURL is the article URL enrichment would store.
	WikipediaURL string
	// Source is SourceMusicBrainzURL or SourceSearch when a summary was found.
	Source string
}

// Inspect runs the lookups Enrich would run without downloading images or
// touching any record. Provider responses are still cached.
func (s *Service) Inspect(ctx context.Context, name string) *Report {
	name = strings.TrimSpace(name)
	r := &Report{Name: name}
	if name == "" {
		return r
	}
	logger := s.logger.With(slog.String("artist", name), slog.Bool("dry_run", true))

	s.step(ctx, logger, "musicbrainz", func() error {
		match, err := s.directory.Resolve(ctx, name)
		if err != nil || match == nil {
			return err
		}
		r.MusicBrainzFound = true
		r.MusicBrainzName = match.Name
		r.MBID = match.MBID
		r.Kind = match.Kind
		r.Genres = match.Genres
		r.MusicBrainzWikipediaURL = match.WikipediaURL
		r.WikipediaURL = match.WikipediaURL
		return nil
	})

	s.step(ctx, logger, "wikipedia", func() error {
		summary, src := s.resolveSummary(ctx, logger, name, r.MusicBrainzWikipediaURL)
		if summary == nil {
			return nil
		}
		r.WikipediaFound = true
		r.WikipediaTitle = summary.Title
		r.WikipediaDescription = summary.Description
		r.HasImage = summary.ImageURL() != ""
		r.Source = src.label
		if !src.fromURL {
			r.WikipediaURL = summary.PageURL
		}
		return nil
	})

	return r
}

// GenreList joins the genres for display.
func (r *Report) GenreList() string {
	return strings.Join(r.Genres, ", ")
}

// TitleDiffers reports whether the article found has a different title
// than the name searched for.
func (r *Report) TitleDiffers() bool {
	return r.WikipediaFound && !strings.EqualFold(r.WikipediaTitle, r.Name)
}
