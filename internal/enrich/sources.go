package enrich

import (
	"context"
	"log/slog"

	"github.com/kohlkopf/kohlkopf/internal/provider/wikipedia"
)

// Summary source labels, as shown by Inspect.
const (
	SourceMusicBrainzURL = "via MusicBrainz URL"
	SourceSearch         = "search fallback"
)

type summarySource struct {
	label   string
	fromURL bool
	resolve func(ctx context.Context) (*wikipedia.Summary, error)
}

// summarySources lists the lookups to try in order: the exact article
// linked from MusicBrainz, then a search by name.
func (s *Service) summarySources(name, articleURL string) []summarySource {
	var sources []summarySource
	if articleURL != "" {
		sources = append(sources, summarySource{
			label:   SourceMusicBrainzURL,
			fromURL: true,
			resolve: func(ctx context.Context) (*wikipedia.Summary, error) {
				return s.encyclopedia.ResolveByURL(ctx, articleURL)
			},
		})
	}
	sources = append(sources, summarySource{
		label: SourceSearch,
		resolve: func(ctx context.Context) (*wikipedia.Summary, error) {
			return s.encyclopedia.ResolveByQuery(ctx, name)
		},
	})
	return sources
}

// resolveSummary returns the first summary found. A failing source is
// logged and skipped.
func (s *Service) resolveSummary(ctx context.Context, logger *slog.Logger, name, articleURL string) (*wikipedia.Summary, summarySource) {
	for _, src := range s.summarySources(name, articleURL) {
		summary, err := src.resolve(ctx)
		if err != nil {
			logger.Warn("wikipedia lookup failed",
				slog.String("source", src.label),
				slog.String("error", err.Error()))
			continue
		}
		if summary != nil {
			return summary, src
		}
	}
	return nil, summarySource{}
}
