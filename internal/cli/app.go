package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kohlkopf/kohlkopf/internal/cache"
	"github.com/kohlkopf/kohlkopf/internal/concert"
	"github.com/kohlkopf/kohlkopf/internal/config"
	"github.com/kohlkopf/kohlkopf/internal/database"
	"github.com/kohlkopf/kohlkopf/internal/enrich"
	"github.com/kohlkopf/kohlkopf/internal/image"
	"github.com/kohlkopf/kohlkopf/internal/logging"
	"github.com/kohlkopf/kohlkopf/internal/provider"
	"github.com/kohlkopf/kohlkopf/internal/provider/musicbrainz"
	"github.com/kohlkopf/kohlkopf/internal/provider/wikipedia"
)

const defaultConfigPath = "kohlkopf.yaml"

// app holds the services a command works with.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sql.DB
	concerts *concert.Service
	enricher *enrich.Service
	closers  []io.Closer
}

func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	if p := os.Getenv("KK_CONFIG_PATH"); p != "" {
		return p
	}
	return defaultConfigPath
}

// openApp loads configuration and wires storage, cache and providers.
func openApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return nil, err
	}

	logger, logCloser := logging.New(loggingConfig(cfg.Logging), cmd.ErrOrStderr())
	a := &app{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	db, err := database.Open(ctx, cfg.Database.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db)
	if err := database.Migrate(ctx, db); err != nil {
		a.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	store, err := a.openCacheStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	c := cache.New(store, logger)

	// Only MusicBrainz is pinned to IPv4; Wikipedia and image hosts use
	// whatever the resolver returns.
	mbClient := provider.NewHTTPClient(cfg.Providers.Timeout, cfg.Providers.ForceIPv4)
	webClient := provider.NewHTTPClient(cfg.Providers.Timeout, false)
	ua := provider.UserAgent(cfg.Providers.Contact)

	mb := musicbrainz.New(c, logger,
		musicbrainz.WithBaseURL(cfg.Providers.MusicBrainzURL),
		musicbrainz.WithHTTPClient(mbClient),
		musicbrainz.WithUserAgent(ua),
		musicbrainz.WithGroupScoreMargin(cfg.Enrichment.GroupScoreMargin),
		musicbrainz.WithLanguages(cfg.Providers.Languages))
	wiki := wikipedia.New(c, logger,
		wikipedia.WithBaseURL(cfg.Providers.WikipediaURL),
		wikipedia.WithHTTPClient(webClient),
		wikipedia.WithUserAgent(ua))
	images, err := image.NewFetcher(cfg.Storage.PublicDir, cfg.Storage.ImageDir, logger,
		image.WithHTTPClient(webClient),
		image.WithUserAgent(ua))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.concerts = concert.NewService(db)
	a.enricher = enrich.NewService(mb, wiki, images, logger,
		enrich.WithMaxDescriptionLength(cfg.Enrichment.MaxDescriptionLength))
	return a, nil
}

func loggingConfig(lc config.LoggingConfig) logging.Config {
	return logging.Config{
		Level:          lc.Level,
		Format:         lc.Format,
		FilePath:       lc.FilePath,
		FileMaxSizeMB:  lc.FileMaxSizeMB,
		FileMaxFiles:   lc.FileMaxFiles,
		FileMaxAgeDays: lc.FileMaxAgeDays,
	}
}

func (a *app) openCacheStore(ctx context.Context) (cache.Store, error) {
	switch a.cfg.Cache.Backend {
	case config.CacheMemory:
		return cache.NewMemory(), nil
	case config.CacheRedis:
		r, err := cache.NewRedis(a.cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, r)
		if err := r.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return r, nil
	default:
		s := cache.NewSQLite(a.db)
		if n, err := s.Purge(ctx); err != nil {
			a.logger.Warn("purging expired cache entries", slog.String("error", err.Error()))
		} else if n > 0 {
			a.logger.Debug("purged expired cache entries", slog.Int64("count", n))
		}
		return s, nil
	}
}

// recordTimeout bounds enrichment of a single record: two MusicBrainz
// requests, up to three Wikipedia requests and one image download.
func (a *app) recordTimeout() time.Duration {
	return 6 * a.cfg.Providers.Timeout
}

func (a *app) enrich(ctx context.Context, c *concert.Concert, force bool) {
	ctx, cancel := context.WithTimeout(ctx, a.recordTimeout())
	defer cancel()
	if force {
		a.enricher.ReEnrich(ctx, c)
		return
	}
	a.enricher.Enrich(ctx, c)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil && a.logger != nil {
		a.logger.Warn("closing resources", slog.String("error", err.Error()))
	}
}
