package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Cache      CacheConfig      `yaml:"cache"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig describes where downloaded artist images are written.
// Images land in PublicDir/ImageDir and are referenced as /ImageDir/<file>.
type StorageConfig struct {
	PublicDir string `yaml:"public_dir"`
	ImageDir  string `yaml:"image_dir"`
}

// CacheConfig selects the provider response cache backend.
type CacheConfig struct {
	Backend  string `yaml:"backend"`
	RedisURL string `yaml:"redis_url"`
}

// ProvidersConfig holds settings for the external metadata providers.
type ProvidersConfig struct {
	Contact        string        `yaml:"user_agent_contact"`
	MusicBrainzURL string        `yaml:"musicbrainz_url"`
	WikipediaURL   string        `yaml:"wikipedia_url"`
	Languages      []string      `yaml:"languages"`
	ForceIPv4      bool          `yaml:"force_ipv4"`
	Timeout        time.Duration `yaml:"timeout"`
}

// EnrichmentConfig holds the tunable enrichment policy.
type EnrichmentConfig struct {
	GroupScoreMargin     int `yaml:"group_score_margin"`
	MaxDescriptionLength int `yaml:"max_description_length"`
}

// LoggingConfig holds logging settings. The file rotation limits apply only
// when FilePath is set; zero means the logging package default.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file_path"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "data/kohlkopf.db",
		},
		Storage: StorageConfig{
			PublicDir: "public",
			ImageDir:  "images/artists",
		},
		Cache: CacheConfig{
			Backend: CacheSQLite,
		},
		Providers: ProvidersConfig{
			Contact:        "kohlkopf@example.com",
			MusicBrainzURL: "https://musicbrainz.org/ws/2",
			WikipediaURL:   "https://de.wikipedia.org",
			Languages:      []string{"de", "en"},
			ForceIPv4:      true,
			Timeout:        15 * time.Second,
		},
		Enrichment: EnrichmentConfig{
			GroupScoreMargin:     20,
			MaxDescriptionLength: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator supplied
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("KK_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("KK_PUBLIC_DIR"); v != "" {
		c.Storage.PublicDir = v
	}
	if v := os.Getenv("KK_IMAGE_DIR"); v != "" {
		c.Storage.ImageDir = v
	}
	if v := os.Getenv("KK_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("KK_REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv("KK_CONTACT"); v != "" {
		c.Providers.Contact = v
	}
	if v := os.Getenv("KK_MUSICBRAINZ_URL"); v != "" {
		c.Providers.MusicBrainzURL = v
	}
	if v := os.Getenv("KK_WIKIPEDIA_URL"); v != "" {
		c.Providers.WikipediaURL = v
	}
	if v := os.Getenv("KK_LANGUAGES"); v != "" {
		c.Providers.Languages = splitList(v)
	}
	if v := os.Getenv("KK_FORCE_IPV4"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Providers.ForceIPv4 = b
		}
	}
	if v := os.Getenv("KK_PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Providers.Timeout = d
		}
	}
	if v := os.Getenv("KK_GROUP_SCORE_MARGIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Enrichment.GroupScoreMargin = n
		}
	}
	if v := os.Getenv("KK_MAX_DESCRIPTION_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Enrichment.MaxDescriptionLength = n
		}
	}
	if v := os.Getenv("KK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KK_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("KK_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("KK_LOG_FILE_MAX_SIZE_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Logging.FileMaxSizeMB = n
		}
	}
	if v := os.Getenv("KK_LOG_FILE_MAX_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Logging.FileMaxFiles = n
		}
	}
	if v := os.Getenv("KK_LOG_FILE_MAX_AGE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Logging.FileMaxAgeDays = n
		}
	}
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Storage.PublicDir == "" {
		return fmt.Errorf("storage public_dir is required")
	}
	c.Storage.ImageDir = strings.Trim(c.Storage.ImageDir, "/")
	if c.Storage.ImageDir == "" {
		return fmt.Errorf("storage image_dir is required")
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheSQLite:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend: %q", c.Cache.Backend)
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("invalid provider timeout: %s", c.Providers.Timeout)
	}
	if c.Enrichment.GroupScoreMargin < 0 {
		return fmt.Errorf("invalid group score margin: %d", c.Enrichment.GroupScoreMargin)
	}
	if c.Enrichment.MaxDescriptionLength < 4 {
		return fmt.Errorf("invalid max description length: %d", c.Enrichment.MaxDescriptionLength)
	}
	if c.Logging.FileMaxSizeMB < 0 || c.Logging.FileMaxFiles < 0 || c.Logging.FileMaxAgeDays < 0 {
		return fmt.Errorf("log file rotation limits must not be negative")
	}
	c.Providers.MusicBrainzURL = strings.TrimRight(c.Providers.MusicBrainzURL, "/")
	c.Providers.WikipediaURL = strings.TrimRight(c.Providers.WikipediaURL, "/")
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
