// Package config assembles the digest configuration from environment variables
// and an optional YAML source list.
//
// Environment values are loaded fail-open: an invalid value is replaced by its
// default, logged as a warning, and counted in the config fallback metrics.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"news-digest/internal/domain/entity"
	"news-digest/internal/infra/quizgen"
	pkgconfig "news-digest/internal/pkg/config"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration of a digest run.
type Config struct {
	// Sources is the ordered list of feeds; built-in list unless FEEDS_FILE is set.
	Sources []entity.Source

	Feed FeedConfig
	Quiz QuizConfig

	// OutputPath is the page file. Env: DIGEST_OUTPUT_PATH. Default: index.html
	OutputPath string

	// Timezone is the IANA zone for the timestamp and schedule. Env: DIGEST_TIMEZONE.
	// Default: Asia/Taipei
	Timezone string
	Location *time.Location

	// EscapeFeedText escapes feed text in the page. Env: DIGEST_ESCAPE_FEED_TEXT. Default: false
	EscapeFeedText bool
	// ContentSecurityPolicy adds a restrictive CSP meta tag to the page. Env: DIGEST_CSP. Default: false
	ContentSecurityPolicy bool

	// Schedule is a 5-field cron expression; empty runs once. Env: DIGEST_SCHEDULE
	Schedule string

	// MetricsTextfile receives Prometheus metrics after each run when set. Env: METRICS_TEXTFILE
	MetricsTextfile string
}

// FeedConfig controls feed fetching.
type FeedConfig struct {
	// Timeout per feed request. Env: FEED_TIMEOUT. Range 1s-5m. Default: 30s
	Timeout time.Duration
	// MaxAttempts per feed; 1 disables retry. Env: FEED_MAX_ATTEMPTS. Range 1-5. Default: 1
	MaxAttempts int
	// RateLimit in requests per second; 0 is unlimited. Env: FEED_RATE_LIMIT. Default: 0
	RateLimit float64
	// Parallelism is the number of concurrent fetches. Env: FETCH_PARALLELISM. Range 1-16. Default: 1
	Parallelism int
}

// QuizConfig controls the quiz stage.
type QuizConfig struct {
	// Enabled toggles the quiz section. Env: QUIZ_ENABLED. Default: true
	Enabled bool
	// Provider is gemini, openai or claude. Env: QUIZ_PROVIDER. Default: gemini
	Provider string
	// APIKey comes from GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY.
	APIKey string
	// Model overrides the provider default. Env: QUIZ_MODEL
	Model string
	// Endpoint overrides the provider base URL. Env: QUIZ_ENDPOINT
	Endpoint string
	// SampleSize is the maximum number of summaries in the prompt. Env: QUIZ_SAMPLE_SIZE.
	// Range 1-50. Default: 8
	SampleSize int
	// Language of the questions. Env: QUIZ_LANGUAGE. Default: Traditional Chinese (zh-TW)
	Language string
	// Timeout of the AI call. Env: QUIZ_TIMEOUT. Range 1s-10m. Default: 60s
	Timeout time.Duration
	// MaxAttempts of the AI call; 1 disables retry. Env: QUIZ_MAX_ATTEMPTS. Range 1-5. Default: 1
	MaxAttempts int
}

// Provider key environment variables.
var knownProviders = []string{quizgen.ProviderGemini, quizgen.ProviderOpenAI, quizgen.ProviderClaude}

// DefaultConfig returns the configuration used when no environment is set.
func DefaultConfig() Config {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}
	return Config{
		Sources: entity.DefaultSources(),
		Feed: FeedConfig{
			Timeout:     30 * time.Second,
			MaxAttempts: 1,
			RateLimit:   0,
			Parallelism: 1,
		},
		Quiz: QuizConfig{
			Enabled:     true,
			Provider:    "gemini",
			SampleSize:  8,
			Language:    "Traditional Chinese (zh-TW)",
			Timeout:     60 * time.Second,
			MaxAttempts: 1,
		},
		OutputPath: "index.html",
		Timezone:   "Asia/Taipei",
		Location:   loc,
	}
}

// Validate checks every field and returns all problems together.
func (c *Config) Validate() error {
	var errs []error

	if err := entity.ValidateSources(c.Sources); err != nil {
		errs = append(errs, fmt.Errorf("sources: %w", err))
	}
	if err := pkgconfig.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if c.Schedule != "" {
		if err := pkgconfig.ValidateCronSchedule(c.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("schedule: %w", err))
		}
	}
	if err := validateProvider(c.Quiz.Provider); err != nil {
		errs = append(errs, fmt.Errorf("quiz provider: %w", err))
	}
	if err := pkgconfig.InRange(c.Quiz.SampleSize, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("quiz sample size: %w", err))
	}
	if err := validateQuizTimeout(c.Quiz.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("quiz timeout: %w", err))
	}
	if err := validateAttempts(c.Quiz.MaxAttempts); err != nil {
		errs = append(errs, fmt.Errorf("quiz max attempts: %w", err))
	}
	if err := validateFeedTimeout(c.Feed.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("feed timeout: %w", err))
	}
	if err := validateAttempts(c.Feed.MaxAttempts); err != nil {
		errs = append(errs, fmt.Errorf("feed max attempts: %w", err))
	}
	if err := validateParallelism(c.Feed.Parallelism); err != nil {
		errs = append(errs, fmt.Errorf("fetch parallelism: %w", err))
	}
	if err := pkgconfig.NonNegative(c.Feed.RateLimit); err != nil {
		errs = append(errs, fmt.Errorf("feed rate limit: %w", err))
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		errs = append(errs, &entity.ValidationError{Field: "OutputPath", Message: "cannot be empty"})
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// Load reads the configuration from the environment. Invalid environment
// values fall back to defaults with a warning. An unreadable or invalid
// FEEDS_FILE, or a configuration that fails Validate, is an error.
func Load(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := DefaultConfig()
	l := &loader{logger: logger, metrics: metrics}

	cfg.Timezone = record(l, pkgconfig.LoadEnvWithFallback("DIGEST_TIMEZONE", cfg.Timezone, pkgconfig.ValidateTimezone), "Timezone")
	if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
		cfg.Location = loc
	}
	cfg.OutputPath = pkgconfig.LoadEnvString("DIGEST_OUTPUT_PATH", cfg.OutputPath)
	cfg.EscapeFeedText = record(l, pkgconfig.LoadEnvBool("DIGEST_ESCAPE_FEED_TEXT", cfg.EscapeFeedText), "EscapeFeedText")
	cfg.ContentSecurityPolicy = record(l, pkgconfig.LoadEnvBool("DIGEST_CSP", cfg.ContentSecurityPolicy), "ContentSecurityPolicy")
	cfg.Schedule = record(l, pkgconfig.LoadEnvWithFallback("DIGEST_SCHEDULE", "", pkgconfig.ValidateCronSchedule), "Schedule")
	cfg.MetricsTextfile = pkgconfig.LoadEnvString("METRICS_TEXTFILE", "")

	cfg.Feed.Timeout = record(l, pkgconfig.LoadEnvDuration("FEED_TIMEOUT", cfg.Feed.Timeout, validateFeedTimeout), "FeedTimeout")
	cfg.Feed.MaxAttempts = record(l, pkgconfig.LoadEnvInt("FEED_MAX_ATTEMPTS", cfg.Feed.MaxAttempts, validateAttempts), "FeedMaxAttempts")
	cfg.Feed.RateLimit = record(l, pkgconfig.LoadEnvFloat("FEED_RATE_LIMIT", cfg.Feed.RateLimit, pkgconfig.NonNegative[float64]), "FeedRateLimit")
	cfg.Feed.Parallelism = record(l, pkgconfig.LoadEnvInt("FETCH_PARALLELISM", cfg.Feed.Parallelism, validateParallelism), "FetchParallelism")

	cfg.Quiz.Enabled = record(l, pkgconfig.LoadEnvBool("QUIZ_ENABLED", cfg.Quiz.Enabled), "QuizEnabled")
	cfg.Quiz.Provider = strings.ToLower(record(l, pkgconfig.LoadEnvWithFallback("QUIZ_PROVIDER", cfg.Quiz.Provider, validateProvider), "QuizProvider"))
	cfg.Quiz.APIKey = os.Getenv(quizgen.KeyEnvVar(cfg.Quiz.Provider))
	cfg.Quiz.Model = pkgconfig.LoadEnvString("QUIZ_MODEL", "")
	cfg.Quiz.Endpoint = record(l, pkgconfig.LoadEnvWithFallback("QUIZ_ENDPOINT", "", entity.ValidateURL), "QuizEndpoint")
	cfg.Quiz.SampleSize = record(l, pkgconfig.LoadEnvInt("QUIZ_SAMPLE_SIZE", cfg.Quiz.SampleSize, func(v int) error {
		return pkgconfig.InRange(v, 1, 50)
	}), "QuizSampleSize")
	cfg.Quiz.Language = pkgconfig.LoadEnvString("QUIZ_LANGUAGE", cfg.Quiz.Language)
	cfg.Quiz.Timeout = record(l, pkgconfig.LoadEnvDuration("QUIZ_TIMEOUT", cfg.Quiz.Timeout, validateQuizTimeout), "QuizTimeout")
	cfg.Quiz.MaxAttempts = record(l, pkgconfig.LoadEnvInt("QUIZ_MAX_ATTEMPTS", cfg.Quiz.MaxAttempts, validateAttempts), "QuizMaxAttempts")

	if path := os.Getenv("FEEDS_FILE"); path != "" {
		sources, err := LoadSourcesFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Sources = sources
		logger.Info("loaded sources from file",
			slog.String("path", path),
			slog.Int("sources", len(sources)))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if metrics != nil {
		metrics.SetFallbackActive(l.fallbacks > 0)
		metrics.RecordLoadTimestamp()
	}

	logger.Info("configuration loaded",
		slog.Int("sources", len(cfg.Sources)),
		slog.String("quiz_provider", cfg.Quiz.Provider),
		slog.Bool("quiz_enabled", cfg.Quiz.Enabled),
		slog.Bool("quiz_key_set", cfg.Quiz.APIKey != ""),
		slog.Int("fetch_parallelism", cfg.Feed.Parallelism),
		slog.String("timezone", cfg.Timezone),
		slog.String("schedule", cfg.Schedule),
		slog.String("output_path", cfg.OutputPath),
		slog.Int("fallbacks", l.fallbacks))

	return &cfg, nil
}

type sourcesFile struct {
	Sources []entity.Source `yaml:"sources"`
}

// LoadSourcesFile reads an ordered source list from a YAML file:
//
//	sources:
//	  - name: BBC News
//	    url: http://feeds.bbci.co.uk/news/world/rss.xml
func LoadSourcesFile(path string) ([]entity.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}
	if err := entity.ValidateSources(f.Sources); err != nil {
		return nil, fmt.Errorf("sources file %s: %w", path, err)
	}
	return f.Sources, nil
}

// loader logs and counts the fallbacks of individual LoadResults.
type loader struct {
	logger    *slog.Logger
	metrics   *pkgconfig.ConfigMetrics
	fallbacks int
}

func record[T any](l *loader, res pkgconfig.LoadResult[T], field string) T {
	for _, w := range res.Warnings {
		l.logger.Warn("Configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", w))
	}
	if res.FallbackApplied {
		l.fallbacks++
		if l.metrics != nil {
			l.metrics.RecordFallback(field)
		}
	}
	return res.Value
}

func validateProvider(p string) error {
	if !slices.Contains(knownProviders, strings.ToLower(p)) {
		return fmt.Errorf("unknown provider %q, expected gemini, openai or claude", p)
	}
	return nil
}

func validateAttempts(n int) error {
	return pkgconfig.InRange(n, 1, 5)
}

func validateParallelism(n int) error {
	return pkgconfig.InRange(n, 1, 16)
}

func validateFeedTimeout(d time.Duration) error {
	return pkgconfig.InRange(d, time.Second, 5*time.Minute)
}

func validateQuizTimeout(d time.Duration) error {
	return pkgconfig.InRange(d, time.Second, 10*time.Minute)
}
