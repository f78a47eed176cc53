package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"news-digest/internal/config"
	"news-digest/internal/infra/output"
	"news-digest/internal/infra/quizgen"
	"news-digest/internal/infra/render"
	"news-digest/internal/infra/scraper"
	"news-digest/internal/observability/logging"
	"news-digest/internal/observability/metrics"
	pkgconfig "news-digest/internal/pkg/config"
	"news-digest/internal/usecase/digest"
	fetchUC "news-digest/internal/usecase/fetch"
	quizUC "news-digest/internal/usecase/quiz"
	"news-digest/pkg/security/csp"
)

func main() {
	loadDotEnv()
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load(logger, pkgconfig.NewConfigMetrics(prometheus.DefaultRegisterer, "digest"))
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	svc, err := setupDigestService(logger, cfg)
	if err != nil {
		logger.Error("failed to set up digest pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule == "" {
		if err := runDigest(ctx, logger, svc, cfg); err != nil {
			stop()
			os.Exit(1)
		}
		return
	}

	startScheduler(ctx, logger, svc, cfg)
}

// loadDotEnv loads .env from the working directory when present.
// Variables already set in the environment are never overridden.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}
}

// setupDigestService wires the pipeline stages from cfg.
func setupDigestService(logger *slog.Logger, cfg *config.Config) (*digest.Service, error) {
	fetcher := scraper.NewRSSFetcher(
		createHTTPClient(cfg.Feed.Timeout),
		scraper.WithMaxAttempts(cfg.Feed.MaxAttempts),
		scraper.WithRateLimit(cfg.Feed.RateLimit),
	)

	renderOpts := []render.Option{render.WithEscapeFeedText(cfg.EscapeFeedText)}
	if cfg.ContentSecurityPolicy {
		renderOpts = append(renderOpts, render.WithContentSecurityPolicy(csp.PagePolicy().Build()))
	}
	renderer, err := render.New(renderOpts...)
	if err != nil {
		return nil, err
	}

	svc := &digest.Service{
		Sources:  cfg.Sources,
		Fetcher:  fetchUC.NewService(fetcher, cfg.Feed.Parallelism),
		Renderer: renderer,
		Writer:   output.NewFileWriter(cfg.OutputPath),
		Location: cfg.Location,
	}

	if !cfg.Quiz.Enabled {
		logger.Info("quiz generation disabled")
		return svc, nil
	}

	gen, err := quizgen.New(quizgen.Config{
		Provider:    cfg.Quiz.Provider,
		APIKey:      cfg.Quiz.APIKey,
		Model:       cfg.Quiz.Model,
		BaseURL:     cfg.Quiz.Endpoint,
		Timeout:     cfg.Quiz.Timeout,
		MaxAttempts: cfg.Quiz.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	if !gen.Configured() {
		logger.Warn("quiz api key not set, the page will show a warning instead of a quiz",
			slog.String("provider", cfg.Quiz.Provider),
			slog.String("env_key", quizgen.KeyEnvVar(cfg.Quiz.Provider)))
	}

	quizSvc := quizUC.NewService(gen, cfg.Quiz.Provider)
	quizSvc.SampleSize = cfg.Quiz.SampleSize
	quizSvc.Language = cfg.Quiz.Language
	quizSvc.Timeout = cfg.Quiz.Timeout
	svc.Quiz = quizSvc

	return svc, nil
}

// createHTTPClient returns the HTTP client used for feed requests.
func createHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// runDigest executes one pipeline run and exports metrics when configured.
func runDigest(ctx context.Context, logger *slog.Logger, svc *digest.Service, cfg *config.Config) error {
	_, err := svc.Run(ctx)
	if err != nil {
		logger.Error("digest run failed", slog.String("error", logging.SanitizeError(err)))
	}

	if cfg.MetricsTextfile != "" {
		if mErr := metrics.WriteTextfile(cfg.MetricsTextfile); mErr != nil {
			logger.Warn("failed to write metrics textfile",
				slog.String("path", cfg.MetricsTextfile),
				slog.Any("error", mErr))
		}
	}
	return err
}

// startScheduler runs the pipeline on cfg.Schedule until ctx is cancelled.
func startScheduler(ctx context.Context, logger *slog.Logger, svc *digest.Service, cfg *config.Config) {
	c := cron.New(cron.WithLocation(cfg.Location))
	_, err := c.AddFunc(cfg.Schedule, func() {
		_ = runDigest(ctx, logger, svc, cfg)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	logger.Info("digest scheduler started",
		slog.String("schedule", cfg.Schedule),
		slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
}
