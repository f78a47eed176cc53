// Command diagnose fetches every configured feed once and reports its health.
//
// It reads the same configuration as the digest (FEEDS_FILE,
// FEED_TIMEOUT, FEED_RATE_LIMIT, FETCH_PARALLELISM),
// never calls the quiz provider and never writes the page. The exit status is
// 1 when any feed is unhealthy.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"news-digest/internal/config"
	"news-digest/internal/infra/scraper"
	"news-digest/internal/observability/logging"
	fetchUC "news-digest/internal/usecase/fetch"
)

type options struct {
	outputFormat string
	timeout      time.Duration
}

func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("diagnose", flag.ExitOnError)
	fs.StringVar(&opts.outputFormat, "output", "text", "Output format: text or json")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Per-feed timeout (default: FEED_TIMEOUT)")
	return fs
}

func main() {
	var opts options
	_ = newFlagSet(&opts).Parse(os.Args[1:])
	outputFormat, timeout := opts.outputFormat, opts.timeout

	_ = godotenv.Load()

	logger := logging.New(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	slog.SetDefault(logger)

	cfg, err := config.Load(logger, nil)
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if timeout <= 0 {
		timeout = cfg.Feed.Timeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := scraper.NewRSSFetcher(
		&http.Client{Timeout: timeout},
		scraper.WithRateLimit(cfg.Feed.RateLimit),
	)
	svc := fetchUC.NewService(fetcher, cfg.Feed.Parallelism)

	logger.Info("diagnosing feed sources", slog.Int("count", len(cfg.Sources)))
	diagnostics := svc.Diagnose(ctx, cfg.Sources)

	switch outputFormat {
	case "json":
		err = writeJSON(os.Stdout, diagnostics)
	default:
		err = writeText(os.Stdout, diagnostics, time.Now())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if broken(diagnostics) > 0 {
		os.Exit(1)
	}
}
