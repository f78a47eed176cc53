// Package observability groups the logging, metrics and tracing helpers used
// by the digest pipeline.
//
// Subpackages:
//   - logging: slog logger construction and run-scoped loggers
//   - metrics: Prometheus counters for fetches, quiz outcomes and runs
//   - tracing: OpenTelemetry tracer for pipeline stage spans
//
// Example usage:
//
//	import (
//	    "news-digest/internal/observability/logging"
//	    "news-digest/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("digest started")
//
//	    metrics.RecordFeedFetch("BBC News", true, 5)
//	}
package observability
