// Package logging provides structured logging utilities built on log/slog.
//
// Key features:
//   - JSON (default) and text output, selected with LOG_FORMAT
//   - Level selected with LOG_LEVEL (debug, info, warn, error)
//   - Run-scoped loggers carrying a run_id, passed through context
//
// Example usage:
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	ctx, runLogger := logging.WithRunID(ctx, logger)
//	runLogger.Info("fetching sources")
package logging
