// Package metrics provides the Prometheus metrics recorded by the digest pipeline.
//
// All metrics are registered with the Prometheus default registry. The digest is
// a run-once command, so instead of serving /metrics it can dump the registry to
// a file for the node_exporter textfile collector (see WriteTextfile).
//
// Example usage:
//
//	metrics.RecordFeedFetch("BBC News", true, 5)
//	metrics.RecordQuizOutcome("success")
//	if err := metrics.WriteTextfile("/var/lib/node_exporter/digest.prom"); err != nil {
//	    logger.Warn("failed to write metrics", slog.Any("error", err))
//	}
package metrics
