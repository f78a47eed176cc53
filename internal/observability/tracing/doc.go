// Package tracing exposes the OpenTelemetry tracer used for pipeline stage spans.
//
// No exporter is configured by the digest itself: unless the process installs a
// TracerProvider, otel's global no-op provider is used and spans cost nothing.
//
// Example usage:
//
//	ctx, span := tracing.StartSpan(ctx, "digest.fetch")
//	defer span.End()
package tracing
