// Package resilience groups the fault-tolerance helpers used around outbound
// calls: feed fetches and the quiz generation request.
//
//   - retry: bounded attempts with exponential backoff and jitter. The digest
//     defaults to a single attempt per call; extra attempts are opt-in.
//   - circuitbreaker: sony/gobreaker wrappers. In run-once mode a breaker never
//     sees enough requests to trip; in scheduled mode it stops hammering an
//     endpoint that keeps failing across runs.
package resilience
