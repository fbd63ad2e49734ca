// Package telemetry groups the observability packages used by banker.
//
// # Components
//
//   - logging: structured logging on log/slog with request and process context
//   - metrics: the Prometheus registry and scrape handler
//   - health: liveness and readiness endpoints
//
// Domain metrics (decisions, safety checks, audits) live next to the code
// that records them in package banker; this package only owns the registry
// they are registered with.
package telemetry
