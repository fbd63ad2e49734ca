package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// ProcessKey is the context key for the process index a call concerns.
	ProcessKey contextKey = "process"

	// ScenarioKey is the context key for the scenario source (file path).
	ScenarioKey contextKey = "scenario"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithProcess adds a process index to the context.
func WithProcess(ctx context.Context, process int) context.Context {
	return context.WithValue(ctx, ProcessKey, process)
}

// GetProcess retrieves the process index from the context.
func GetProcess(ctx context.Context) (int, bool) {
	process, ok := ctx.Value(ProcessKey).(int)
	return process, ok
}

// WithScenario adds a scenario source to the context.
func WithScenario(ctx context.Context, scenario string) context.Context {
	return context.WithValue(ctx, ScenarioKey, scenario)
}

// GetScenario retrieves the scenario source from the context.
func GetScenario(ctx context.Context) string {
	if scenario, ok := ctx.Value(ScenarioKey).(string); ok {
		return scenario
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if process, ok := GetProcess(ctx); ok {
		fields = append(fields, "process", process)
	}
	if scenario := GetScenario(ctx); scenario != "" {
		fields = append(fields, "scenario", scenario)
	}

	return fields
}
