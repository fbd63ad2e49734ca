// Package metrics owns the Prometheus registry for a banker process and the
// HTTP handler that exposes it.
//
// A private registry is used instead of the global default so tests can
// create as many as they like:
//
//	reg := metrics.NewRegistry()
//	bankMetrics := banker.NewMetrics("banker", reg)
//	mux.Handle("/metrics", reg.Handler())
package metrics
