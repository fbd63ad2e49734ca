// Banker is a deadlock-avoidance engine built on the Banker's algorithm.
//
// It decides whether a process's resource request can be granted without
// leading the system into an unsafe state, either for a scenario file or as
// an HTTP service holding live state.
//
// Usage:
//
//	# Evaluate every request in a scenario file
//	banker run scenario.txt
//
//	# Print only the safety verdict, failing when unsafe
//	banker check scenario.yaml --strict
//
//	# Serve the scenario's state over HTTP
//	banker serve --config banker.yaml
//
//	# Show version information
//	banker version
package main

func main() {
	Execute()
}
