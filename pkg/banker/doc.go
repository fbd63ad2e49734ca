// Package banker guards a resource-allocation state with Dijkstra's
// banker's algorithm.
//
// The work is split across three subpackages:
//   - state: the allocation, maximum, need and available quantities
//   - safety: the work/finish simulation that decides whether a state is safe
//   - evaluate: the request evaluation that grants or refuses an incremental ask
//
// Bank ties them together for callers that share one state across
// goroutines. Every evaluation and release is serialized under a single
// mutex, so the check and the commit of a request are atomic with respect
// to each other.
//
// # Usage
//
//	st, _ := state.New(allocation, maximum, available)
//	bank, err := banker.NewBank(st, banker.Config{
//	    Policy: evaluate.PolicyCanonical,
//	    Logger: logger,
//	})
//
//	d, err := bank.Evaluate(ctx, evaluate.Request{Process: 1, Vector: state.Vector{1, 0, 2}})
//	if err != nil {
//	    // malformed request
//	}
//	if !d.Granted() {
//	    // retry later, d.Reason says why
//	}
package banker
