// Package health provides liveness and readiness endpoints.
//
// Liveness (/health) only reports that the process is running. Readiness
// (/ready) runs every registered check concurrently, each bounded by the
// checker timeout, and answers 503 when any of them fails.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("safety", func(ctx context.Context) error {
//	    res, err := bank.CheckSafety(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    if !res.Safe {
//	        return errors.New("state is unsafe")
//	    }
//	    return nil
//	})
//	mux.Handle("/health", checker.LivenessHandler())
//	mux.Handle("/ready", checker.ReadinessHandler())
package health
