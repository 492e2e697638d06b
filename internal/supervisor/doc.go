// Package supervisor runs the master side of the prefork model.
//
// A [Supervisor] binds the serving socket once, spawns the configured
// number of worker processes, and hands each of them the listener file
// descriptor. The kernel then spreads incoming connections across
// whichever workers are accepting; the master never serves a request
// itself.
//
// Dead workers are replaced automatically. Each slot backs off
// exponentially while it keeps dying, and a pool-wide budget caps how
// many restarts a time window may absorb. When the budget is blown the
// supervisor declares the fault systemic and reports it on
// [Supervisor.Fatal] instead of looping forever:
//
//	sup := supervisor.New(cfg)
//	if err := sup.Start(); err != nil {
//	    return err
//	}
//
//	select {
//	case <-ctx.Done():
//	    return sup.Stop("signal received")
//	case err := <-sup.Fatal():
//	    sup.Stop("fatal fault")
//	    return err
//	}
//
// [Supervisor.Stop] drains gracefully: workers get SIGTERM and a grace
// period to finish in-flight requests, then stragglers are killed.
// [Supervisor.Kill] skips the grace period for the second Ctrl-C.
package supervisor
