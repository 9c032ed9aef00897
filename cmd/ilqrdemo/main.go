// Command ilqrdemo drives the solver against the demo scenarios
// (double integrator, pendulum swing-up, hindsight diff-drive) and writes
// a per-timestep CSV trace. No format or exit-code behavior here is part
// of the solver's own interface — it is entirely collaborator-controlled,
// informational tooling around ilqr.Solver.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/trajopt/ilqr/ilqr"
)

// Exit codes of the demo driver (informational, not mandated by the
// core): 0 success, 1 iteration cap in strict (--verbose) mode, 2 stuck
// at local minimum, 3 bad prior. Any other error also exits 1. A
// non-strict run that reaches the iteration cap exits 0, since Solve
// returns no error for it.
const (
	exitConverged      = 0
	exitIterationCap   = 1
	exitStuckLocalMin  = 2
	exitBadPrior       = 3
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, ilqr.ErrBadPrior):
		return exitBadPrior
	case errors.Is(err, ilqr.ErrStuckAtLocalMin):
		return exitStuckLocalMin
	case errors.Is(err, ilqr.ErrNotConverged):
		return exitIterationCap
	default:
		return exitIterationCap
	}
}
