// Package ilqr implements the backward sweep, forward line-searched rollout
// and convergence loop (C5-C7) over a tree of plan.Node branches, plus the
// branch-probability interface (C8) a hypothesis filter drives between
// solve calls.
package ilqr

import "errors"

// ErrBadPrior is returned by New when the branch probabilities do not sum
// to one (tolerance 1e-3) or any probability is negative.
var ErrBadPrior = errors.New("ilqr: branch priors are malformed")

// ErrStuckAtLocalMin is returned by Solve when the Levenberg-Marquardt
// damping exceeded its cap without the line search finding an improving
// step.
var ErrStuckAtLocalMin = errors.New("ilqr: damping exceeded cap without a descending step")

// ErrNotConverged is returned by Solve, in strict mode only, when the
// iteration cap was reached before the cost-ratio convergence test was met.
var ErrNotConverged = errors.New("ilqr: iteration cap reached before convergence")
