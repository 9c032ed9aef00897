// Package filter implements the hypothesis-filter side of the
// solver/filter interface (C8): a discrete Bayesian posterior over branch
// hypotheses, updated from the MaxEnt inverse-optimal-control comparison
// between a branch's optimal value-to-go and the Q-value of the control
// actually observed. The solver itself never imports this package; a
// driver reads filter.GoalPredictor.Distribution() and calls
// ilqr.Solver.SetBranchProbabilities with it.
package filter

import (
	"errors"
	"fmt"
	"math"
)

// ErrMismatchedGoals is returned when UpdateDistribution is given slices
// whose length doesn't match the number of goals the predictor tracks.
var ErrMismatchedGoals = errors.New("filter: q_values/v_values length does not match the number of goals")

// GoalPredictor holds a log-space discrete distribution over K goal
// hypotheses, updated from observed state transitions under the MaxEnt
// IOC model: a control action more consistent with goal i (a larger,
// closer-to-zero Q_i - V_i, since the optimal control drives Q_i to V_i)
// raises goal i's posterior.
type GoalPredictor struct {
	logDist []float64
}

// NewGoalPredictor constructs a predictor over len(initialGoalProb)
// goals, seeded at the given prior (which need not itself be normalized
// precisely; it is renormalized in log-space immediately).
func NewGoalPredictor(initialGoalProb []float64) *GoalPredictor {
	g := &GoalPredictor{logDist: make([]float64, len(initialGoalProb))}
	g.Initialize(initialGoalProb)
	return g
}

// Initialize resets the distribution to the given prior.
func (g *GoalPredictor) Initialize(initialGoalProb []float64) {
	if len(g.logDist) != len(initialGoalProb) {
		g.logDist = make([]float64, len(initialGoalProb))
	}
	for i, p := range initialGoalProb {
		if p <= 0 {
			g.logDist[i] = math.Inf(-1)
		} else {
			g.logDist[i] = math.Log(p)
		}
	}
	g.normalizeLogDistribution()
}

// NumGoals returns the number of tracked hypotheses.
func (g *GoalPredictor) NumGoals() int { return len(g.logDist) }

// ProbAt returns the current posterior probability of goal i.
func (g *GoalPredictor) ProbAt(i int) float64 {
	return math.Exp(g.logDist[i])
}

// Distribution returns the current posterior over all goals, a vector
// summing to 1 within floating-point roundoff.
func (g *GoalPredictor) Distribution() []float64 {
	dist := make([]float64, len(g.logDist))
	for i, l := range g.logDist {
		dist[i] = math.Exp(l)
	}
	return dist
}

// UpdateDistribution applies the MaxEnt IOC log-posterior update
// delta log p_i = Q_i - V_i for each goal i, given the observed action's
// Q-value and each goal's optimal value-to-go at the pre-action state,
// then renormalizes in log-space.
func (g *GoalPredictor) UpdateDistribution(qValues, vValues []float64) error {
	if len(qValues) != len(g.logDist) || len(vValues) != len(g.logDist) {
		return fmt.Errorf("%w: have %d goals, got %d q_values and %d v_values", ErrMismatchedGoals, len(g.logDist), len(qValues), len(vValues))
	}
	for i := range g.logDist {
		g.logDist[i] += qValues[i] - vValues[i]
	}
	g.normalizeLogDistribution()
	return nil
}

// normalizeLogDistribution renormalizes logDist so that
// sum(exp(logDist)) = 1, via the max-subtraction
// log-sum-exp trick for numerical stability.
func (g *GoalPredictor) normalizeLogDistribution() {
	if len(g.logDist) == 0 {
		return
	}
	max := g.logDist[0]
	for _, l := range g.logDist[1:] {
		if l > max {
			max = l
		}
	}
	if math.IsInf(max, -1) {
		// every entry is zero probability; fall back to a uniform prior
		// rather than producing an all-zero distribution.
		u := -math.Log(float64(len(g.logDist)))
		for i := range g.logDist {
			g.logDist[i] = u
		}
		return
	}

	var sum float64
	for _, l := range g.logDist {
		sum += math.Exp(l - max)
	}
	logSumExp := max + math.Log(sum)
	for i := range g.logDist {
		g.logDist[i] -= logSumExp
	}
}
