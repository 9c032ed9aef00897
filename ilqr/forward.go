package ilqr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/matx"
	"github.com/trajopt/ilqr/numdiff"
)

// rollout simulates one branch from x0 under the current feedback law
// u_t = root/node control at step size alpha, accumulating that branch's
// own running and terminal cost. states has length T+1 (x0..xT);
// controls has length T (u0..u_{T-1}).
func (s *Solver) rollout(b *branch, x0 *mat.VecDense, alpha float64) (states, controls []*mat.VecDense, cost float64, err error) {
	states = make([]*mat.VecDense, s.T+1)
	controls = make([]*mat.VecDense, s.T)

	x := mat.VecDenseCopyOf(x0)
	states[0] = x
	for t := 0; t < s.T; t++ {
		var u *mat.VecDense
		if t == 0 {
			u = s.root.ComputeControl(x, alpha)
		} else {
			u = b.nodeAt(t).ComputeControl(x, alpha)
		}
		c := b.spec.Cost(x, u, t)
		if isNonFinite(c) {
			return nil, nil, 0, fmt.Errorf("%w: cost(x,u,t=%d) is non-finite", numdiff.ErrBadClosure, t)
		}
		cost += c

		xNext := b.spec.Dyn(x, u)
		if matx.VecNaNOrInf(xNext) {
			return nil, nil, 0, fmt.Errorf("%w: dyn(x,u) at t=%d is non-finite", numdiff.ErrBadClosure, t)
		}

		controls[t] = u
		states[t+1] = xNext
		x = xNext
	}
	finalC := b.spec.FinalCost(x)
	if isNonFinite(finalC) {
		return nil, nil, 0, fmt.Errorf("%w: final_cost(x_T) is non-finite", numdiff.ErrBadClosure)
	}
	cost += finalC
	return states, controls, cost, nil
}

// expectedCost runs rollout on every branch at the given step size and
// returns the probability-weighted total cost J_bar_alpha.
func (s *Solver) expectedCost(x0 *mat.VecDense, alpha float64) (float64, []rolloutResult, error) {
	results := make([]rolloutResult, len(s.branches))
	var total float64
	for i, b := range s.branches {
		states, controls, cost, err := s.rollout(b, x0, alpha)
		if err != nil {
			return 0, nil, err
		}
		results[i] = rolloutResult{states: states, controls: controls, cost: cost}
		total += b.probability * cost
	}
	return total, results, nil
}

type rolloutResult struct {
	states   []*mat.VecDense
	controls []*mat.VecDense
	cost     float64
}

// nominalCost evaluates the branch-mixed cost of the trajectory currently
// stored as every node's expansion point, without simulating: J_bar =
// sum_i p_i * (sum_t c_i(xhat_t,uhat_t,t) + c_i,final(xhat_T)).
func (s *Solver) nominalCost() (float64, error) {
	var total float64
	for _, b := range s.branches {
		var branchCost float64

		x := s.root.X()
		u := s.root.U()
		c := b.spec.Cost(x, u, 0)
		if isNonFinite(c) {
			return 0, fmt.Errorf("%w: cost(x,u,t=0) is non-finite", numdiff.ErrBadClosure)
		}
		branchCost += c

		for i := 0; i < len(b.nodes)-1; i++ {
			node := b.nodes[i]
			c := b.spec.Cost(node.X(), node.U(), node.T())
			if isNonFinite(c) {
				return 0, fmt.Errorf("%w: cost(x,u,t=%d) is non-finite", numdiff.ErrBadClosure, node.T())
			}
			branchCost += c
		}

		last := b.nodes[len(b.nodes)-1]
		fc := b.spec.FinalCost(last.X())
		if isNonFinite(fc) {
			return 0, fmt.Errorf("%w: final_cost(x_T) is non-finite", numdiff.ErrBadClosure)
		}
		branchCost += fc

		total += b.probability * branchCost
	}
	return total, nil
}

func isNonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
