package ilqr

import (
	"github.com/trajopt/ilqr/value"
)

// backwardSweep runs the Riccati recursion over every branch from t=T
// down to t=1, mixes the resulting t=1 values by branch probability, and
// backs that mixture up through the shared root at t=0. It assumes every
// node's Taylor expansion has already been refreshed at the current
// nominal trajectory (the "Expand" step).
//
// Returns plan.ErrNonPSDControlHessian if any backup's control
// Hessian is not positive definite at the current damping; the driver
// responds by escalating mu and retrying without re-expanding.
func (s *Solver) backwardSweep(mu float64) error {
	t1Values := make([]*value.Quadratic, len(s.branches))
	probs := make([]float64, len(s.branches))

	for bi, b := range s.branches {
		last := b.nodes[len(b.nodes)-1]
		last.SeedTerminalValue()

		for i := len(b.nodes) - 2; i >= 0; i-- {
			node := b.nodes[i]
			next := b.nodes[i+1]
			if err := node.BellmanBackup(next.Value, mu); err != nil {
				return err
			}
		}

		t1Values[bi] = b.nodes[0].Value
		probs[bi] = b.probability
	}

	jmix := value.Mix(s.n, t1Values, probs)
	return s.root.BellmanBackup(jmix, mu)
}
