package ilqr

import (
	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/plan"
	"github.com/trajopt/ilqr/taylor"
)

// BranchSpec describes one hypothesis: its dynamics, running and terminal
// cost closures, and its prior probability of being the true hypothesis.
type BranchSpec struct {
	Dyn         taylor.Dynamics
	Cost        taylor.Cost
	FinalCost   taylor.FinalCost
	Probability float64
}

// branch is one chain of plan nodes for timesteps t=1..T, sharing the
// solver's root node at t=0.
type branch struct {
	spec        BranchSpec
	probability float64
	nodes       []*plan.Node // nodes[i] is timestep t = i+1; nodes[len-1] is the terminal node t=T.
}

func newBranch(spec BranchSpec, n, m, T int) *branch {
	nodes := make([]*plan.Node, T)
	for i := 0; i < T; i++ {
		t := i + 1
		isFinal := t == T
		nodes[i] = plan.NewNode(n, m, t, spec.Dyn, spec.Cost, spec.FinalCost, isFinal, spec.Probability)
	}
	return &branch{spec: spec, probability: spec.Probability, nodes: nodes}
}

// nodeAt returns the node owning timestep t (1 <= t <= T).
func (b *branch) nodeAt(t int) *plan.Node {
	return b.nodes[t-1]
}

// seedNominal fills every node's expansion point by rolling dyn forward
// from x0 under a constant control, the solver's initial nominal
// trajectory before the first backward sweep.
func (b *branch) seedNominal(x0, uNominal *mat.VecDense) {
	x := mat.VecDenseCopyOf(x0)
	for _, node := range b.nodes {
		next := b.spec.Dyn(x, uNominal)
		if node.IsFinal() {
			node.SetExpansionPoint(next, nil)
		} else {
			node.SetExpansionPoint(next, uNominal)
		}
		x = next
	}
}
