// Package plan implements the plan node (C4): one timestep of one branch,
// holding the current Taylor-expansion points, the dynamics/cost
// expansions taken there, the quadratic value-to-go, the feedback gains
// (K,k), and the branch-split probability. This mirrors the role of
// iLQRNode in the original tree-iLQR implementation.
package plan

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/matx"
	"github.com/trajopt/ilqr/taylor"
	"github.com/trajopt/ilqr/value"
)

// Node is one timestep x one branch of the plan tree.
type Node struct {
	t int

	dyn       taylor.Dynamics
	cost      taylor.Cost
	finalCost taylor.FinalCost
	isFinal   bool

	// Current Taylor-expansion points, mutated every outer iteration.
	x *mat.VecDense
	u *mat.VecDense

	// Original nominal state/control handed to the solver at construction.
	origX *mat.VecDense
	origU *mat.VecDense

	dynExp  taylor.DynamicsExpansion
	costExp taylor.CostExpansion

	// Prior probability of the branch this node belongs to; every node of
	// a branch carries the same value, and the shared root carries 1.
	probability float64

	Value *value.Quadratic

	K *mat.Dense    // m x n feedback gain
	k *mat.VecDense // m feed-forward correction
}

// NewNode constructs a node at timestep t for a branch with the given
// closures and split probability, without yet committing an expansion
// point (the zero state/control of the given dimensions).
func NewNode(stateDim, controlDim, t int, dyn taylor.Dynamics, cost taylor.Cost, finalCost taylor.FinalCost, isFinal bool, probability float64) *Node {
	return NewNodeAt(mat.NewVecDense(stateDim, nil), mat.NewVecDense(controlDim, nil), t, dyn, cost, finalCost, isFinal, probability)
}

// NewNodeAt constructs a node whose initial expansion point is (xStar,
// uStar), matching the iLQRNode constructor that takes an explicit nominal
// pair rather than zeros.
func NewNodeAt(xStar, uStar *mat.VecDense, t int, dyn taylor.Dynamics, cost taylor.Cost, finalCost taylor.FinalCost, isFinal bool, probability float64) *Node {
	n := xStar.Len()
	m := uStar.Len()

	x := mat.VecDenseCopyOf(xStar)
	u := mat.VecDenseCopyOf(uStar)

	node := &Node{
		t:           t,
		dyn:         dyn,
		cost:        cost,
		finalCost:   finalCost,
		isFinal:     isFinal,
		x:           x,
		u:           u,
		origX:       mat.VecDenseCopyOf(xStar),
		origU:       mat.VecDenseCopyOf(uStar),
		probability: probability,
		Value:       value.New(n),
		K:           mat.NewDense(m, n, nil),
		k:           mat.NewVecDense(m, nil),
	}
	return node
}

// NewRoot constructs the shared root node of a hindsight plan tree: the
// single node at t=0 common to every branch. It has no closures of its
// own — its Taylor expansion is injected by SetExpansion, mixed by the
// caller across branch hypotheses — and participates in a backward sweep
// purely through BellmanBackup.
func NewRoot(xStar, uStar *mat.VecDense) *Node {
	n := xStar.Len()
	m := uStar.Len()
	return &Node{
		t:           0,
		x:           mat.VecDenseCopyOf(xStar),
		u:           mat.VecDenseCopyOf(uStar),
		origX:       mat.VecDenseCopyOf(xStar),
		origU:       mat.VecDenseCopyOf(uStar),
		probability: 1,
		Value:       value.New(n),
		K:           mat.NewDense(m, n, nil),
		k:           mat.NewVecDense(m, nil),
	}
}

// SetExpansion installs an externally computed Taylor expansion, bypassing
// RefreshExpansion's own-closure evaluation. The root node uses this to
// adopt a probability-mixed expansion across branch hypotheses.
func (nd *Node) SetExpansion(dynExp taylor.DynamicsExpansion, costExp taylor.CostExpansion) {
	nd.dynExp = dynExp
	nd.costExp = costExp
}

// T returns the timestep index.
func (nd *Node) T() int { return nd.t }

// X returns the current state expansion point.
func (nd *Node) X() *mat.VecDense { return nd.x }

// U returns the current control expansion point.
func (nd *Node) U() *mat.VecDense { return nd.u }

// SetExpansionPoint commits a new (x,u) pair as this node's linearization
// point, called once per outer iteration after a forward pass is accepted.
func (nd *Node) SetExpansionPoint(x, u *mat.VecDense) {
	nd.x.CopyVec(x)
	if u != nil {
		nd.u.CopyVec(u)
	}
}

// Probability returns the branch-split probability at this node.
func (nd *Node) Probability() float64 { return nd.probability }

// SetProbability updates the branch-split probability, used by
// SetBranchProbabilities between solver invocations (C8).
func (nd *Node) SetProbability(p float64) { nd.probability = p }

// Dynamics exposes the node's dynamics closure, so the forward pass can
// simulate without going through the node's own mutable state.
func (nd *Node) Dynamics() taylor.Dynamics { return nd.dyn }

// Cost exposes the node's running-cost closure.
func (nd *Node) Cost() taylor.Cost { return nd.cost }

// FinalCost exposes the node's terminal-cost closure.
func (nd *Node) FinalCost() taylor.FinalCost { return nd.finalCost }

// IsFinal reports whether this node is the terminal (t=T) node of its
// branch, which has only a cost quadraticization and no dynamics.
func (nd *Node) IsFinal() bool { return nd.isFinal }

// RefreshExpansion re-linearizes the dynamics and re-quadraticizes the cost
// at the node's current expansion point (step 1 of the outer loop, §4.5).
func (nd *Node) RefreshExpansion() error {
	if nd.isFinal {
		exp, err := taylor.QuadraticizeFinal(nd.finalCost, nd.x)
		if err != nil {
			return fmt.Errorf("node t=%d final cost: %w", nd.t, err)
		}
		nd.costExp = exp
		return nil
	}

	dynExp, err := taylor.Linearize(nd.dyn, nd.x, nd.u)
	if err != nil {
		return fmt.Errorf("node t=%d dynamics: %w", nd.t, err)
	}
	costExp, err := taylor.Quadraticize(nd.cost, nd.x, nd.u, nd.t)
	if err != nil {
		return fmt.Errorf("node t=%d cost: %w", nd.t, err)
	}
	nd.dynExp = dynExp
	nd.costExp = costExp
	return nil
}

// SeedTerminalValue initializes this node's value-to-go from the terminal
// cost quadraticization, for the leaf of a branch (t = T).
func (nd *Node) SeedTerminalValue() {
	nd.Value.V.Copy(nd.costExp.Q)
	nd.Value.G.Copy(rowOf(nd.costExp.Bx))
	nd.Value.W = nd.costExp.C0
	nd.Value.Symmetrize()
}

// BellmanBackup performs one step of the Riccati recursion (§4.3) given the
// successor value Jt1 (possibly itself already probability-mixed across
// children, §4.4) and the current Levenberg-Marquardt damping mu. It sets
// this node's K, k, and Value in place.
func (nd *Node) BellmanBackup(jt1 *value.Quadratic, mu float64) error {
	A, B := nd.dynExp.A, nd.dynExp.B
	Q, R, P := nd.costExp.Q, nd.costExp.R, nd.costExp.P
	bx, bu := nd.costExp.Bx, nd.costExp.Bu

	m, _ := B.Dims()

	Vt1 := mat.NewDense(jt1.V.RawMatrix().Rows, jt1.V.RawMatrix().Cols, nil)
	Vt1.Copy(jt1.V)
	matx.AddDiag(Vt1, mu)
	Gt1T := mat.NewVecDense(Vt1.RawMatrix().Rows, nil) // G_{t+1}^T, column
	for i := 0; i < Gt1T.Len(); i++ {
		Gt1T.SetVec(i, jt1.G.At(0, i))
	}

	var AtV, BtV mat.Dense
	AtV.Mul(A.T(), Vt1)
	BtV.Mul(B.T(), Vt1)

	var Qxx, Quu, Qux mat.Dense
	Qxx.Mul(&AtV, A)
	Qxx.Add(&Qxx, Q)

	Quu.Mul(&BtV, B)
	Quu.Add(&Quu, R)
	matx.AddDiag(&Quu, mu)

	var Pt mat.Dense
	Pt.CloneFrom(P.T())
	Qux.Mul(&BtV, A)
	Qux.Add(&Qux, &Pt)

	var AtG, BtG mat.VecDense
	AtG.MulVec(A.T(), Gt1T)
	BtG.MulVec(B.T(), Gt1T)

	Qx := mat.NewVecDense(bx.Len(), nil)
	Qx.AddVec(bx, &AtG)
	Qu := mat.NewVecDense(bu.Len(), nil)
	Qu.AddVec(bu, &BtG)

	QuuInvQux, ok := matx.SolveSPD(&Quu, &Qux)
	if !ok {
		return ErrNonPSDControlHessian
	}
	QuuInvQu, ok := matx.SolveSPD(&Quu, Qu)
	if !ok {
		return ErrNonPSDControlHessian
	}

	nd.K.Scale(-1, QuuInvQux)
	k := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		k.SetVec(i, -QuuInvQu.At(i, 0))
	}
	nd.k.CopyVec(k)

	// V_t = Q_xx + K^T Quu K + K^T Qux + Qux^T K
	var KtQuu, KtQuuK, KtQux, QuxTK mat.Dense
	KtQuu.Mul(nd.K.T(), &Quu)
	KtQuuK.Mul(&KtQuu, nd.K)
	KtQux.Mul(nd.K.T(), &Qux)
	QuxTK.Mul(Qux.T(), nd.K)

	Vt := mat.NewDense(Qxx.RawMatrix().Rows, Qxx.RawMatrix().Cols, nil)
	Vt.Add(&Qxx, &KtQuuK)
	Vt.Add(Vt, &KtQux)
	Vt.Add(Vt, &QuxTK)

	// G_t = Q_x^T + k^T Quu K + k^T Qux + Q_u^T K   (row vector)
	kRow := rowOf(nd.k)
	QuRow := rowOf(Qu)
	var kQuu, kQuuK, kQux, QuK mat.Dense
	kQuu.Mul(kRow, &Quu)
	kQuuK.Mul(&kQuu, nd.K)
	kQux.Mul(kRow, &Qux)
	QuK.Mul(QuRow, nd.K)

	Gt := mat.NewDense(1, Qx.Len(), nil)
	Gt.Copy(rowOf(Qx))
	Gt.Add(Gt, &kQuuK)
	Gt.Add(Gt, &kQux)
	Gt.Add(Gt, &QuK)

	// W_t = W_{t+1} + c0 + 1/2 k^T Quu k + Q_u^T k
	var kQuuVec mat.VecDense
	kQuuVec.MulVec(&Quu, nd.k)
	halfKQuuK := 0.5 * mat.Dot(nd.k, &kQuuVec)
	QuTk := mat.Dot(Qu, nd.k)

	nd.Value.V.Copy(Vt)
	nd.Value.G.Copy(Gt)
	nd.Value.W = jt1.W + nd.costExp.C0 + halfKQuuK + QuTk
	nd.Value.Symmetrize()

	return nil
}

// ComputeControl returns the feedback control u = uHat + alpha*k + K(x -
// xHat) at state x, stepping the feed-forward correction by alpha (§6,
// compute_control).
func (nd *Node) ComputeControl(x *mat.VecDense, alpha float64) *mat.VecDense {
	dx := mat.NewVecDense(x.Len(), nil)
	dx.SubVec(x, nd.x)

	var Kdx mat.VecDense
	Kdx.MulVec(nd.K, dx)

	u := mat.NewVecDense(nd.u.Len(), nil)
	u.AddVec(nd.u, &Kdx)
	u.AddScaledVec(u, alpha, nd.k)
	return u
}

func rowOf(v *mat.VecDense) *mat.Dense {
	n := v.Len()
	row := mat.NewDense(1, n, nil)
	for i := 0; i < n; i++ {
		row.Set(0, i, v.AtVec(i))
	}
	return row
}

// String renders the node's timestep, expansion point, probability and
// the value's constant term W for debugging, mirroring iLQRNode's
// operator<<. The gains K and k are not printed.
func (nd *Node) String() string {
	return fmt.Sprintf("node t=%d x=%v u=%v p=%.3f cost-to-go=%.6g",
		nd.t, mat.Formatted(nd.x.T()), mat.Formatted(nd.u.T()), nd.probability, nd.Value.W)
}
