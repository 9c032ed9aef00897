package plan

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/value"
)

func scalarLQ() (dyn func(x, u *mat.VecDense) *mat.VecDense, cost func(x, u *mat.VecDense, t int) float64) {
	dyn = func(x, u *mat.VecDense) *mat.VecDense {
		next := mat.NewVecDense(1, nil)
		next.SetVec(0, x.AtVec(0)+u.AtVec(0))
		return next
	}
	cost = func(x, u *mat.VecDense, t int) float64 {
		return 0.5 * (x.AtVec(0)*x.AtVec(0) + u.AtVec(0)*u.AtVec(0))
	}
	return
}

func TestBellmanBackupScalarLQR(t *testing.T) {
	dyn, cost := scalarLQ()
	node := NewNodeAt(mat.NewVecDense(1, []float64{0}), mat.NewVecDense(1, []float64{0}), 1, dyn, cost, nil, false, 1)
	if err := node.RefreshExpansion(); err != nil {
		t.Fatal(err)
	}

	jt1 := value.New(1)
	jt1.V.Set(0, 0, 1)

	if err := node.BellmanBackup(jt1, 0); err != nil {
		t.Fatal(err)
	}

	if diff := math.Abs(node.Value.V.At(0, 0) - 1.5); diff > 1e-4 {
		t.Fatalf("V_t = %v, want 1.5 (diff %v)", node.Value.V.At(0, 0), diff)
	}
	if node.Value.AsymmetryNorm() > 1e-9 {
		t.Fatalf("value not symmetric: norm=%v", node.Value.AsymmetryNorm())
	}

	u := node.ComputeControl(mat.NewVecDense(1, []float64{2}), 1.0)
	if diff := math.Abs(u.AtVec(0) - (-1)); diff > 1e-3 {
		t.Fatalf("ComputeControl(x=2) = %v, want -1 (diff %v)", u.AtVec(0), diff)
	}
}

func TestSeedTerminalValueMatchesFinalCostExpansion(t *testing.T) {
	finalCost := func(x *mat.VecDense) float64 {
		return x.AtVec(0)*x.AtVec(0) + 2*x.AtVec(1)*x.AtVec(1)
	}
	node := NewNodeAt(mat.NewVecDense(2, []float64{0.5, -0.5}), mat.NewVecDense(1, nil), 3, nil, nil, finalCost, true, 1)
	if err := node.RefreshExpansion(); err != nil {
		t.Fatal(err)
	}
	node.SeedTerminalValue()

	if diff := math.Abs(node.Value.W - finalCost(mat.NewVecDense(2, []float64{0.5, -0.5}))); diff > 1e-9 {
		t.Fatalf("W=%v want %v", node.Value.W, finalCost(mat.NewVecDense(2, []float64{0.5, -0.5})))
	}
	if node.Value.AsymmetryNorm() > 1e-9 {
		t.Fatalf("seeded terminal value not symmetric: norm=%v", node.Value.AsymmetryNorm())
	}
}

func TestBellmanBackupEscalatesOnIndefiniteControlHessian(t *testing.T) {
	// R=-1 makes Q_uu indefinite at mu=0; damping should eventually rescue it.
	dyn := func(x, u *mat.VecDense) *mat.VecDense {
		next := mat.NewVecDense(1, nil)
		next.SetVec(0, x.AtVec(0)+u.AtVec(0))
		return next
	}
	cost := func(x, u *mat.VecDense, t int) float64 {
		return 0.5 * (x.AtVec(0)*x.AtVec(0) - u.AtVec(0)*u.AtVec(0))
	}
	node := NewNodeAt(mat.NewVecDense(1, []float64{0}), mat.NewVecDense(1, []float64{0}), 1, dyn, cost, nil, false, 1)
	if err := node.RefreshExpansion(); err != nil {
		t.Fatal(err)
	}
	jt1 := value.New(1)

	if err := node.BellmanBackup(jt1, 0); err == nil {
		t.Fatal("expected ErrNonPSDControlHessian at mu=0 for a negative-definite control cost")
	}
	if err := node.BellmanBackup(jt1, 10); err != nil {
		t.Fatalf("damping should rescue the backup: %v", err)
	}
}

func TestSetExpansionPointUpdatesXAndU(t *testing.T) {
	dyn, cost := scalarLQ()
	node := NewNodeAt(mat.NewVecDense(1, []float64{0}), mat.NewVecDense(1, []float64{0}), 1, dyn, cost, nil, false, 1)
	node.SetExpansionPoint(mat.NewVecDense(1, []float64{3}), mat.NewVecDense(1, []float64{4}))
	if node.X().AtVec(0) != 3 || node.U().AtVec(0) != 4 {
		t.Fatalf("x=%v u=%v, want 3,4", node.X().AtVec(0), node.U().AtVec(0))
	}
}

func TestFreshRootHasNoClosures(t *testing.T) {
	root := NewRoot(mat.NewVecDense(1, []float64{0}), mat.NewVecDense(1, []float64{0}))
	if root.Dynamics() != nil || root.Cost() != nil {
		t.Fatal("a freshly constructed root should carry no branch closures")
	}
}
