package ilqr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/taylor"
)

func scalarSpec(r float64) BranchSpec {
	dyn := func(x, u *mat.VecDense) *mat.VecDense {
		next := mat.NewVecDense(1, nil)
		next.SetVec(0, x.AtVec(0)+u.AtVec(0))
		return next
	}
	cost := func(x, u *mat.VecDense, t int) float64 {
		return 0.5 * (x.AtVec(0)*x.AtVec(0) + r*u.AtVec(0)*u.AtVec(0))
	}
	finalCost := func(x *mat.VecDense) float64 {
		return 0.5 * x.AtVec(0) * x.AtVec(0)
	}
	return BranchSpec{Dyn: dyn, Cost: cost, FinalCost: finalCost, Probability: 1}
}

func TestNewRejectsBadPrior(t *testing.T) {
	_, err := New([]BranchSpec{{Probability: 0.3}, {Probability: 0.3}}, 1, 1)
	assert.ErrorIs(t, err, ErrBadPrior)
}

func TestNewRejectsNegativeProbability(t *testing.T) {
	_, err := New([]BranchSpec{{Probability: -0.1}, {Probability: 1.1}}, 1, 1)
	assert.ErrorIs(t, err, ErrBadPrior)
}

func TestSetBranchProbabilitiesRejectsWrongLength(t *testing.T) {
	s, err := New([]BranchSpec{scalarSpec(1)}, 1, 1)
	require.NoError(t, err)

	err = s.SetBranchProbabilities([]float64{0.5, 0.5})
	assert.ErrorIs(t, err, ErrBadPrior)
}

func TestSolveConvergesOnScalarLQR(t *testing.T) {
	s, err := New([]BranchSpec{scalarSpec(1)}, 1, 1)
	require.NoError(t, err)

	x0 := mat.NewVecDense(1, []float64{3})
	u0 := mat.NewVecDense(1, nil)
	result, err := s.Solve(10, x0, u0, DefaultSolveOptions())
	require.NoError(t, err)
	assert.True(t, result.Converged, "expected convergence, got %+v", result)

	states, _, cost, err := s.ForwardPass(0, x0, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, result.Cost, cost, 1e-6, "committed ForwardPass cost should match the Solve result")

	// A stabilizing LQR policy should have driven the state close to the
	// origin by the end of a 10-step horizon from x0=3.
	last := states[len(states)-1]
	assert.Less(t, math.Abs(last.AtVec(0)), 0.5, "final state should approach the origin")
}

func TestSolveMonotonicallyDecreasesCost(t *testing.T) {
	s, err := New([]BranchSpec{scalarSpec(0.1)}, 1, 1)
	require.NoError(t, err)

	x0 := mat.NewVecDense(1, []float64{5})
	u0 := mat.NewVecDense(1, nil)
	opts := DefaultSolveOptions()
	opts.MaxIters = 1

	s.rebuild(5)
	s.root.SetExpansionPoint(x0, u0)
	for _, b := range s.branches {
		b.seedNominal(x0, u0)
	}
	jbar, err := s.nominalCost()
	require.NoError(t, err)

	result, err := s.Solve(5, x0, u0, opts)
	require.NoError(t, err)
	assert.LessOrEqual(t, result.Cost, jbar+1e-9, "cost should not increase after one accepted iteration")
}

func TestDegeneratePriorMatchesSingleBranchSolve(t *testing.T) {
	specA := scalarSpec(1)
	specB := scalarSpec(1)
	specB.Probability = 0
	specA.Probability = 1

	single, err := New([]BranchSpec{scalarSpec(1)}, 1, 1)
	require.NoError(t, err)
	hindsight, err := New([]BranchSpec{specA, specB}, 1, 1)
	require.NoError(t, err)

	x0 := mat.NewVecDense(1, []float64{4})
	u0 := mat.NewVecDense(1, nil)

	rSingle, err := single.Solve(8, x0, u0, DefaultSolveOptions())
	require.NoError(t, err)
	rHindsight, err := hindsight.Solve(8, x0, u0, DefaultSolveOptions())
	require.NoError(t, err)

	assert.InDelta(t, rSingle.Cost, rHindsight.Cost, 1e-4, "a degenerate prior should reproduce the single-branch solve")
}

func TestMixDynamicsExpansionIsProbabilityWeighted(t *testing.T) {
	a1 := mat.NewDense(1, 1, []float64{2})
	b1 := mat.NewDense(1, 1, []float64{1})
	a2 := mat.NewDense(1, 1, []float64{4})
	b2 := mat.NewDense(1, 1, []float64{3})

	mixed := mixDynamicsExpansion(1, 1, []taylor.DynamicsExpansion{
		{A: a1, B: b1},
		{A: a2, B: b2},
	}, []float64{0.25, 0.75})

	assert.InDelta(t, 0.25*2+0.75*4, mixed.A.At(0, 0), 1e-12)
	assert.InDelta(t, 0.25*1+0.75*3, mixed.B.At(0, 0), 1e-12)
}

func TestComputeControlRejectsOutOfRangeTimestep(t *testing.T) {
	s, err := New([]BranchSpec{scalarSpec(1)}, 1, 1)
	require.NoError(t, err)

	x0 := mat.NewVecDense(1, []float64{1})
	u0 := mat.NewVecDense(1, nil)
	_, err = s.Solve(3, x0, u0, DefaultSolveOptions())
	require.NoError(t, err)

	_, err = s.ComputeControl(0, x0, 3, 1.0)
	assert.Error(t, err, "timestep t=T is out of range [0,T)")
}
