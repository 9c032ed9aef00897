// Package taylor holds the Taylor-expansion records the solver takes
// around a nominal (x, u) pair: the dynamics linearization (A, B) and the
// cost quadraticization (Q, R, P, b_x, b_u, c), per §4.2.
package taylor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/numdiff"
)

// Dynamics maps a (state, control) pair to the next state.
type Dynamics func(x, u *mat.VecDense) *mat.VecDense

// Cost maps a (state, control, timestep) triple to a scalar running cost.
type Cost func(x, u *mat.VecDense, t int) float64

// FinalCost maps a terminal state to a scalar terminal cost.
type FinalCost func(x *mat.VecDense) float64

// DynamicsExpansion is the first-order Taylor expansion of the dynamics at
// (xHat, uHat):
//
//	x' ~= dyn(xHat,uHat) + A(x-xHat) + B(u-uHat)
type DynamicsExpansion struct {
	A *mat.Dense // n x n
	B *mat.Dense // n x m
}

// Linearize differentiates dyn at (xHat, uHat) by central differences.
func Linearize(dyn Dynamics, xHat, uHat *mat.VecDense) (DynamicsExpansion, error) {
	n := xHat.Len()
	m := uHat.Len()

	fOfX := func(z *mat.VecDense) *mat.VecDense { return dyn(z, uHat) }
	fOfU := func(z *mat.VecDense) *mat.VecDense { return dyn(xHat, z) }

	a, err := numdiff.Jacobian(fOfX, xHat)
	if err != nil {
		return DynamicsExpansion{}, err
	}
	b, err := numdiff.Jacobian(fOfU, uHat)
	if err != nil {
		return DynamicsExpansion{}, err
	}
	aDense := denseOf(a, n, n)
	bDense := denseOf(b, n, m)
	return DynamicsExpansion{A: aDense, B: bDense}, nil
}

// CostExpansion is the second-order Taylor expansion of the running cost at
// (xHat, uHat, t):
//
//	c ~= c0 + b_x^T dx + b_u^T du + 1/2 dx^T Q dx + dx^T P du + 1/2 du^T R du
type CostExpansion struct {
	Q  *mat.Dense    // n x n, symmetric
	R  *mat.Dense    // m x m, symmetric
	P  *mat.Dense    // n x m
	Bx *mat.VecDense  // n
	Bu *mat.VecDense  // m
	C0 float64
}

// Quadraticize differentiates the running cost at (xHat, uHat, t).
func Quadraticize(cost Cost, xHat, uHat *mat.VecDense, t int) (CostExpansion, error) {
	n, m := xHat.Len(), uHat.Len()

	c0 := cost(xHat, uHat, t)

	full := func(z *mat.VecDense) float64 {
		x := z.SliceVec(0, n).(*mat.VecDense)
		u := z.SliceVec(n, n+m).(*mat.VecDense)
		return cost(x, u, t)
	}
	z := mat.NewVecDense(n+m, nil)
	z.SliceVec(0, n).(*mat.VecDense).CopyVec(xHat)
	z.SliceVec(n, n+m).(*mat.VecDense).CopyVec(uHat)

	grad, err := numdiff.Gradient(full, z)
	if err != nil {
		return CostExpansion{}, err
	}
	hess, err := numdiff.Hessian(full, z)
	if err != nil {
		return CostExpansion{}, err
	}

	bx := mat.VecDenseCopyOf(grad.SliceVec(0, n))
	bu := mat.VecDenseCopyOf(grad.SliceVec(n, n+m))

	q := mat.NewDense(n, n, nil)
	q.Copy(hess.Slice(0, n, 0, n))
	symmetrizeInPlace(q)

	r := mat.NewDense(m, m, nil)
	r.Copy(hess.Slice(n, n+m, n, n+m))
	symmetrizeInPlace(r)

	p := mat.NewDense(n, m, nil)
	p.Copy(hess.Slice(0, n, n, n+m))

	return CostExpansion{Q: q, R: r, P: p, Bx: bx, Bu: bu, C0: c0}, nil
}

// QuadraticizeFinal differentiates the terminal cost at xHat, returning the
// (Q, b_x, c0) triple. There is no control term at the terminal step, so R,
// P and Bu are left nil rather than built as zero-sized matrices: nothing
// reads them, since a final node's value-to-go is seeded directly from this
// expansion (SeedTerminalValue) rather than run through BellmanBackup.
func QuadraticizeFinal(finalCost FinalCost, xHat *mat.VecDense) (CostExpansion, error) {
	n := xHat.Len()
	c0 := finalCost(xHat)

	scalar := func(z *mat.VecDense) float64 { return finalCost(z) }
	grad, err := numdiff.Gradient(scalar, xHat)
	if err != nil {
		return CostExpansion{}, err
	}
	hess, err := numdiff.Hessian(scalar, xHat)
	if err != nil {
		return CostExpansion{}, err
	}
	q := mat.NewDense(n, n, nil)
	q.Copy(hess)
	symmetrizeInPlace(q)

	return CostExpansion{
		Q:  q,
		Bx: mat.VecDenseCopyOf(grad),
		C0: c0,
	}, nil
}

func symmetrizeInPlace(m *mat.Dense) {
	rows, _ := m.Dims()
	for r := 0; r < rows; r++ {
		for c := r + 1; c < rows; c++ {
			avg := 0.5 * (m.At(r, c) + m.At(c, r))
			m.Set(r, c, avg)
			m.Set(c, r, avg)
		}
	}
}

func denseOf(m mat.Matrix, rows, cols int) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	d := mat.NewDense(rows, cols, nil)
	d.Copy(m)
	return d
}
