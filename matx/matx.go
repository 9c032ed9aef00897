// Package matx collects small gonum/mat helpers shared by the solver
// packages: finiteness checks, symmetrization and a damped SPD solve used
// by the backward sweep.
package matx

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// NaNOrInf reports whether any entry of m is NaN or +-Inf.
func NaNOrInf(m mat.Matrix) bool {
	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}

// VecNaNOrInf reports whether any entry of v is NaN or +-Inf.
func VecNaNOrInf(v mat.Vector) bool {
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}

// Symmetrize overwrites dst with 1/2(m + m^T), matching the "force
// symmetric after each update" convention of the quadratic value record.
func Symmetrize(dst *mat.Dense, m mat.Matrix) {
	rows, cols := m.Dims()
	dst.Reset()
	dst.CloneFrom(m)
	var t mat.Dense
	t.CloneFrom(m.T())
	dst.Add(dst, &t)
	dst.Scale(0.5, dst)
	_ = rows
	_ = cols
}

// AsymmetryNorm returns ||m - m^T||_F, used by the value-symmetry invariant.
func AsymmetryNorm(m mat.Matrix) float64 {
	rows, cols := m.Dims()
	var diff mat.Dense
	diff.CloneFrom(m)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			diff.Set(r, c, m.At(r, c)-m.At(c, r))
		}
	}
	return mat.Norm(&diff, 2)
}

// AddDiag adds mu to every diagonal element of m in place. Used to apply the
// Levenberg-Marquardt damping mu*I to Q_uu and V_{t+1}.
func AddDiag(m *mat.Dense, mu float64) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		m.Set(i, i, m.At(i, i)+mu)
	}
}

// SolveSPD solves A*X = B for X assuming A is symmetric positive definite,
// via Cholesky factorization. Returns ok=false if the Cholesky factorization
// fails (A is not PD with the current damping).
func SolveSPD(a *mat.Dense, b mat.Matrix) (*mat.Dense, bool) {
	n, _ := a.Dims()
	var sym mat.SymDense
	sym.Reset()
	symData := make([]float64, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			symData[r*n+c] = a.At(r, c)
		}
	}
	sym = *mat.NewSymDense(n, symData)

	var chol mat.Cholesky
	if ok := chol.Factorize(&sym); !ok {
		return nil, false
	}

	var x mat.Dense
	if err := chol.SolveTo(&x, b); err != nil {
		return nil, false
	}
	return &x, true
}
