// Package numdiff computes Jacobians and Hessians of user-supplied closures
// by central differences, since the solver has no access to analytic
// derivatives for the dynamics and cost functions it is handed (§4.1).
package numdiff

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/matx"
)

// ErrBadClosure is returned when a user closure evaluates to a non-finite
// value at a point the differentiator needed to probe.
var ErrBadClosure = errors.New("numdiff: closure returned a non-finite value")

const (
	// baseStep is 2^-17, the default relative step size.
	baseStep = 1.0 / 131072.0
	// minStep floors the absolute step size so differentiation near zero
	// doesn't degenerate to a zero step.
	minStep = 1e-5
)

// Step returns the central-difference step size for coordinate value x:
// a fixed fraction of its magnitude, floored at minStep.
func Step(x float64) float64 {
	s := baseStep * math.Abs(x)
	if s < minStep {
		return minStep
	}
	return s
}

// VectorFunc maps R^n to R^m.
type VectorFunc func(z *mat.VecDense) *mat.VecDense

// ScalarFunc maps R^n to R.
type ScalarFunc func(z *mat.VecDense) float64

func checkFinite(v float64, z *mat.VecDense) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: f(%v) = %v", ErrBadClosure, formatVec(z), v)
	}
	return nil
}

func formatVec(z *mat.VecDense) string {
	return fmt.Sprintf("%v", mat.Formatted(z.T()))
}

// Jacobian computes the m by n Jacobian of f at z by central differences,
// one column per input coordinate.
func Jacobian(f VectorFunc, z *mat.VecDense) (*mat.Dense, error) {
	n := z.Len()
	f0 := f(z)
	m := f0.Len()
	if matx.VecNaNOrInf(f0) {
		return nil, fmt.Errorf("%w: f(%v) is non-finite", ErrBadClosure, formatVec(z))
	}

	jac := mat.NewDense(m, n, nil)
	perturbed := mat.NewVecDense(n, nil)
	perturbed.CopyVec(z)

	for j := 0; j < n; j++ {
		h := Step(z.AtVec(j))

		perturbed.SetVec(j, z.AtVec(j)+h)
		fPlus := f(perturbed)
		perturbed.SetVec(j, z.AtVec(j)-h)
		fMinus := f(perturbed)
		perturbed.SetVec(j, z.AtVec(j))

		if matx.VecNaNOrInf(fPlus) || matx.VecNaNOrInf(fMinus) {
			return nil, fmt.Errorf("%w: derivative probe near %v is non-finite", ErrBadClosure, formatVec(z))
		}

		for i := 0; i < m; i++ {
			jac.Set(i, j, (fPlus.AtVec(i)-fMinus.AtVec(i))/(2*h))
		}
	}
	if matx.NaNOrInf(jac) {
		return nil, fmt.Errorf("%w: Jacobian at %v overflowed to non-finite", ErrBadClosure, formatVec(z))
	}
	return jac, nil
}

// Gradient computes the gradient of scalar-valued f at z by central
// differences.
func Gradient(f ScalarFunc, z *mat.VecDense) (*mat.VecDense, error) {
	n := z.Len()
	grad := mat.NewVecDense(n, nil)
	perturbed := mat.NewVecDense(n, nil)
	perturbed.CopyVec(z)

	for i := 0; i < n; i++ {
		h := Step(z.AtVec(i))

		perturbed.SetVec(i, z.AtVec(i)+h)
		fPlus := f(perturbed)
		perturbed.SetVec(i, z.AtVec(i)-h)
		fMinus := f(perturbed)
		perturbed.SetVec(i, z.AtVec(i))

		if err := checkFinite(fPlus, z); err != nil {
			return nil, err
		}
		if err := checkFinite(fMinus, z); err != nil {
			return nil, err
		}
		grad.SetVec(i, (fPlus-fMinus)/(2*h))
	}
	if matx.VecNaNOrInf(grad) {
		return nil, fmt.Errorf("%w: gradient at %v overflowed to non-finite", ErrBadClosure, formatVec(z))
	}
	return grad, nil
}

// Hessian computes the Hessian of scalar-valued f at z using mixed-partial
// central differences (§4.1):
//
//	H_ij = [f(z+e_i+e_j) - f(z+e_i-e_j) - f(z-e_i+e_j) + f(z-e_i-e_j)] / (4*eps_i*eps_j)
func Hessian(f ScalarFunc, z *mat.VecDense) (*mat.Dense, error) {
	n := z.Len()
	hess := mat.NewDense(n, n, nil)
	probe := mat.NewVecDense(n, nil)

	steps := make([]float64, n)
	for i := 0; i < n; i++ {
		steps[i] = Step(z.AtVec(i))
	}

	eval := func(si, sj int, hi, hj float64) (float64, error) {
		probe.CopyVec(z)
		probe.SetVec(si, z.AtVec(si)+hi)
		if si != sj {
			probe.SetVec(sj, z.AtVec(sj)+hj)
		} else {
			probe.SetVec(si, z.AtVec(si)+hi+hj)
		}
		v := f(probe)
		if err := checkFinite(v, z); err != nil {
			return 0, err
		}
		return v, nil
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			hi, hj := steps[i], steps[j]
			fpp, err := eval(i, j, hi, hj)
			if err != nil {
				return nil, err
			}
			fpm, err := eval(i, j, hi, -hj)
			if err != nil {
				return nil, err
			}
			fmp, err := eval(i, j, -hi, hj)
			if err != nil {
				return nil, err
			}
			fmm, err := eval(i, j, -hi, -hj)
			if err != nil {
				return nil, err
			}
			v := (fpp - fpm - fmp + fmm) / (4 * hi * hj)
			hess.Set(i, j, v)
			hess.Set(j, i, v)
		}
	}
	if matx.NaNOrInf(hess) {
		return nil, fmt.Errorf("%w: Hessian at %v overflowed to non-finite", ErrBadClosure, formatVec(z))
	}
	return hess, nil
}

