package numdiff

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestJacobianLinearMap(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{2, 3, -1, 4})
	f := func(z *mat.VecDense) *mat.VecDense {
		out := mat.NewVecDense(2, nil)
		out.MulVec(a, z)
		return out
	}
	z := mat.NewVecDense(2, []float64{1, 2})
	jac, err := Jacobian(f, z)
	if err != nil {
		t.Fatal(err)
	}
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			if diff := math.Abs(jac.At(r, c) - a.At(r, c)); diff > 1e-5 {
				t.Fatalf("jac[%d,%d]=%v want %v", r, c, jac.At(r, c), a.At(r, c))
			}
		}
	}
}

func TestGradientQuadratic(t *testing.T) {
	// f(x) = x0^2 + 2*x1^2, grad = (2*x0, 4*x1)
	f := func(z *mat.VecDense) float64 {
		return z.AtVec(0)*z.AtVec(0) + 2*z.AtVec(1)*z.AtVec(1)
	}
	z := mat.NewVecDense(2, []float64{3, -1})
	grad, err := Gradient(f, z)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{6, -4}
	for i, w := range want {
		if diff := math.Abs(grad.AtVec(i) - w); diff > 1e-4 {
			t.Fatalf("grad[%d]=%v want %v", i, grad.AtVec(i), w)
		}
	}
}

func TestHessianQuadraticForm(t *testing.T) {
	// f(x) = 0.5*x^T Q x with Q = [[4,1],[1,2]]. Hessian should recover Q.
	q := mat.NewDense(2, 2, []float64{4, 1, 1, 2})
	f := func(z *mat.VecDense) float64 {
		var qz mat.VecDense
		qz.MulVec(q, z)
		return 0.5 * mat.Dot(z, &qz)
	}
	z := mat.NewVecDense(2, []float64{0.5, -0.5})
	hess, err := Hessian(f, z)
	if err != nil {
		t.Fatal(err)
	}
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			if diff := math.Abs(hess.At(r, c) - q.At(r, c)); diff > 1e-3 {
				t.Fatalf("hess[%d,%d]=%v want %v", r, c, hess.At(r, c), q.At(r, c))
			}
		}
	}
}

func TestJacobianRejectsNonFiniteClosure(t *testing.T) {
	f := func(z *mat.VecDense) *mat.VecDense {
		out := mat.NewVecDense(1, nil)
		out.SetVec(0, math.NaN())
		return out
	}
	_, err := Jacobian(f, mat.NewVecDense(1, []float64{1}))
	if !errors.Is(err, ErrBadClosure) {
		t.Fatalf("want ErrBadClosure, got %v", err)
	}
}

func TestGradientRejectsInfiniteClosure(t *testing.T) {
	f := func(z *mat.VecDense) float64 {
		if z.AtVec(0) > 0.999 {
			return math.Inf(1)
		}
		return z.AtVec(0)
	}
	_, err := Gradient(f, mat.NewVecDense(1, []float64{1}))
	if !errors.Is(err, ErrBadClosure) {
		t.Fatalf("want ErrBadClosure, got %v", err)
	}
}

func TestJacobianRejectsOverflowingDerivative(t *testing.T) {
	// Each probe value is finite, but the symmetric difference divided by
	// the floored step overflows to +Inf before the non-finite closure
	// value check would ever see it.
	f := func(z *mat.VecDense) *mat.VecDense {
		out := mat.NewVecDense(1, nil)
		if z.AtVec(0) > 0 {
			out.SetVec(0, math.MaxFloat64)
		} else {
			out.SetVec(0, -math.MaxFloat64)
		}
		return out
	}
	_, err := Jacobian(f, mat.NewVecDense(1, []float64{0}))
	if !errors.Is(err, ErrBadClosure) {
		t.Fatalf("want ErrBadClosure, got %v", err)
	}
}

func TestStepFloorsNearZero(t *testing.T) {
	if got := Step(0); got != minStep {
		t.Fatalf("Step(0)=%v want %v", got, minStep)
	}
	if got := Step(1e6); got <= minStep {
		t.Fatalf("Step(1e6)=%v should exceed the floor", got)
	}
}
