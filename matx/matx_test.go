package matx

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSymmetrizeAverages(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 4, 0, 1})
	var sym mat.Dense
	Symmetrize(&sym, m)
	if sym.At(0, 1) != 2 || sym.At(1, 0) != 2 {
		t.Fatalf("symmetrize: got off-diagonal (%v,%v), want (2,2)", sym.At(0, 1), sym.At(1, 0))
	}
}

func TestAsymmetryNormZeroForSymmetric(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 2, 3})
	if n := AsymmetryNorm(m); n != 0 {
		t.Fatalf("AsymmetryNorm of symmetric matrix = %v, want 0", n)
	}
}

func TestAsymmetryNormPositiveForAsymmetric(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 0, 3})
	if n := AsymmetryNorm(m); n <= 0 {
		t.Fatalf("AsymmetryNorm of asymmetric matrix = %v, want > 0", n)
	}
}

func TestAddDiag(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	AddDiag(m, 10)
	if m.At(0, 0) != 11 || m.At(1, 1) != 14 {
		t.Fatalf("AddDiag: got diag (%v,%v), want (11,14)", m.At(0, 0), m.At(1, 1))
	}
}

func TestSolveSPDRecoversIdentitySolution(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{2, 0, 0, 3})
	b := mat.NewDense(2, 1, []float64{4, 9})
	x, ok := SolveSPD(a, b)
	if !ok {
		t.Fatal("SolveSPD failed on an SPD matrix")
	}
	if diff := math.Abs(x.At(0, 0) - 2); diff > 1e-9 {
		t.Fatalf("x[0]=%v want 2", x.At(0, 0))
	}
	if diff := math.Abs(x.At(1, 0) - 3); diff > 1e-9 {
		t.Fatalf("x[1]=%v want 3", x.At(1, 0))
	}
}

func TestSolveSPDRejectsIndefinite(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	b := mat.NewDense(2, 1, []float64{1, 1})
	if _, ok := SolveSPD(a, b); ok {
		t.Fatal("SolveSPD should reject a non-PD matrix")
	}
}

func TestNaNOrInf(t *testing.T) {
	ok := mat.NewDense(1, 1, []float64{1})
	if NaNOrInf(ok) {
		t.Fatal("finite matrix flagged non-finite")
	}
	bad := mat.NewDense(1, 1, []float64{math.NaN()})
	if !NaNOrInf(bad) {
		t.Fatal("NaN matrix not flagged")
	}
}
