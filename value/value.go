// Package value implements the quadratic value record J(x) = 1/2 x^T V x +
// G x + W (§4.3, C3) and the probability-weighted mixing used at branch
// points in the backward sweep (§4.4).
package value

import (
	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/matx"
)

// Quadratic is the value-to-go at a single plan node.
type Quadratic struct {
	V *mat.Dense    // n x n, forced symmetric
	G *mat.Dense    // 1 x n
	W float64
}

// New allocates a zeroed quadratic value of state dimension n.
func New(n int) *Quadratic {
	return &Quadratic{
		V: mat.NewDense(n, n, nil),
		G: mat.NewDense(1, n, nil),
		W: 0,
	}
}

// Symmetrize forces V <- 1/2(V + V^T), the invariant the spec requires after
// every backward-sweep update.
func (q *Quadratic) Symmetrize() {
	var sym mat.Dense
	matx.Symmetrize(&sym, q.V)
	q.V.Copy(&sym)
}

// AsymmetryNorm returns ||V - V^T||_F, checked by the value-symmetry
// testable property.
func (q *Quadratic) AsymmetryNorm() float64 {
	return matx.AsymmetryNorm(q.V)
}

// Mix computes the probability-weighted sum of values, J_mix = sum_i p_i *
// J_i, used when a node has multiple successors (the hindsight root, or any
// future split). The caller passes parallel slices of values and
// probabilities; Mix does not itself read branch records.
func Mix(n int, values []*Quadratic, probabilities []float64) *Quadratic {
	mix := New(n)
	for i, v := range values {
		p := probabilities[i]
		if p == 0 {
			continue
		}
		scaledV := mat.NewDense(n, n, nil)
		scaledV.Scale(p, v.V)
		mix.V.Add(mix.V, scaledV)

		scaledG := mat.NewDense(1, n, nil)
		scaledG.Scale(p, v.G)
		mix.G.Add(mix.G, scaledG)

		mix.W += p * v.W
	}
	mix.Symmetrize()
	return mix
}

// CloneFrom copies src into q, reallocating if dimensions differ.
func (q *Quadratic) CloneFrom(src *Quadratic) {
	q.V.CloneFrom(src.V)
	q.G.CloneFrom(src.G)
	q.W = src.W
}
