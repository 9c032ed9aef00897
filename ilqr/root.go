package ilqr

import (
	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/taylor"
)

// refreshRoot re-linearizes every branch's own dynamics and cost at the
// shared root expansion point (x0,u0), then installs their
// probability-weighted mixture on the root node. This is the "distinct
// root node" realization of the shared-parent design: rather than
// replicating node t=0 per branch and mixing afterwards, the root carries
// one mixed Taylor expansion so a single backward-sweep backup produces
// the feedback law applied before any branch resolves.
func (s *Solver) refreshRoot() error {
	x0, u0 := s.root.X(), s.root.U()

	dynExps := make([]taylor.DynamicsExpansion, len(s.branches))
	costExps := make([]taylor.CostExpansion, len(s.branches))
	probs := make([]float64, len(s.branches))

	for i, b := range s.branches {
		dynExp, err := taylor.Linearize(b.spec.Dyn, x0, u0)
		if err != nil {
			return err
		}
		costExp, err := taylor.Quadraticize(b.spec.Cost, x0, u0, 0)
		if err != nil {
			return err
		}
		dynExps[i] = dynExp
		costExps[i] = costExp
		probs[i] = b.probability
	}

	s.root.SetExpansion(mixDynamicsExpansion(s.n, s.m, dynExps, probs), mixCostExpansion(s.n, s.m, costExps, probs))
	return nil
}

func mixDynamicsExpansion(n, m int, exps []taylor.DynamicsExpansion, probs []float64) taylor.DynamicsExpansion {
	a := mat.NewDense(n, n, nil)
	b := mat.NewDense(n, m, nil)
	for i, e := range exps {
		p := probs[i]
		if p == 0 {
			continue
		}
		var sa, sb mat.Dense
		sa.Scale(p, e.A)
		a.Add(a, &sa)
		sb.Scale(p, e.B)
		b.Add(b, &sb)
	}
	return taylor.DynamicsExpansion{A: a, B: b}
}

func mixCostExpansion(n, m int, exps []taylor.CostExpansion, probs []float64) taylor.CostExpansion {
	q := mat.NewDense(n, n, nil)
	r := mat.NewDense(m, m, nil)
	p := mat.NewDense(n, m, nil)
	bx := mat.NewVecDense(n, nil)
	bu := mat.NewVecDense(m, nil)
	var c0 float64

	for i, e := range exps {
		w := probs[i]
		if w == 0 {
			continue
		}
		var sq, sr, sp mat.Dense
		sq.Scale(w, e.Q)
		q.Add(q, &sq)
		sr.Scale(w, e.R)
		r.Add(r, &sr)
		sp.Scale(w, e.P)
		p.Add(p, &sp)

		var sbx, sbu mat.VecDense
		sbx.ScaleVec(w, e.Bx)
		bx.AddVec(bx, &sbx)
		sbu.ScaleVec(w, e.Bu)
		bu.AddVec(bu, &sbu)

		c0 += w * e.C0
	}
	return taylor.CostExpansion{Q: q, R: r, P: p, Bx: bx, Bu: bu, C0: c0}
}
