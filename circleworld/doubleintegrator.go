package circleworld

import "gonum.org/v1/gonum/mat"

// DoubleIntegrator returns the dynamics/cost/final-cost closures of the
// 1-D double integrator: x=(position,velocity), u=acceleration,
// x' = [[1,dt],[0,1]]x + [[0],[dt]]u, running cost
// 0.5*q*(p^2+v^2) + 0.5*r*u^2, terminal cost 0.5*qTerminal*(p^2+v^2).
func DoubleIntegrator(dt, q, r, qTerminal float64) (dyn func(x, u *mat.VecDense) *mat.VecDense, cost func(x, u *mat.VecDense, t int) float64, finalCost func(x *mat.VecDense) float64) {
	dyn = func(x, u *mat.VecDense) *mat.VecDense {
		next := mat.NewVecDense(2, nil)
		next.SetVec(0, x.AtVec(0)+dt*x.AtVec(1))
		next.SetVec(1, x.AtVec(1)+dt*u.AtVec(0))
		return next
	}
	cost = func(x, u *mat.VecDense, t int) float64 {
		p, v := x.AtVec(0), x.AtVec(1)
		a := u.AtVec(0)
		return 0.5*q*(p*p+v*v) + 0.5*r*a*a
	}
	finalCost = func(x *mat.VecDense) float64 {
		p, v := x.AtVec(0), x.AtVec(1)
		return 0.5 * qTerminal * (p*p + v*v)
	}
	return
}
