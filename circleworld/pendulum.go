package circleworld

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/ode"
)

// PendulumParams are the physical constants of a torque-controlled
// simple pendulum, plus the RK4 discretization detail.
type PendulumParams struct {
	Mass     float64
	Length   float64
	Gravity  float64
	Damping  float64
	Dt       float64
	Substeps int
}

// DefaultPendulumParams matches the S2 swing-up scenario: dt=0.05.
func DefaultPendulumParams() PendulumParams {
	return PendulumParams{Mass: 1, Length: 1, Gravity: 9.81, Damping: 0.1, Dt: 0.05, Substeps: 4}
}

// Pendulum returns the discrete-time dynamics and cost closures for a
// torque-controlled pendulum swinging up to the upright position
// (theta=0). theta=pi is hanging straight down. The continuous equation
// of motion m*l^2*thetaddot + b*thetadot + m*g*l*sin(theta) = u is
// discretized by RK4 at the configured step, before ever being handed to
// the solver as a plain discrete closure (the solver itself never sees
// continuous time).
//
// The cost uses (1-cos(theta)) rather than theta^2 around the goal so it
// is smooth and 2*pi-periodic — a swing-up trajectory that briefly
// overshoots past upright is not penalized as if it had gone the long
// way around.
func Pendulum(p PendulumParams, qTheta, qOmega, r, terminalWeight float64) (dyn func(x, u *mat.VecDense) *mat.VecDense, cost func(x, u *mat.VecDense, t int) float64, finalCost func(x *mat.VecDense) float64) {
	rk := ode.NewRK4()
	inertia := p.Mass * p.Length * p.Length

	derivative := func(u float64) ode.Derivative {
		return func(_ float64, z *mat.VecDense) *mat.VecDense {
			theta, omega := z.AtVec(0), z.AtVec(1)
			dz := mat.NewVecDense(2, nil)
			dz.SetVec(0, omega)
			thetaddot := (u - p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta)) / inertia
			dz.SetVec(1, thetaddot)
			return dz
		}
	}

	dyn = func(x, u *mat.VecDense) *mat.VecDense {
		return rk.Integrate(derivative(u.AtVec(0)), 0, p.Dt, p.Substeps, x)
	}
	swingCost := func(theta, omega float64) float64 {
		return qTheta*(1-math.Cos(theta)) + 0.5*qOmega*omega*omega
	}
	cost = func(x, u *mat.VecDense, t int) float64 {
		return swingCost(x.AtVec(0), x.AtVec(1)) + 0.5*r*u.AtVec(0)*u.AtVec(0)
	}
	finalCost = func(x *mat.VecDense) float64 {
		return terminalWeight * swingCost(x.AtVec(0), x.AtVec(1))
	}
	return
}
