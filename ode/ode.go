// Package ode is a small Runge-Kutta integrator
// (https://en.wikipedia.org/wiki/Runge-Kutta_methods) used to discretize
// continuous-time demo dynamics (the pendulum scenario) into the
// discrete-time closures the solver requires. It carries forward the
// Butcher-tableau representation of a classic state-space simulator, but
// drops that simulator's linear-system shortcut and per-column batch
// concurrency: every caller here integrates a single trajectory one step
// at a time.
package ode

import "gonum.org/v1/gonum/mat"

// Derivative is a continuous-time vector field dx/dt = f(t, x).
type Derivative func(t float64, x *mat.VecDense) *mat.VecDense

// RungeKutta holds the Butcher tableau describing one explicit
// Runge-Kutta method.
type RungeKutta struct {
	Description butcherTableau
}

// Step advances x from time `from` to time `to` under f, returning the
// new state. It does not mutate x.
func (rk RungeKutta) Step(f Derivative, from, to float64, x *mat.VecDense) *mat.VecDense {
	n := x.Len()
	h := to - from

	k := make([]*mat.VecDense, rk.Description.stages)
	for i := 0; i < rk.Description.stages; i++ {
		probe := mat.NewVecDense(n, nil)
		probe.CopyVec(x)
		for j, a := range rk.Description.rungeKuttaMatrix[i] {
			probe.AddScaledVec(probe, h*a, k[j])
		}
		k[i] = f(from+h*rk.Description.nodes[i], probe)
	}

	next := mat.NewVecDense(n, nil)
	next.CopyVec(x)
	for i, ki := range k {
		next.AddScaledVec(next, h*rk.Description.weights[0][i], ki)
	}
	return next
}

// Integrate repeatedly applies Step across n equal substeps from `from`
// to `to`, the fixed-step discretization the pendulum demo uses to turn
// its continuous dynamics into a per-timestep closure at interval dt.
func (rk RungeKutta) Integrate(f Derivative, from, to float64, steps int, x *mat.VecDense) *mat.VecDense {
	h := (to - from) / float64(steps)
	state := x
	t := from
	for i := 0; i < steps; i++ {
		state = rk.Step(f, t, t+h, state)
		t += h
	}
	return state
}

// butcherTableau describes the approximate solution coefficients of an
// explicit Runge-Kutta method.
// See https://en.wikipedia.org/wiki/Runge-Kutta_methods.
type butcherTableau struct {
	stages           int
	weights          [][]float64
	nodes            []float64
	rungeKuttaMatrix [][]float64
}

// NewRK4 returns the classic fourth-order Runge-Kutta method.
func NewRK4() *RungeKutta {
	var temp butcherTableau
	temp.stages = 4
	temp.nodes = []float64{0, 1. / 2., 1. / 2., 1}
	temp.weights = [][]float64{{1. / 6., 1. / 3., 1. / 3., 1. / 6.}}
	temp.rungeKuttaMatrix = [][]float64{
		nil,
		{1. / 2.},
		{0, 1. / 2.},
		{0, 0, 1.},
	}
	rk := RungeKutta{temp}
	return &rk
}

// NewEulerMethod returns a pointer to a Runge-Kutta that does the Euler method.
func NewEulerMethod() *RungeKutta {
	var temp butcherTableau
	temp.stages = 1
	temp.nodes = []float64{0}
	temp.weights = [][]float64{{1}}
	temp.rungeKuttaMatrix = [][]float64{nil}
	rk := RungeKutta{temp}
	return &rk
}

// NewFehlberg45 implements https://en.wikipedia.org/wiki/Runge%E2%80%93Kutta%E2%80%93Fehlberg_method.
// Only the fifth-order weights are used by Step/Integrate; the embedded
// fourth-order weights this method also defines are unused now that
// AdaptiveCompute's step-doubling error estimate is gone.
func NewFehlberg45() *RungeKutta {
	var temp butcherTableau
	temp.stages = 6
	temp.nodes = []float64{0, 1. / 4., 3. / 8., 12. / 13., 1., 1. / 2.}
	temp.weights = [][]float64{
		{16. / 135., 0, 6656. / 12825., 28561. / 56430., -9. / 50., 2. / 55.},
		{25. / 216., 0, 1408. / 2565., 2197. / 4104., -1. / 5., 0},
	}
	temp.rungeKuttaMatrix = [][]float64{
		nil,
		{1. / 4.},
		{3. / 32., 9. / 32.},
		{1932. / 2197., -7200. / 2197., 7296. / 2197.},
		{439. / 216., -8., 3680. / 513., -845. / 4104.},
		{-8. / 27., 2, -3544. / 2565., 1859. / 4104., -11. / 40.},
	}
	rk := RungeKutta{temp}
	return &rk
}
