// Package circleworld is the demo's external-collaborator simulator: a
// two-dimensional "circle world" of circular obstacles, plus the dynamics
// and cost closures (double integrator, pendulum, diff-drive) the demo
// CLI hands to an ilqr.Solver. None of it is part of the solver's own
// interface; it only has to produce pure, finite closures of the shapes
// taylor.Dynamics/taylor.Cost/taylor.FinalCost expect.
package circleworld

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Obstacle is a single circular obstacle.
type Obstacle struct {
	Center *mat.VecDense // length 2: (x,y)
	Radius float64
}

// World holds the obstacles a diff-drive scenario must steer around.
type World struct {
	Obstacles []Obstacle
}

// NewWorld constructs a world from the given obstacles.
func NewWorld(obstacles ...Obstacle) *World {
	return &World{Obstacles: obstacles}
}

// Cost returns the obstacle-repulsion penalty at position pos (x,y), a
// sum of Gaussian bumps centered on each obstacle. This is smooth and
// finite everywhere, unlike an inverse-distance barrier, so central
// differences never probe a singularity while the line search tries a
// trajectory that grazes an obstacle.
func (w *World) Cost(pos *mat.VecDense, weight, sigma float64) float64 {
	var total float64
	for _, ob := range w.Obstacles {
		dx := pos.AtVec(0) - ob.Center.AtVec(0)
		dy := pos.AtVec(1) - ob.Center.AtVec(1)
		d := math.Sqrt(dx*dx+dy*dy) - ob.Radius
		if d < 0 {
			d = 0
		}
		total += weight * math.Exp(-(d * d) / (2 * sigma * sigma))
	}
	return total
}
