package circleworld

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// DiffDriveParams collects a differential-drive vehicle's kinematic step
// size and the goal/obstacle/control cost weights of the S3 scenario.
type DiffDriveParams struct {
	Dt             float64
	Goal           *mat.VecDense // length 2: (x,y)
	PositionWeight float64
	ControlWeight  float64
	ObstacleWeight float64
	ObstacleSigma  float64
	TerminalScale  float64
}

// DiffDrive returns the dynamics/cost closures of a kinematic
// differential-drive vehicle (state (x,y,theta), control (v,omega))
// steering toward Goal while a World's obstacles add a smooth repulsion
// penalty. Two DiffDrive calls against different Worlds but identical
// params/Goal are exactly the two hypothesis branches of the hindsight
// scenario.
func DiffDrive(p DiffDriveParams, world *World) (dyn func(x, u *mat.VecDense) *mat.VecDense, cost func(x, u *mat.VecDense, t int) float64, finalCost func(x *mat.VecDense) float64) {
	dyn = func(x, u *mat.VecDense) *mat.VecDense {
		px, py, theta := x.AtVec(0), x.AtVec(1), x.AtVec(2)
		v, omega := u.AtVec(0), u.AtVec(1)

		next := mat.NewVecDense(3, nil)
		next.SetVec(0, px+p.Dt*v*math.Cos(theta))
		next.SetVec(1, py+p.Dt*v*math.Sin(theta))
		next.SetVec(2, theta+p.Dt*omega)
		return next
	}

	goalCost := func(x *mat.VecDense) float64 {
		dx := x.AtVec(0) - p.Goal.AtVec(0)
		dy := x.AtVec(1) - p.Goal.AtVec(1)
		return 0.5 * p.PositionWeight * (dx*dx + dy*dy)
	}
	posOf := func(x *mat.VecDense) *mat.VecDense {
		return mat.NewVecDense(2, []float64{x.AtVec(0), x.AtVec(1)})
	}

	cost = func(x, u *mat.VecDense, t int) float64 {
		v, omega := u.AtVec(0), u.AtVec(1)
		return goalCost(x) + world.Cost(posOf(x), p.ObstacleWeight, p.ObstacleSigma) + 0.5*p.ControlWeight*(v*v+omega*omega)
	}
	finalCost = func(x *mat.VecDense) float64 {
		return p.TerminalScale * goalCost(x)
	}
	return
}
