package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/circleworld"
	"github.com/trajopt/ilqr/ilqr"
)

var (
	pendT        int
	pendQTheta   float64
	pendQOmega   float64
	pendR        float64
	pendTerminal float64
)

var pendulumCmd = &cobra.Command{
	Use:   "pendulum",
	Short: "Solve the pendulum swing-up scenario (S2)",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := circleworld.DefaultPendulumParams()
		dyn, cost, finalCost := circleworld.Pendulum(params, pendQTheta, pendQOmega, pendR, pendTerminal)

		solver, err := ilqr.New([]ilqr.BranchSpec{{Dyn: dyn, Cost: cost, FinalCost: finalCost, Probability: 1}}, 2, 1)
		if err != nil {
			return err
		}

		x0 := mat.NewVecDense(2, []float64{math.Pi, 0})
		uNominal := mat.NewVecDense(1, nil)

		opts := ilqr.DefaultSolveOptions()
		opts.MaxIters = maxItersFlag
		opts.ConvRatio = convRatioFlag
		opts.Alpha0 = alpha0Flag
		opts.Verbose = verboseFlag

		result, err := solver.Solve(pendT, x0, uNominal, opts)
		if err != nil {
			logger.Error("pendulum solve failed: %v", err)
			return err
		}
		logger.Info("pendulum converged=%v iters=%d cost=%.6g mu=%.3g", result.Converged, result.Iters, result.Cost, result.Mu)
		fmt.Printf("converged=%v iters=%d cost=%.6g\n", result.Converged, result.Iters, result.Cost)

		states, controls, _, err := solver.ForwardPass(0, x0, 1.0)
		if err != nil {
			return err
		}
		return writeTrace(traceFileFlag, 0, states, controls)
	},
}

func init() {
	pendulumCmd.Flags().IntVar(&pendT, "horizon", 100, "timesteps T")
	pendulumCmd.Flags().Float64Var(&pendQTheta, "q-theta", 10.0, "running angle cost weight")
	pendulumCmd.Flags().Float64Var(&pendQOmega, "q-omega", 1.0, "running angular-rate cost weight")
	pendulumCmd.Flags().Float64Var(&pendR, "r", 0.01, "running control cost weight")
	pendulumCmd.Flags().Float64Var(&pendTerminal, "terminal-scale", 50.0, "terminal cost scale")
}
