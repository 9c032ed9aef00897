package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/circleworld"
	"github.com/trajopt/ilqr/ilqr"
)

var (
	diT      int
	diDt     float64
	diQ      float64
	diR      float64
	diQFinal float64
)

var doubleIntegratorCmd = &cobra.Command{
	Use:   "doubleintegrator",
	Short: "Solve the 1-D double integrator scenario (S1)",
	RunE: func(cmd *cobra.Command, args []string) error {
		dyn, cost, finalCost := circleworld.DoubleIntegrator(diDt, diQ, diR, diQFinal)

		solver, err := ilqr.New([]ilqr.BranchSpec{{Dyn: dyn, Cost: cost, FinalCost: finalCost, Probability: 1}}, 2, 1)
		if err != nil {
			return err
		}

		x0 := mat.NewVecDense(2, []float64{5, 0})
		uNominal := mat.NewVecDense(1, nil)

		opts := ilqr.DefaultSolveOptions()
		opts.MaxIters = maxItersFlag
		opts.ConvRatio = convRatioFlag
		opts.Alpha0 = alpha0Flag
		opts.Verbose = verboseFlag

		result, err := solver.Solve(diT, x0, uNominal, opts)
		if err != nil {
			logger.Error("double integrator solve failed: %v", err)
			return err
		}
		logger.Info("double integrator converged=%v iters=%d cost=%.6g mu=%.3g", result.Converged, result.Iters, result.Cost, result.Mu)
		fmt.Printf("converged=%v iters=%d cost=%.6g\n", result.Converged, result.Iters, result.Cost)

		states, controls, _, err := solver.ForwardPass(0, x0, 1.0)
		if err != nil {
			return err
		}
		return writeTrace(traceFileFlag, 0, states, controls)
	},
}

func init() {
	doubleIntegratorCmd.Flags().IntVar(&diT, "horizon", 50, "timesteps T")
	doubleIntegratorCmd.Flags().Float64Var(&diDt, "dt", 0.1, "timestep duration")
	doubleIntegratorCmd.Flags().Float64Var(&diQ, "q", 1.0, "running state cost weight")
	doubleIntegratorCmd.Flags().Float64Var(&diR, "r", 0.01, "running control cost weight")
	doubleIntegratorCmd.Flags().Float64Var(&diQFinal, "q-final", 10.0, "terminal state cost weight")
}
