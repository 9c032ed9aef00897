package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/circleworld"
	"github.com/trajopt/ilqr/ilqr"
)

var (
	hsT          int
	hsPriorFlag  string
	hsPolicyFlag string
	hsRePrior    string
)

// policyTypes mirrors the four comparison policies the original demo
// driver ran against each other: true hindsight planning, planning under
// the known-true branch, planning under the prior's most probable
// branch, and independently-planned control blending. Only "hindsight" is
// solver logic; the other three are demo-level compositions over the same
// branch specs.
const (
	policyHindsight            = "hindsight"
	policyTrueILQR             = "ilqr_true"
	policyArgmaxILQR           = "argmax"
	policyProbWeightedControl  = "weighted"
)

var hindsightCmd = &cobra.Command{
	Use:   "hindsight",
	Short: "Solve the two-obstacle diff-drive hindsight scenario (S3)",
	RunE: func(cmd *cobra.Command, args []string) error {
		prior, err := parsePrior(hsPriorFlag)
		if err != nil {
			return err
		}

		goal := mat.NewVecDense(2, []float64{10, 0})
		leftWorld := circleworld.NewWorld(circleworld.Obstacle{Center: mat.NewVecDense(2, []float64{5, 1}), Radius: 1})
		rightWorld := circleworld.NewWorld(circleworld.Obstacle{Center: mat.NewVecDense(2, []float64{5, -1}), Radius: 1})

		params := circleworld.DiffDriveParams{
			Dt: 0.1, Goal: goal, PositionWeight: 1, ControlWeight: 0.05,
			ObstacleWeight: 50, ObstacleSigma: 0.75, TerminalScale: 20,
		}

		dynL, costL, finalL := circleworld.DiffDrive(params, leftWorld)
		dynR, costR, finalR := circleworld.DiffDrive(params, rightWorld)

		specs := []ilqr.BranchSpec{
			{Dyn: dynL, Cost: costL, FinalCost: finalL, Probability: prior[0]},
			{Dyn: dynR, Cost: costR, FinalCost: finalR, Probability: prior[1]},
		}

		x0 := mat.NewVecDense(3, []float64{0, 0, 0})
		uNominal := mat.NewVecDense(2, nil)

		opts := ilqr.DefaultSolveOptions()
		opts.MaxIters = maxItersFlag
		opts.ConvRatio = convRatioFlag
		opts.Alpha0 = alpha0Flag
		opts.Verbose = verboseFlag

		switch hsPolicyFlag {
		case policyHindsight:
			return runHindsight(specs, x0, uNominal, opts)
		case policyTrueILQR:
			return runSingleBranch(specs[0], x0, uNominal, opts)
		case policyArgmaxILQR:
			favorite := 0
			if prior[1] > prior[0] {
				favorite = 1
			}
			return runSingleBranch(specs[favorite], x0, uNominal, opts)
		case policyProbWeightedControl:
			return runProbWeightedControl(specs, x0, uNominal, opts)
		default:
			return fmt.Errorf("ilqrdemo: unknown policy %q", hsPolicyFlag)
		}
	},
}

func runHindsight(specs []ilqr.BranchSpec, x0, uNominal *mat.VecDense, opts ilqr.SolveOptions) error {
	solver, err := ilqr.New(specs, 3, 2)
	if err != nil {
		return err
	}
	result, err := solver.Solve(hsT, x0, uNominal, opts)
	if err != nil {
		logger.Error("hindsight solve failed: %v", err)
		return err
	}
	logger.Info("hindsight converged=%v iters=%d cost=%.6g", result.Converged, result.Iters, result.Cost)
	fmt.Printf("hindsight: converged=%v iters=%d cost=%.6g\n", result.Converged, result.Iters, result.Cost)

	states, controls, _, err := solver.ForwardPass(0, x0, 1.0)
	if err != nil {
		return err
	}
	if err := writeTrace(traceFileFlag, 0, states, controls); err != nil {
		return err
	}

	if hsRePrior == "" {
		return nil
	}
	rePrior, err := parsePrior(hsRePrior)
	if err != nil {
		return err
	}
	if err := solver.SetBranchProbabilities(rePrior); err != nil {
		return err
	}
	result, err = solver.Solve(hsT, x0, uNominal, opts)
	if err != nil {
		logger.Error("hindsight re-solve failed: %v", err)
		return err
	}
	logger.Info("hindsight re-solved with prior=%v converged=%v iters=%d cost=%.6g", rePrior, result.Converged, result.Iters, result.Cost)
	fmt.Printf("hindsight (re-prior %v): converged=%v iters=%d cost=%.6g\n", rePrior, result.Converged, result.Iters, result.Cost)
	return nil
}

func runSingleBranch(spec ilqr.BranchSpec, x0, uNominal *mat.VecDense, opts ilqr.SolveOptions) error {
	spec.Probability = 1
	solver, err := ilqr.New([]ilqr.BranchSpec{spec}, 3, 2)
	if err != nil {
		return err
	}
	result, err := solver.Solve(hsT, x0, uNominal, opts)
	if err != nil {
		return err
	}
	fmt.Printf("%s: converged=%v iters=%d cost=%.6g\n", hsPolicyFlag, result.Converged, result.Iters, result.Cost)
	states, controls, _, err := solver.ForwardPass(0, x0, 1.0)
	if err != nil {
		return err
	}
	return writeTrace(traceFileFlag, 0, states, controls)
}

// runProbWeightedControl solves each branch independently as its own
// chain and blends the resulting controls by probability, rather than
// mixing values at a shared root. This is deliberately not hindsight
// planning: it demonstrates the simpler alternative policy the original
// demo compared HINDSIGHT against.
func runProbWeightedControl(specs []ilqr.BranchSpec, x0, uNominal *mat.VecDense, opts ilqr.SolveOptions) error {
	solvers := make([]*ilqr.Solver, len(specs))
	for i, spec := range specs {
		s := spec
		s.Probability = 1
		solver, err := ilqr.New([]ilqr.BranchSpec{s}, 3, 2)
		if err != nil {
			return err
		}
		if _, err := solver.Solve(hsT, x0, uNominal, opts); err != nil {
			return err
		}
		solvers[i] = solver
	}

	blended := mat.NewVecDense(2, nil)
	for i, solver := range solvers {
		u, err := solver.ComputeControl(0, x0, 0, 1.0)
		if err != nil {
			return err
		}
		blended.AddScaledVec(blended, specs[i].Probability, u)
	}
	fmt.Printf("weighted: u0=%v\n", mat.Formatted(blended.T()))
	return nil
}

func parsePrior(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("ilqrdemo: prior must have exactly two comma-separated entries, got %q", s)
	}
	prior := make([]float64, 2)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("ilqrdemo: invalid prior %q: %w", s, err)
		}
		prior[i] = v
	}
	return prior, nil
}

func init() {
	hindsightCmd.Flags().IntVar(&hsT, "horizon", 80, "timesteps T")
	hindsightCmd.Flags().StringVar(&hsPriorFlag, "prior", "0.5,0.5", "branch prior probabilities, comma-separated")
	hindsightCmd.Flags().StringVar(&hsPolicyFlag, "policy", policyHindsight, "hindsight|ilqr_true|argmax|weighted")
	hindsightCmd.Flags().StringVar(&hsRePrior, "re-prior", "", "if set, re-solve after SetBranchProbabilities with this prior")
}
