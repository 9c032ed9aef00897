package main

import (
	"github.com/spf13/cobra"

	"github.com/trajopt/ilqr/logx"
)

var logger *logx.Logger

var rootCmd = &cobra.Command{
	Use:   "ilqrdemo",
	Short: "Run iLQR and hindsight-tree demo scenarios",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logx.INFO
		if verboseFlag {
			level = logx.DEBUG
		}
		logger = logx.NewStdoutLogger(level)
		return nil
	},
}

var (
	verboseFlag   bool
	maxItersFlag  int
	convRatioFlag float64
	alpha0Flag    float64
	traceFileFlag string
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "strict convergence mode: iteration cap without convergence is a failure")
	rootCmd.PersistentFlags().IntVar(&maxItersFlag, "max-iters", 1000, "outer iteration cap")
	rootCmd.PersistentFlags().Float64Var(&convRatioFlag, "conv-ratio", 1e-4, "cost-ratio convergence threshold")
	rootCmd.PersistentFlags().Float64Var(&alpha0Flag, "alpha0", 1.0, "initial line-search step size")
	rootCmd.PersistentFlags().StringVar(&traceFileFlag, "trace", "", "path to write a per-timestep CSV trace (default: none)")

	rootCmd.AddCommand(doubleIntegratorCmd)
	rootCmd.AddCommand(pendulumCmd)
	rootCmd.AddCommand(hindsightCmd)
}
