package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"phylovi.dev/treevi/internal/benchmark"
	"phylovi.dev/treevi/internal/model"
	"phylovi.dev/treevi/internal/optimize"
	"phylovi.dev/treevi/internal/output"
)

// newBenchmarkCmd creates the benchmark command
func newBenchmarkCmd() *cobra.Command {
	var (
		modelName     string
		optimizerName string
		stepCount     int
		particleCount int
		outPrefix     string
		seed          int64
	)

	cmd := &cobra.Command{
		Use:   "benchmark DATA_PATH",
		Short: "Do a benchmarking comparison to an MCMC run",
		Long: `Do a benchmarking comparison to an MCMC run.

DATA_PATH is a path to a directory, which say is named X. We assume that
X contains:

X_out.t: an MCMC run on a fixed tree topology, and
X.fasta: a FASTA file with the same sequence data as used for MCMC.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataPath := args[0]
			splog := output.NewSplog()
			defer splog.Close()

			splog.Info("Starting validation:")
			splog.Info("  data path:  %s", dataPath)
			splog.Info("  model:      %s", modelName)
			splog.Info("  optimizer:  %s", optimizerName)
			splog.Info("  steps:      %d", stepCount)
			splog.Info("  particles:  %d", particleCount)
			splog.Newline()

			progress := output.NewStepProgressUI(splog)
			progress.Start(stepCount)
			opts := benchmark.Options{
				ModelName:     modelName,
				OptimizerName: optimizerName,
				StepCount:     stepCount,
				ParticleCount: particleCount,
				Seed:          seed,
				Observer: func(record optimize.StepRecord) {
					progress.UpdateStep(record)
				},
			}

			details, trace, fits, err := benchmark.Fixed(dataPath, opts)
			progress.Complete()
			if err != nil {
				return err
			}

			if outPrefix != "" {
				if err := benchmark.WriteOptTrace(outPrefix+"_opt_trace.csv", trace); err != nil {
					return err
				}
				if err := benchmark.WriteFittingResults(outPrefix+"_fitting_results.csv", fits); err != nil {
					return err
				}
				splog.Info("Wrote %s_opt_trace.csv and %s_fitting_results.csv", outPrefix, outPrefix)
				splog.Newline()
			}

			splog.Info("%s", details.String())
			return nil
		},
	}

	// Add flags
	cmd.Flags().StringVar(&modelName, "model", "lognormal",
		fmt.Sprintf("Variational model to fit (one of %s)", strings.Join(model.Names(), ", ")))
	cmd.Flags().StringVar(&optimizerName, "optimizer", "simple",
		fmt.Sprintf("Optimizer to use (one of %s)", strings.Join(optimize.Names(), ", ")))
	cmd.Flags().IntVar(&stepCount, "step-count", 5, "Number of gradient descent steps to take")
	cmd.Flags().IntVar(&particleCount, "particle-count", 100, "Number of particles to use for stochastic gradient estimation")
	cmd.Flags().StringVar(&outPrefix, "out-prefix", "", "Path prefix to which output should be saved")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed; 0 seeds from the clock")

	return cmd
}
