// Package benchmark runs a variational fit against a fixed-topology MCMC
// reference run and reports the optimization trace and fitted marginals.
package benchmark

import (
	"fmt"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/stat"

	"phylovi.dev/treevi/internal/burrito"
	"phylovi.dev/treevi/internal/optimize"
)

// Options configures a benchmark run.
type Options struct {
	ModelName     string
	OptimizerName string
	StepCount     int
	ParticleCount int
	// Seed fixes the run when non-zero.
	Seed int64
	// Observer, when set, is called once per completed gradient step.
	Observer burrito.StepObserver
}

// RunDetails summarizes one benchmark run.
type RunDetails struct {
	DataPath      string
	ModelName     string
	OptimizerName string
	StepCount     int
	ParticleCount int
	BranchCount   int
	TreeCount     int
	FinalElbo     float64
	Elapsed       time.Duration
}

// SplitFit is one row of the fitting-results artifact: the fitted
// variational marginal for a split next to the MCMC reference for the same
// split.
type SplitFit struct {
	SplitIndex      int
	FittedMean      float64
	FittedStdDev    float64
	MCMCMean        float64
	MCMCSampleCount int
}

// Fixed fits the variational model on the data directory's MCMC run. The
// directory X is expected to contain X_out.t (an MCMC run on a fixed tree
// topology) and X.fasta (the sequence data used for that run).
func Fixed(dataPath string, opts Options) (RunDetails, []optimize.StepRecord, []SplitFit, error) {
	base := filepath.Base(filepath.Clean(dataPath))
	cfg := burrito.Config{
		MCMCNexusPath: filepath.Join(dataPath, base+"_out.t"),
		FastaPath:     filepath.Join(dataPath, base+".fasta"),
		ModelName:     opts.ModelName,
		OptimizerName: opts.OptimizerName,
		ParticleCount: opts.ParticleCount,
		Seed:          opts.Seed,
	}
	b, err := burrito.New(cfg)
	if err != nil {
		return RunDetails{}, nil, nil, err
	}

	start := time.Now()
	if err := b.GradientSteps(opts.StepCount, opts.Observer); err != nil {
		return RunDetails{}, nil, nil, err
	}
	elapsed := time.Since(start)

	trace := b.Optimizer().Trace()
	details := RunDetails{
		DataPath:      dataPath,
		ModelName:     opts.ModelName,
		OptimizerName: opts.OptimizerName,
		StepCount:     opts.StepCount,
		ParticleCount: opts.ParticleCount,
		BranchCount:   len(b.BranchLengths()),
		TreeCount:     b.Instance().TreeCount(),
		Elapsed:       elapsed,
	}
	if len(trace) > 0 {
		details.FinalElbo = trace[len(trace)-1].Elbo
	}

	fits, err := fittingResults(b)
	if err != nil {
		return RunDetails{}, nil, nil, err
	}
	return details, trace, fits, nil
}

// fittingResults compares the fitted marginals per split against the branch
// lengths the MCMC run assigned to the same split.
func fittingResults(b *burrito.Burrito) ([]SplitFit, error) {
	splitLengths, err := b.Instance().SplitLengths()
	if err != nil {
		return nil, err
	}
	means := b.Model().Means()
	devs := b.Model().StdDevs()
	if len(means) != len(splitLengths) {
		return nil, fmt.Errorf("model reports %d splits, engine reports %d", len(means), len(splitLengths))
	}
	fits := make([]SplitFit, len(means))
	for j := range fits {
		fit := SplitFit{
			SplitIndex:      j,
			FittedMean:      means[j],
			FittedStdDev:    devs[j],
			MCMCSampleCount: len(splitLengths[j]),
		}
		if len(splitLengths[j]) > 0 {
			fit.MCMCMean = stat.Mean(splitLengths[j], nil)
		}
		fits[j] = fit
	}
	return fits, nil
}

// String renders run details for console display.
func (d RunDetails) String() string {
	return fmt.Sprintf(
		"data path:      %s\nmodel:          %s\noptimizer:      %s\nsteps:          %d\nparticles:      %d\nbranches:       %d\ntrees loaded:   %d\nfinal ELBO:     %.4f\nelapsed:        %s",
		d.DataPath, d.ModelName, d.OptimizerName, d.StepCount, d.ParticleCount,
		d.BranchCount, d.TreeCount, d.FinalElbo, d.Elapsed.Round(time.Millisecond))
}
