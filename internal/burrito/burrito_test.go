package burrito

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"phylovi.dev/treevi/internal/errors"
	"phylovi.dev/treevi/internal/model"
	"phylovi.dev/treevi/internal/optimize"
	"phylovi.dev/treevi/testhelpers"
)

func newTestBurrito(t *testing.T) *Burrito {
	t.Helper()
	scene := testhelpers.NewScene(t)
	b, err := New(Config{
		MCMCNexusPath: scene.NexusPath(),
		FastaPath:     scene.FastaPath(),
		ModelName:     "lognormal",
		OptimizerName: "simple",
		ParticleCount: 10,
		Seed:          42,
	})
	require.NoError(t, err)
	return b
}

func TestNewRejectsUnknownNames(t *testing.T) {
	scene := testhelpers.NewScene(t)
	base := Config{
		MCMCNexusPath: scene.NexusPath(),
		FastaPath:     scene.FastaPath(),
		ParticleCount: 10,
		Seed:          42,
	}

	cfg := base
	cfg.ModelName = "nope"
	cfg.OptimizerName = "simple"
	_, err := New(cfg)
	require.ErrorIs(t, err, errors.ErrUnknownModel)

	cfg = base
	cfg.ModelName = "lognormal"
	cfg.OptimizerName = "nope"
	_, err = New(cfg)
	require.ErrorIs(t, err, errors.ErrUnknownOptimizer)
}

func TestNewRejectsMissingFiles(t *testing.T) {
	_, err := New(Config{
		MCMCNexusPath: "/nonexistent/X_out.t",
		FastaPath:     "/nonexistent/X.fasta",
		ModelName:     "lognormal",
		OptimizerName: "simple",
		ParticleCount: 10,
	})
	require.Error(t, err)
}

func TestIndexMapsAreMutualInverses(t *testing.T) {
	b := newTestBurrito(t)
	n := len(b.BranchLengths())
	require.Equal(t, 7, n)
	require.Len(t, b.BranchToSplit(), n)
	require.Len(t, b.SplitToBranch(), n)

	for branch, split := range b.BranchToSplit() {
		require.Equal(t, branch, b.SplitToBranch()[split])
	}
	for split, branch := range b.SplitToBranch() {
		require.Equal(t, split, b.BranchToSplit()[branch])
	}
}

func TestTranslationRoundTrip(t *testing.T) {
	b := newTestBurrito(t)
	v := []float64{1, 2, 3, 4, 5, 6, 7}
	require.Equal(t, v, b.TranslateSplitsToBranches(b.TranslateBranchesToSplits(v)))
	require.Equal(t, v, b.TranslateBranchesToSplits(b.TranslateSplitsToBranches(v)))
}

func TestTranslationWithKnownPermutation(t *testing.T) {
	b := &Burrito{
		branchToSplit: []int{2, 0, 3, 1, 4},
		splitToBranch: []int{1, 3, 0, 2, 4},
	}
	branchVector := []float64{10, 20, 30, 40, 50}

	// Entry j of the split-ordered vector is the branch value whose split
	// index is j.
	require.Equal(t, []float64{20, 40, 10, 30, 50}, b.TranslateBranchesToSplits(branchVector))
	// Entry i of the branch-ordered vector is the split value at branch i's
	// split index.
	require.Equal(t, []float64{30, 10, 40, 20, 50}, b.TranslateSplitsToBranches(branchVector))
	require.Equal(t, branchVector, b.TranslateSplitsToBranches(b.TranslateBranchesToSplits(branchVector)))
}

func TestSampleTopologyRebuildsState(t *testing.T) {
	b := newTestBurrito(t)
	before := append([]float64(nil), b.BranchLengths()...)
	require.NoError(t, b.SampleTopology())
	require.Len(t, b.BranchLengths(), len(before))
	// Maps must be a valid inverse pair after resampling too.
	for branch, split := range b.BranchToSplit() {
		require.Equal(t, branch, b.SplitToBranch()[split])
	}
}

func TestLogExpPrior(t *testing.T) {
	particles := mat.NewDense(2, 3, []float64{
		0.1, 0.2, 0.3,
		0.1, 0.2, 0.4,
	})
	prior := LogExpPrior(particles, 10)
	require.Len(t, prior, 2)
	require.InDelta(t, math.Log(10)-10*(0.1+0.2+0.3), prior[0], 1e-12)
	// Strictly decreasing in every coordinate.
	require.Greater(t, prior[0], prior[1])

	require.Equal(t, -10.0, GradLogExpPrior(10))
	require.Equal(t, -3.0, GradLogExpPrior(3))
}

func TestEvaluateOneMutatesSharedState(t *testing.T) {
	b := newTestBurrito(t)
	splits := make([]float64, len(b.BranchLengths()))
	for i := range splits {
		splits[i] = 0.05 * float64(i+1)
	}

	logLike, _ := b.logLikeOrGradWith(splits, false)
	require.False(t, math.IsNaN(logLike))
	require.False(t, math.IsInf(logLike, 0))
	// The write went through to the live engine view, in branch order.
	require.Equal(t, b.TranslateSplitsToBranches(splits), b.BranchLengths())

	_, grad := b.logLikeOrGradWith(splits, true)
	require.Len(t, grad, len(splits))
}

func TestPosteriorBatchEvaluation(t *testing.T) {
	b := newTestBurrito(t)
	n := len(b.BranchLengths())
	particles := mat.NewDense(3, n, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < n; c++ {
			particles.Set(r, c, 0.1+0.01*float64(r))
		}
	}

	likes := b.PhyloLogLike(particles)
	require.Len(t, likes, 3)
	for _, ll := range likes {
		require.False(t, math.IsNaN(ll))
	}
	// Identical rows evaluate identically; order is preserved.
	post := b.PhyloLogUPost(particles)
	require.Len(t, post, 3)
	prior := LogExpPrior(particles, expPriorRate)
	for r := 0; r < 3; r++ {
		require.InDelta(t, likes[r]+prior[r], post[r], 1e-10)
	}

	grads := b.GradPhyloLogUPost(particles)
	rows, cols := grads.Dims()
	require.Equal(t, 3, rows)
	require.Equal(t, n, cols)
	plainGrads := b.GradPhyloLogLike(particles)
	for c := 0; c < cols; c++ {
		require.InDelta(t, plainGrads.At(0, c)+GradLogExpPrior(expPriorRate), grads.At(0, c), 1e-10)
	}
}

func TestGradientStepsRunsToCompletion(t *testing.T) {
	b := newTestBurrito(t)
	var observed []optimize.StepRecord
	err := b.GradientSteps(5, func(record optimize.StepRecord) {
		observed = append(observed, record)
	})
	require.NoError(t, err)
	require.Len(t, observed, 5)
	require.Len(t, b.Optimizer().Trace(), 5)
	for i, record := range observed {
		require.Equal(t, i+1, record.Step)
		require.False(t, math.IsNaN(record.Elbo))
	}
}

// failingOptimizer reports a non-finite objective on every step.
type failingOptimizer struct {
	steps int
}

func (o *failingOptimizer) GradientStep(model.LogPosteriorFunc, model.GradLogPosteriorFunc) bool {
	o.steps++
	return false
}

func (o *failingOptimizer) Trace() []optimize.StepRecord { return nil }

func TestGradientStepsAbortsOnDivergence(t *testing.T) {
	b := newTestBurrito(t)
	failing := &failingOptimizer{}
	b.opt = failing

	calls := 0
	err := b.GradientSteps(5, func(optimize.StepRecord) { calls++ })
	require.ErrorIs(t, err, errors.ErrDivergence)

	var divergence *errors.DivergenceError
	require.ErrorAs(t, err, &divergence)
	// Numbering matches the optimizer trace: the first step is step 1.
	require.Equal(t, 1, divergence.Step)
	// The failing step aborts immediately: no further steps, no observation.
	require.Equal(t, 1, failing.steps)
	require.Equal(t, 0, calls)
}
