// Package burrito wraps a phylogenetic engine instance and the model data
// relevant to one variational fitting run. The division of labor is that the
// optimizer handles everything after a topology has been sampled, while the
// burrito samples topologies and then asks the optimizer to update model
// parameters accordingly.
package burrito

import (
	"fmt"

	"phylovi.dev/treevi/internal/errors"
	"phylovi.dev/treevi/internal/model"
	"phylovi.dev/treevi/internal/optimize"
	"phylovi.dev/treevi/internal/phylo"
)

// Config holds everything needed to set up a fitting run.
type Config struct {
	// MCMCNexusPath is an MCMC run on a fixed tree topology; it provides
	// the tree structure.
	MCMCNexusPath string
	// FastaPath is the sequence data used for that MCMC run.
	FastaPath     string
	ModelName     string
	OptimizerName string
	ParticleCount int
	// Seed fixes the engine RNG when non-zero.
	Seed int64
}

// StepObserver is invoked once per completed gradient step. It observes
// progress only; the fitting loop's control flow never depends on it.
type StepObserver func(record optimize.StepRecord)

// Burrito owns the engine handle, the index maps derived from the currently
// sampled topology, and the optimizer.
type Burrito struct {
	inst *phylo.Instance

	// branchLengths is a live mutable view into engine-owned tree state,
	// with the engine's trailing sentinel entry stripped.
	branchLengths []float64
	// branchToSplit[i] is the split index of branch i; splitToBranch is its
	// inverse permutation. Both are rebuilt whenever a topology is sampled.
	branchToSplit []int
	splitToBranch []int

	model model.ScalarModel
	opt   optimize.Optimizer
}

// New loads tree structure and sequence data, prepares one likelihood
// context, samples the initial topology, and builds the model/optimizer
// pair sized to the branch and particle counts just established.
func New(cfg Config) (*Burrito, error) {
	inst := phylo.NewInstance("burrito")
	if cfg.Seed != 0 {
		inst.SetSeed(cfg.Seed)
	}
	if err := inst.ReadNexusFile(cfg.MCMCNexusPath); err != nil {
		return nil, fmt.Errorf("reading tree structure: %w", err)
	}
	if err := inst.ReadFastaFile(cfg.FastaPath); err != nil {
		return nil, fmt.Errorf("reading sequence data: %w", err)
	}
	if err := inst.PrepareLikelihoodContexts(1); err != nil {
		return nil, fmt.Errorf("preparing likelihood context: %w", err)
	}

	b := &Burrito{inst: inst}
	// Sampling here sets up branchLengths and the index maps, which size
	// the model below.
	if err := b.SampleTopology(); err != nil {
		return nil, err
	}

	m, err := model.OfName(cfg.ModelName, len(b.branchLengths), cfg.ParticleCount)
	if err != nil {
		return nil, err
	}
	opt, err := optimize.OfName(cfg.OptimizerName, m, inst.RNG())
	if err != nil {
		return nil, err
	}
	b.model = m
	b.opt = opt
	return b, nil
}

// SampleTopology samples one tree, then sets up the branch length vector and
// the translation from splits to branches and back again. Any previous index
// maps are discarded.
func (b *Burrito) SampleTopology() error {
	if err := b.inst.SampleTrees(1); err != nil {
		return err
	}
	tree, err := b.inst.SampledTree(0)
	if err != nil {
		return err
	}
	// The last entry is the root sentinel; slicing it off leaves the actual
	// branch lengths as a live view into the engine's tree state.
	extended := tree.BranchLengths()
	b.branchLengths = extended[:len(extended)-1]

	b.branchToSplit, err = b.inst.PSPIndexerRepresentation(0)
	if err != nil {
		return err
	}
	b.splitToBranch = make([]int, len(b.branchToSplit))
	for branch, split := range b.branchToSplit {
		b.splitToBranch[split] = branch
	}
	return nil
}

// TranslateBranchesToSplits returns a vector whose ith entry is the entry of
// branchVector corresponding to the ith split.
func (b *Burrito) TranslateBranchesToSplits(branchVector []float64) []float64 {
	out := make([]float64, len(branchVector))
	for split, branch := range b.splitToBranch {
		out[split] = branchVector[branch]
	}
	return out
}

// TranslateSplitsToBranches returns a vector whose ith entry is the entry of
// splitVector corresponding to the ith branch.
func (b *Burrito) TranslateSplitsToBranches(splitVector []float64) []float64 {
	out := make([]float64, len(splitVector))
	for branch, split := range b.branchToSplit {
		out[branch] = splitVector[split]
	}
	return out
}

// BranchLengths exposes the live branch-length view (sentinel stripped).
func (b *Burrito) BranchLengths() []float64 { return b.branchLengths }

// BranchToSplit exposes the branch-to-split index map.
func (b *Burrito) BranchToSplit() []int { return b.branchToSplit }

// SplitToBranch exposes the split-to-branch index map.
func (b *Burrito) SplitToBranch() []int { return b.splitToBranch }

// Model returns the variational model under fit.
func (b *Burrito) Model() model.ScalarModel { return b.model }

// Optimizer returns the optimizer driving the fit.
func (b *Burrito) Optimizer() optimize.Optimizer { return b.opt }

// Instance returns the engine handle.
func (b *Burrito) Instance() *phylo.Instance { return b.inst }

// GradientSteps drives stepCount optimizer steps, handing the optimizer the
// posterior and gradient callables. A non-finite objective aborts the run
// immediately; there is no retry and no partial-progress recovery.
func (b *Burrito) GradientSteps(stepCount int, observer StepObserver) error {
	// Steps are numbered from 1, matching the optimizer trace.
	for step := 1; step <= stepCount; step++ {
		// TODO resample the topology here once fitting across topologies is
		// supported; for now the topology stays fixed after construction.
		if !b.opt.GradientStep(b.PhyloLogUPost, b.GradPhyloLogUPost) {
			return errors.NewDivergenceError(step)
		}
		if observer != nil {
			trace := b.opt.Trace()
			observer(trace[len(trace)-1])
		}
	}
	return nil
}
