// Package phylo is a pure-Go phylogenetic likelihood engine: it loads tree
// traces and alignments, samples topologies, and evaluates JC69 tree
// likelihoods and their branch-length gradients.
package phylo

import (
	"fmt"
	"math/rand"
	"time"

	"phylovi.dev/treevi/internal/errors"
)

// BranchGradient is one likelihood context's evaluation result: the log
// likelihood at the current branch lengths together with its gradient. The
// gradient carries two trailing sentinel entries (the root edge pair) that
// callers strip before use.
type BranchGradient struct {
	LogLikelihood float64
	Gradient      []float64
}

// Instance owns the loaded tree collection, the alignment, and the sampled
// trees that likelihood contexts evaluate against. It is the single owner of
// all engine state; the orchestration layer holds mutable views into it but
// never copies it.
type Instance struct {
	name         string
	rng          *rand.Rand
	taxonNames   []string
	loaded       []*Tree
	alignment    *Alignment
	sampled      []*Tree
	contextCount int
}

// NewInstance creates a named engine instance with a time-seeded RNG.
func NewInstance(name string) *Instance {
	return &Instance{
		name: name,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetSeed reseeds the instance RNG. Fixing the seed makes topology sampling
// and everything downstream of it reproducible.
func (inst *Instance) SetSeed(seed int64) {
	inst.rng = rand.New(rand.NewSource(seed))
}

// RNG exposes the instance RNG so that collaborators sharing the engine
// (e.g. particle samplers) can draw from one reproducible stream.
func (inst *Instance) RNG() *rand.Rand { return inst.rng }

// TaxonNames returns the taxa in leaf-id order.
func (inst *Instance) TaxonNames() []string { return inst.taxonNames }

// ReadNexusFile loads tree structure from an MCMC run trace (a NEXUS trees
// block with a translate table).
func (inst *Instance) ReadNexusFile(path string) error {
	taxonNames, trees, err := readNexusTrees(path)
	if err != nil {
		return err
	}
	inst.taxonNames = taxonNames
	inst.loaded = trees
	inst.sampled = nil
	return nil
}

// ReadFastaFile loads sequence data for likelihood computation.
func (inst *Instance) ReadFastaFile(path string) error {
	aln, err := readFasta(path)
	if err != nil {
		return err
	}
	inst.alignment = aln
	return nil
}

// TreeCount returns the number of loaded trees.
func (inst *Instance) TreeCount() int { return len(inst.loaded) }

// PrepareLikelihoodContexts establishes count likelihood-evaluation
// contexts. Trees and sequences must both be loaded and their taxa must
// match.
func (inst *Instance) PrepareLikelihoodContexts(count int) error {
	if len(inst.loaded) == 0 {
		return errors.ErrNoTreesLoaded
	}
	if inst.alignment == nil {
		return errors.ErrNoAlignment
	}
	for _, name := range inst.taxonNames {
		if inst.alignment.States(name) == nil {
			return fmt.Errorf("taxon %q from tree trace is missing from the alignment", name)
		}
	}
	if count < 1 {
		return fmt.Errorf("likelihood context count must be positive, got %d", count)
	}
	inst.contextCount = count
	return nil
}

// SampleTrees draws count topologies from the loaded collection and installs
// them as the current sampled collection, one per likelihood context slot.
// libsbn samples from a trained subsplit distribution here; drawing
// uniformly from the MCMC support is the fixed-topology benchmark analogue.
func (inst *Instance) SampleTrees(count int) error {
	if len(inst.loaded) == 0 {
		return errors.ErrNoTreesLoaded
	}
	inst.sampled = make([]*Tree, count)
	for i := range inst.sampled {
		inst.sampled[i] = inst.loaded[inst.rng.Intn(len(inst.loaded))].Clone()
	}
	return nil
}

// SampledTree returns the idx-th tree of the current sampled collection.
// Its branch-length slice is a live mutable view into engine state.
func (inst *Instance) SampledTree(idx int) (*Tree, error) {
	if idx < 0 || idx >= len(inst.sampled) {
		return nil, errors.ErrNoTopology
	}
	return inst.sampled[idx], nil
}

// PSPIndexerRepresentation returns the per-branch split indices of the
// idx-th sampled tree: entry i is the split index of branch i.
func (inst *Instance) PSPIndexerRepresentation(idx int) ([]int, error) {
	tree, err := inst.SampledTree(idx)
	if err != nil {
		return nil, err
	}
	return branchToSplitMap(tree), nil
}

// LogLikelihoods evaluates the log likelihood of every sampled tree at its
// current branch lengths, one scalar per likelihood context.
func (inst *Instance) LogLikelihoods() ([]float64, error) {
	if err := inst.checkReady(); err != nil {
		return nil, err
	}
	out := make([]float64, len(inst.sampled))
	for i, tree := range inst.sampled {
		out[i], _ = computeLikelihood(tree, inst.alignment, inst.taxonNames, false)
	}
	return out, nil
}

// BranchGradients evaluates, for every sampled tree, the log likelihood and
// its branch-length gradient (with the two trailing sentinel entries).
func (inst *Instance) BranchGradients() ([]BranchGradient, error) {
	if err := inst.checkReady(); err != nil {
		return nil, err
	}
	out := make([]BranchGradient, len(inst.sampled))
	for i, tree := range inst.sampled {
		ll, grad := computeLikelihood(tree, inst.alignment, inst.taxonNames, true)
		out[i] = BranchGradient{LogLikelihood: ll, Gradient: grad}
	}
	return out, nil
}

// SplitLengths returns, for each split index of the first sampled tree, the
// branch lengths assigned to that bipartition across the loaded MCMC trees.
// Splits absent from a given tree contribute nothing for that tree.
func (inst *Instance) SplitLengths() ([][]float64, error) {
	tree, err := inst.SampledTree(0)
	if err != nil {
		return nil, err
	}
	splits := splitRepresentation(tree)
	branchToSplit := branchToSplitMap(tree)
	splitOf := make(map[string]int, len(splits))
	for branch, s := range splits {
		splitOf[s] = branchToSplit[branch]
	}
	out := make([][]float64, len(splits))
	for _, loaded := range inst.loaded {
		loadedSplits := splitRepresentation(loaded)
		lengths := loaded.BranchLengths()
		for branch, s := range loadedSplits {
			if idx, ok := splitOf[s]; ok {
				out[idx] = append(out[idx], lengths[branch])
			}
		}
	}
	return out, nil
}

func (inst *Instance) checkReady() error {
	if len(inst.sampled) == 0 {
		return errors.ErrNoTopology
	}
	if inst.alignment == nil {
		return errors.ErrNoAlignment
	}
	if inst.contextCount == 0 {
		return fmt.Errorf("likelihood contexts not prepared")
	}
	return nil
}
