package phylo

import (
	"math"
)

// Jukes-Cantor (JC69) transition probabilities for one branch of length t:
// staying probability on the diagonal, switching probability off it.
func jc69P(t float64) (same, diff float64) {
	e := math.Exp(-4.0 * t / 3.0)
	return 0.25 + 0.75*e, 0.25 - 0.25*e
}

// jc69dP is the derivative of jc69P with respect to branch length.
func jc69dP(t float64) (dSame, dDiff float64) {
	e := math.Exp(-4.0 * t / 3.0)
	return -e, e / 3.0
}

// computeLikelihood runs Felsenstein pruning on one tree and, when wantGrad
// is set, also produces the branch-length gradient of the log likelihood via
// a pre-order pass of "upper" partials.
//
// The returned gradient has BranchCount()+2 entries: one per live branch in
// branch order, then two trailing zero entries for the root edge pair. This
// matches the layout the orchestration layer strips with [:len-2].
//
// Partials are not rescaled: double precision is ample for the tree sizes
// this tool targets.
func computeLikelihood(tree *Tree, aln *Alignment, taxonNames []string, wantGrad bool) (float64, []float64) {
	nodeCount := tree.NodeCount()
	siteCount := aln.SiteCount()
	stride := siteCount * 4

	// lower[v] = P(data below v | state at v); message[v] = P(t_v) * lower[v].
	lower := make([]float64, nodeCount*stride)
	message := make([]float64, nodeCount*stride)
	branchLengths := tree.BranchLengths()
	root := tree.Root()

	for _, v := range tree.Postorder() {
		lv := lower[v*stride : (v+1)*stride]
		if tree.IsLeaf(v) {
			states := aln.States(taxonNames[v])
			for s := 0; s < siteCount; s++ {
				if st := states[s]; st >= 0 {
					lv[s*4+int(st)] = 1
				} else {
					for x := 0; x < 4; x++ {
						lv[s*4+x] = 1
					}
				}
			}
		} else {
			for i := range lv {
				lv[i] = 1
			}
			for _, c := range tree.Children(v) {
				mc := message[c*stride : (c+1)*stride]
				for i := range lv {
					lv[i] *= mc[i]
				}
			}
		}
		if v == root {
			break
		}
		same, diff := jc69P(branchLengths[v])
		mv := message[v*stride : (v+1)*stride]
		for s := 0; s < siteCount; s++ {
			sum := lv[s*4] + lv[s*4+1] + lv[s*4+2] + lv[s*4+3]
			for x := 0; x < 4; x++ {
				mv[s*4+x] = same*lv[s*4+x] + diff*(sum-lv[s*4+x])
			}
		}
	}

	// Site likelihoods from the root partial under the uniform JC69
	// stationary distribution.
	siteLike := make([]float64, siteCount)
	logL := 0.0
	rootLower := lower[root*stride : (root+1)*stride]
	for s := 0; s < siteCount; s++ {
		like := 0.25 * (rootLower[s*4] + rootLower[s*4+1] + rootLower[s*4+2] + rootLower[s*4+3])
		siteLike[s] = like
		logL += math.Log(like)
	}
	if !wantGrad {
		return logL, nil
	}

	// upper[v] = P(data outside subtree(v) | state at parent(v)), built
	// root-down. above[u] moves upper[u] across u's own branch.
	upper := make([]float64, nodeCount*stride)
	above := make([]float64, nodeCount*stride)
	av := above[root*stride : (root+1)*stride]
	for i := range av {
		av[i] = 0.25
	}
	order := tree.Postorder()
	for i := len(order) - 1; i >= 0; i-- {
		u := order[i]
		if tree.IsLeaf(u) {
			continue
		}
		au := above[u*stride : (u+1)*stride]
		for _, c := range tree.Children(u) {
			uc := upper[c*stride : (c+1)*stride]
			copy(uc, au)
			for _, w := range tree.Children(u) {
				if w == c {
					continue
				}
				mw := message[w*stride : (w+1)*stride]
				for j := range uc {
					uc[j] *= mw[j]
				}
			}
			if !tree.IsLeaf(c) {
				same, diff := jc69P(branchLengths[c])
				ac := above[c*stride : (c+1)*stride]
				for s := 0; s < siteCount; s++ {
					sum := uc[s*4] + uc[s*4+1] + uc[s*4+2] + uc[s*4+3]
					for x := 0; x < 4; x++ {
						ac[s*4+x] = same*uc[s*4+x] + diff*(sum-uc[s*4+x])
					}
				}
			}
		}
	}

	grad := make([]float64, tree.BranchCount()+2)
	for v := 0; v < tree.BranchCount(); v++ {
		dSame, dDiff := jc69dP(branchLengths[v])
		lv := lower[v*stride : (v+1)*stride]
		uv := upper[v*stride : (v+1)*stride]
		total := 0.0
		for s := 0; s < siteCount; s++ {
			sum := lv[s*4] + lv[s*4+1] + lv[s*4+2] + lv[s*4+3]
			d := 0.0
			for x := 0; x < 4; x++ {
				d += uv[s*4+x] * (dSame*lv[s*4+x] + dDiff*(sum-lv[s*4+x]))
			}
			total += d / siteLike[s]
		}
		grad[v] = total
	}
	// The two trailing entries stay zero: the root has no branch of its own
	// and the root-adjacent edge pair shares one unrooted branch.
	return logL, grad
}
