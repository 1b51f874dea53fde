package phylo

import (
	"sort"
)

// splitRepresentation returns the canonical bipartition bitset for every
// live branch, indexed by branch id. The bitset has one character per taxon
// and is canonicalized so that taxon 0 is always on the '0' side, which
// makes the representation independent of the rooting of the stored tree.
func splitRepresentation(t *Tree) []string {
	sets := t.leafSets()
	splits := make([]string, t.BranchCount())
	for v := 0; v < t.BranchCount(); v++ {
		splits[v] = canonicalSplit(sets[v])
	}
	return splits
}

func canonicalSplit(bits string) string {
	if bits[0] != '1' {
		return bits
	}
	flipped := make([]byte, len(bits))
	for i := 0; i < len(bits); i++ {
		if bits[i] == '1' {
			flipped[i] = '0'
		} else {
			flipped[i] = '1'
		}
	}
	return string(flipped)
}

// branchToSplitMap ranks the canonical bipartitions of a tree and returns,
// for each branch id, the index of its split. Every branch of an unrooted
// binary topology carries a distinct bipartition, so the result is a
// permutation of 0..BranchCount()-1.
func branchToSplitMap(t *Tree) []int {
	splits := splitRepresentation(t)
	ranked := append([]string(nil), splits...)
	sort.Strings(ranked)
	rank := make(map[string]int, len(ranked))
	for i, s := range ranked {
		rank[s] = i
	}
	indices := make([]int, len(splits))
	for branch, s := range splits {
		indices[branch] = rank[s]
	}
	return indices
}
