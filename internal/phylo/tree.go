package phylo

// Tree is one unrooted topology stored in rooted form with a trifurcating
// root, plus its branch lengths. Node ids are assigned so that leaves occupy
// 0..leafCount-1 (matching taxon indices), internal nodes are numbered in
// postorder after the leaves, and the root carries the highest id.
//
// BranchLengths is indexed by node id and has one entry per node. The entry
// for the root does not correspond to a real branch: it is a trailing
// sentinel that callers must strip to obtain the live branch-length vector.
type Tree struct {
	parent        []int   // node id -> parent id; -1 for the root
	children      [][]int // node id -> child ids
	postorder     []int   // node ids with children before parents, root last
	branchLengths []float64
	leafCount     int
}

// LeafCount returns the number of taxa in the tree.
func (t *Tree) LeafCount() int { return t.leafCount }

// NodeCount returns the number of nodes, including the root.
func (t *Tree) NodeCount() int { return len(t.parent) }

// BranchCount returns the number of real branches, i.e. the length of the
// live branch-length vector once the root sentinel is stripped.
func (t *Tree) BranchCount() int { return t.NodeCount() - 1 }

// Root returns the id of the (trifurcating) root node.
func (t *Tree) Root() int { return t.NodeCount() - 1 }

// IsLeaf reports whether the node id refers to a taxon.
func (t *Tree) IsLeaf(node int) bool { return node < t.leafCount }

// BranchLengths returns the full branch-length storage as a mutable view.
// The last entry is the root sentinel and is not a meaningful branch length.
func (t *Tree) BranchLengths() []float64 { return t.branchLengths }

// Children returns the child ids of a node.
func (t *Tree) Children(node int) []int { return t.children[node] }

// Parent returns the parent id of a node, or -1 for the root.
func (t *Tree) Parent(node int) int { return t.parent[node] }

// Postorder returns node ids in an order where every node appears after all
// of its children; the root is last.
func (t *Tree) Postorder() []int { return t.postorder }

// Clone returns a deep copy of the tree. Sampled trees are cloned so that
// in-place branch-length mutation during likelihood evaluation never touches
// the loaded collection.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		parent:        append([]int(nil), t.parent...),
		children:      make([][]int, len(t.children)),
		postorder:     append([]int(nil), t.postorder...),
		branchLengths: append([]float64(nil), t.branchLengths...),
		leafCount:     t.leafCount,
	}
	for i, kids := range t.children {
		c.children[i] = append([]int(nil), kids...)
	}
	return c
}

// leafSets returns, for every node id, the set of leaves at or below it as a
// bitset string of length leafCount ('1' at position i means taxon i is
// below). Computed in postorder.
func (t *Tree) leafSets() []string {
	sets := make([][]byte, t.NodeCount())
	for _, node := range t.postorder {
		bits := make([]byte, t.leafCount)
		for i := range bits {
			bits[i] = '0'
		}
		if t.IsLeaf(node) {
			bits[node] = '1'
		} else {
			for _, child := range t.children[node] {
				for i, b := range sets[child] {
					if b == '1' {
						bits[i] = '1'
					}
				}
			}
		}
		sets[node] = bits
	}
	out := make([]string, t.NodeCount())
	for i, bits := range sets {
		out[i] = string(bits)
	}
	return out
}
