package phylo

import (
	"fmt"
	"strconv"
	"strings"
)

// newickNode is the transient parse tree for one Newick string.
type newickNode struct {
	label    string
	length   float64
	children []*newickNode
}

// parseNewick parses a Newick tree string (without trailing comments) into a
// transient node tree. Branch lengths default to zero when absent.
func parseNewick(s string) (*newickNode, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
	p := &newickParser{input: s}
	node, err := p.parseSubtree()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("trailing characters at offset %d", p.pos)
	}
	return node, nil
}

type newickParser struct {
	input string
	pos   int
}

func (p *newickParser) parseSubtree() (*newickNode, error) {
	node := &newickNode{}
	if p.peek() == '(' {
		p.pos++ // consume '('
		for {
			child, err := p.parseSubtree()
			if err != nil {
				return nil, err
			}
			node.children = append(node.children, child)
			if p.peek() == ',' {
				p.pos++
				continue
			}
			break
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("expected ')' at offset %d", p.pos)
		}
		p.pos++
	}
	node.label = p.parseLabel()
	if p.peek() == ':' {
		p.pos++
		length, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		node.length = length
	}
	return node, nil
}

func (p *newickParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *newickParser) parseLabel() string {
	start := p.pos
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ',', ')', ':', '(':
			return p.input[start:p.pos]
		}
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *newickParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == ',' || c == ')' || c == ':' {
			break
		}
		p.pos++
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(p.input[start:p.pos]), 64)
	if err != nil {
		return 0, fmt.Errorf("bad branch length %q", p.input[start:p.pos])
	}
	return value, nil
}

// derootify rewrites a bifurcating root into a trifurcating one by folding
// the two root-adjacent half-branches into a single branch. Unrooted trees
// written in rooted form carry no information in the root position, so this
// normalization is lossless for the unrooted topology.
func derootify(root *newickNode) (*newickNode, error) {
	if len(root.children) == 3 {
		return root, nil
	}
	if len(root.children) != 2 {
		return nil, fmt.Errorf("root has %d children, want 2 or 3", len(root.children))
	}
	left, right := root.children[0], root.children[1]
	combined := left.length + right.length
	// Attach the leaf-side child under the internal-side child.
	var keep, fold *newickNode
	switch {
	case len(right.children) > 0:
		keep, fold = right, left
	case len(left.children) > 0:
		keep, fold = left, right
	default:
		return nil, fmt.Errorf("cannot derootify a two-leaf tree")
	}
	fold.length = combined
	keep.children = append(keep.children, fold)
	keep.length = 0
	return keep, nil
}

// treeFromNewick converts a parsed Newick node into a Tree, resolving leaf
// labels to taxon indices via taxonIndex. The root is normalized to a
// trifurcation first.
func treeFromNewick(root *newickNode, taxonIndex map[string]int, leafCount int) (*Tree, error) {
	root, err := derootify(root)
	if err != nil {
		return nil, err
	}
	internalCount := 0
	var count func(n *newickNode) error
	count = func(n *newickNode) error {
		if len(n.children) == 0 {
			if _, ok := taxonIndex[n.label]; !ok {
				return fmt.Errorf("unknown taxon %q", n.label)
			}
			return nil
		}
		internalCount++
		for _, c := range n.children {
			if err := count(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := count(root); err != nil {
		return nil, err
	}

	nodeCount := leafCount + internalCount
	t := &Tree{
		parent:        make([]int, nodeCount),
		children:      make([][]int, nodeCount),
		branchLengths: make([]float64, nodeCount),
		leafCount:     leafCount,
	}
	nextInternal := leafCount
	var build func(n *newickNode) int
	build = func(n *newickNode) int {
		var id int
		if len(n.children) == 0 {
			id = taxonIndex[n.label]
		} else {
			childIDs := make([]int, 0, len(n.children))
			for _, c := range n.children {
				childIDs = append(childIDs, build(c))
			}
			id = nextInternal
			nextInternal++
			t.children[id] = childIDs
			for _, cid := range childIDs {
				t.parent[cid] = id
			}
		}
		t.branchLengths[id] = n.length
		t.postorder = append(t.postorder, id)
		return id
	}
	rootID := build(root)
	t.parent[rootID] = -1
	if rootID != nodeCount-1 {
		return nil, fmt.Errorf("internal numbering error: root id %d, want %d", rootID, nodeCount-1)
	}
	// The root entry is a sentinel, not a real branch.
	t.branchLengths[rootID] = 0
	return t, nil
}
