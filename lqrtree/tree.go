// Package lqrtree implements the LQR-Tree exact backup of §4: a
// probabilistic tree of pre-linearized LQ plan nodes, each holding its own
// (A,B,Q,R) blocks, backed up bottom-up from the leaves. Nodes are
// arena-indexed rather than pointer-linked: a flat slice addressed by
// integer index instead of a graph of pointers.
package lqrtree

import (
	"errors"

	"github.com/trajopt/ilqr/mat"
)

// PlanNode is one node of the tree: the linearized dynamics and quadratic
// cost at that node, its computed feedback law and value model once
// BellmanTreeBackup has run, and the arena indices of its parent/children.
// Root is always index 0.
type PlanNode struct {
	A, B *mat.Matrix
	Q, R *mat.Matrix
	P    *mat.Matrix // cross term, may be nil (treated as zero)

	Probability float64 // probability of this node given its parent
	Parent      int     // -1 for the root
	Children    []int

	K *mat.Matrix // computed feedback gain, u_dim x x_dim
	V *mat.Matrix // computed value matrix, x_dim x x_dim
}

// Tree is an arena of PlanNodes; index 0 is always the root.
type Tree struct {
	Nodes []*PlanNode
}

// NewTree constructs a tree holding only the given root node, at index 0.
func NewTree(root *PlanNode) *Tree {
	root.Parent = -1
	return &Tree{Nodes: []*PlanNode{root}}
}

// AddChild appends a child node to parentIdx and returns its arena index.
func (t *Tree) AddChild(parentIdx int, child *PlanNode) (int, error) {
	if parentIdx < 0 || parentIdx >= len(t.Nodes) {
		return 0, errors.New("lqrtree: parent index out of range")
	}
	child.Parent = parentIdx
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, child)
	t.Nodes[parentIdx].Children = append(t.Nodes[parentIdx].Children, idx)
	return idx, nil
}

func (n *PlanNode) isLeaf() bool {
	return len(n.Children) == 0
}
