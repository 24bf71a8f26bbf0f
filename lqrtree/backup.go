package lqrtree

import (
	"fmt"

	"github.com/trajopt/ilqr/bellman"
	"github.com/trajopt/ilqr/mat"
	"github.com/trajopt/ilqr/numdiff"
)

// ErrSingularControlHessian mirrors bellman's error, reported with the
// arena index of the offending node instead of a time step.
type ErrSingularControlHessian struct {
	NodeIndex int
}

func (e *ErrSingularControlHessian) Error() string {
	return fmt.Sprintf("lqrtree: singular control hessian at node %d", e.NodeIndex)
}

// BellmanTreeBackup performs the exact LQR backup of §4 bottom-up over the
// tree: leaves get K=0, V=Q; each internal node aggregates its children's
// value matrices into a probability-weighted Ṽ = Σ p_child V_child and then
// runs the ordinary one-step bellman backup against that aggregate, exactly
// as a single-branch backward pass would treat V_{t+1}.
func BellmanTreeBackup(t *Tree, mu float64) error {
	// Process nodes in reverse arena order: children are always appended
	// after their parent, so this is a valid bottom-up (post-order-ish)
	// traversal without needing an explicit depth-first walk.
	for i := len(t.Nodes) - 1; i >= 0; i-- {
		node := t.Nodes[i]
		if node.isLeaf() {
			xDim, _ := node.Q.Dims()
			_, uDim := node.B.Dims()
			node.K = mat.New(uDim, xDim, nil)
			node.V = node.Q.Clone()
			continue
		}

		xDim, _ := node.Q.Dims()
		vAgg := mat.New(xDim, xDim, nil)
		gAgg := make([]float64, xDim)
		for _, childIdx := range node.Children {
			child := t.Nodes[childIdx]
			vAgg.AddScaled(child.Probability, child.V)
		}

		p := node.P
		if p == nil {
			_, uDim := node.R.Dims()
			p = mat.New(xDim, uDim, nil)
		}

		uDim, _ := node.R.Dims()
		step := &bellman.Step{
			A: node.A, B: node.B,
			Cost: &numdiff.QuadraticCost{
				Q: node.Q, R: node.R, P: p,
				Gx: make([]float64, xDim), Gu: make([]float64, uDim),
			},
		}
		res, err := bellman.Backup(step, vAgg, gAgg, mu, i)
		if err != nil {
			return &ErrSingularControlHessian{NodeIndex: i}
		}
		node.K = res.K
		node.V = res.V
	}
	return nil
}
