package lqrtree

import "github.com/trajopt/ilqr/mat"

// PropagateFrom computes the state at each node along the path from the
// root to nodeIdx: the root's state is x0, and each ancestor of nodeIdx
// applies u = K x (the tree carries no feed-forward term) and its own
// linear dynamics A,B to produce its child's state. It returns the state
// at nodeIdx; nodeIdx's own gain and dynamics are not applied.
func PropagateFrom(t *Tree, x0 []float64, nodeIdx int) []float64 {
	path := pathToRoot(t, nodeIdx)
	x := append([]float64(nil), x0...)
	for _, idx := range path[:len(path)-1] {
		node := t.Nodes[idx]
		uDim, _ := node.K.Dims()
		u := make([]float64, uDim)
		mat.MulVec(1, node.K, false, x, 0, u)

		xDim, _ := node.A.Dims()
		next := make([]float64, xDim)
		mat.MulVec(1, node.A, false, x, 0, next)
		bu := make([]float64, xDim)
		mat.MulVec(1, node.B, false, u, 0, bu)
		for i := range next {
			next[i] += bu[i]
		}
		x = next
	}
	return x
}

func pathToRoot(t *Tree, nodeIdx int) []int {
	var path []int
	for idx := nodeIdx; idx != -1; idx = t.Nodes[idx].Parent {
		path = append([]int{idx}, path...)
	}
	return path
}
