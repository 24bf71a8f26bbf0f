package numdiff

import "github.com/trajopt/ilqr/mat"

// Dynamics is the pure, deterministic transition function x' = f(x,u) the
// solver packages treat as an opaque, differentiable callback (§6).
type Dynamics func(x, u []float64) []float64

// LinearizeDynamics computes the Jacobians A = df/dx and B = df/du at
// (x,u) by central differences, as recommended by §4.1. The state and
// control dimensions are taken from len(x) and len(u).
func LinearizeDynamics(f Dynamics, x, u []float64) (a, b *mat.Matrix) {
	xDim, uDim := len(x), len(u)

	object := func(xu, y []float64) {
		xp := xu[:xDim:xDim]
		up := xu[xDim:]
		copy(y, f(xp, up))
	}

	xu := make([]float64, xDim+uDim)
	copy(xu, x)
	copy(xu[xDim:], u)

	jac := make([]float64, xDim*(xDim+uDim))
	newFDEngine(xDim+uDim, xDim, object, Central).jacobian(xu, jac)

	a = mat.New(xDim, xDim, nil)
	b = mat.New(xDim, uDim, nil)
	for i := 0; i < xDim; i++ {
		for j := 0; j < xDim; j++ {
			a.Set(i, j, jac[i*(xDim+uDim)+j])
		}
		for j := 0; j < uDim; j++ {
			b.Set(i, j, jac[i*(xDim+uDim)+xDim+j])
		}
	}
	return a, b
}
