package numdiff

import "github.com/trajopt/ilqr/mat"

// RunningCost is the pure, differentiable step cost c(x,u,t) with a
// zero-based time index (§6).
type RunningCost func(x, u []float64, t int) float64

// TerminalCost is the pure, differentiable terminal cost cT(x) (§6).
type TerminalCost func(x []float64) float64

// QuadraticCost holds the symmetric Hessian blocks and gradient of a
// running cost quadratized at a single (x,u,t), per §4.1. The Hessian is
// not required to be PSD; LM regularization in the value-function backup
// compensates for that.
type QuadraticCost struct {
	Q  *mat.Matrix // d2c/dx2, x_dim x x_dim, symmetric
	R  *mat.Matrix // d2c/du2, u_dim x u_dim, symmetric
	P  *mat.Matrix // d2c/dxdu, x_dim x u_dim
	Gx []float64   // dc/dx, length x_dim
	Gu []float64   // dc/du, length u_dim
}

// QuadratizeRunningCost computes (Q,R,P,Gx,Gu) at (x,u,t) by central
// differences over the concatenated (x,u) vector.
func QuadratizeRunningCost(c RunningCost, x, u []float64, t int) *QuadraticCost {
	xDim, uDim := len(x), len(u)
	z := make([]float64, xDim+uDim)
	copy(z, x)
	copy(z[xDim:], u)

	f := func(z []float64) float64 {
		return c(z[:xDim:xDim], z[xDim:], t)
	}

	hess, grad := centralHessian(f, z)

	out := &QuadraticCost{
		Q:  mat.New(xDim, xDim, nil),
		R:  mat.New(uDim, uDim, nil),
		P:  mat.New(xDim, uDim, nil),
		Gx: append([]float64(nil), grad[:xDim]...),
		Gu: append([]float64(nil), grad[xDim:]...),
	}
	n := xDim + uDim
	for i := 0; i < xDim; i++ {
		for j := 0; j < xDim; j++ {
			out.Q.Set(i, j, hess[i*n+j])
		}
		for j := 0; j < uDim; j++ {
			out.P.Set(i, j, hess[i*n+xDim+j])
		}
	}
	for i := 0; i < uDim; i++ {
		for j := 0; j < uDim; j++ {
			out.R.Set(i, j, hess[(xDim+i)*n+xDim+j])
		}
	}
	return out
}

// QuadratizeTerminalCost computes the terminal cost Hessian and gradient
// at x by central differences.
func QuadratizeTerminalCost(cT TerminalCost, x []float64) (q *mat.Matrix, g []float64) {
	f := func(z []float64) float64 { return cT(z) }
	hess, grad := centralHessian(f, x)
	n := len(x)
	q = mat.New(n, n, hess)
	g = grad
	return q, g
}

// centralHessian computes the gradient and (symmetrized) Hessian of a
// scalar function f at x0 by second-order central differences:
//
//	d2f/dxi2    = (f(x+h*ei) - 2f(x) + f(x-h*ei)) / h^2
//	d2f/dxidxj  = (f(x+hi*ei+hj*ej) - f(x+hi*ei-hj*ej)
//	             - f(x-hi*ei+hj*ej) + f(x-hi*ei-hj*ej)) / (4 hi hj)
//	df/dxi      = (f(x+h*ei) - f(x-h*ei)) / (2h)
//
// Second-order differencing has no counterpart elsewhere in this package,
// which otherwise only differentiates vector-valued functions once; the
// step-size heuristic (fdStep) is shared with the first-order case.
func centralHessian(f func(x []float64) float64, x0 []float64) (hess []float64, grad []float64) {
	n := len(x0)
	h := fdStep(x0, Central)
	f0 := f(x0)

	grad = make([]float64, n)
	hess = make([]float64, n*n)

	x := append([]float64(nil), x0...)

	fPlus := make([]float64, n)
	fMinus := make([]float64, n)
	for i := 0; i < n; i++ {
		t := x[i]
		x[i] = t + h[i]
		fPlus[i] = f(x)
		x[i] = t - h[i]
		fMinus[i] = f(x)
		x[i] = t

		grad[i] = (fPlus[i] - fMinus[i]) / (2 * h[i])
		hess[i*n+i] = (fPlus[i] - 2*f0 + fMinus[i]) / (h[i] * h[i])
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			xi, xj := x[i], x[j]

			x[i], x[j] = xi+h[i], xj+h[j]
			fpp := f(x)
			x[i], x[j] = xi+h[i], xj-h[j]
			fpm := f(x)
			x[i], x[j] = xi-h[i], xj+h[j]
			fmp := f(x)
			x[i], x[j] = xi-h[i], xj-h[j]
			fmm := f(x)
			x[i], x[j] = xi, xj

			v := (fpp - fpm - fmp + fmm) / (4 * h[i] * h[j])
			hess[i*n+j] = v
			hess[j*n+i] = v
		}
	}

	return hess, grad
}
