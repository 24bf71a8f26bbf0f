// Package bellman implements the one-step value-function backup of §4.2:
// given the next-step quadratic value model and the linearized dynamics
// and quadratized cost at the current step, it solves the LM-regularized
// Gauss-Newton control subproblem and propagates the value function one
// step backward.
//
// The linear solves inside the backup go through mat.Solve, which tries a
// Cholesky factorization first and falls back to a general LU solve --
// unlike a BFGS middle matrix (always built SPD), the LM-inflated control
// Hessian here is only guaranteed invertible, not necessarily SPD, because
// the cost Hessian itself need not be PSD (§4.1).
package bellman

import (
	"fmt"

	"github.com/trajopt/ilqr/mat"
	"github.com/trajopt/ilqr/numdiff"
)

// ErrSingularControlHessian is returned when the LM-inflated control
// Hessian H is not invertible to numerical tolerance (§4.2, §7).
type ErrSingularControlHessian struct {
	Step int
}

func (e *ErrSingularControlHessian) Error() string {
	return fmt.Sprintf("bellman: singular control hessian at step %d", e.Step)
}

// Step bundles the linearized dynamics and quadratized cost at a single
// time step -- the inputs to one Backup call.
type Step struct {
	A, B *mat.Matrix // dynamics Jacobians, x_dim x x_dim and x_dim x u_dim
	Cost *numdiff.QuadraticCost
}

// Result holds the output of a single backup: the affine feedback law
// u = K(x-x̂) + k and the propagated quadratic value model (V,g).
type Result struct {
	K  *mat.Matrix // u_dim x x_dim
	K0 []float64   // feed-forward term k, length u_dim
	V  *mat.Matrix // x_dim x x_dim, symmetric
	G  []float64   // value gradient, length x_dim
}

// Backup computes (K_t, k_t, V_t, g_t) from the next-step value model
// (vNext, gNext) and the step's linearization/quadratization, per §4.2:
//
//	Ṽ = vNext + mu*I
//	H = R + Bᵀ Ṽ B
//	K = -H⁻¹ (Pᵀ + Bᵀ Ṽ A)
//	k = -H⁻¹ (gu + Bᵀ gNextᵀ)
//	M = A + B K
//	V = Q + 2(P K) + Kᵀ R K + Mᵀ vNext M
//	g = kᵀPᵀ + kᵀRK + gxᵀ + guᵀK + kᵀBᵀvNext M + gNext M
//
// vNext (not Ṽ) is used to form V_t: LM damping conditions the control
// solve, it does not bias value propagation. mu must be >= 0.
func Backup(step *Step, vNext *mat.Matrix, gNext []float64, mu float64, stepIdx int) (*Result, error) {
	a, b, cost := step.A, step.B, step.Cost
	xDim, _ := a.Dims()
	_, uDim := b.Dims()

	vTilde := vNext.Clone()
	vTilde.AddDiag(mu)

	// H = R + Bᵀ Ṽ B
	bv := mat.Mul(1, b, true, vTilde, false) // Bᵀ Ṽ, u_dim x x_dim
	h := mat.Mul(1, bv, false, b, false)     // Bᵀ Ṽ B, u_dim x u_dim
	h.AddScaled(1, cost.R)

	// K = -H⁻¹ (Pᵀ + Bᵀ Ṽ A)
	rhsK := mat.Mul(1, bv, false, a, false) // Bᵀ Ṽ A, u_dim x x_dim
	rhsK.AddScaled(1, cost.P.T())

	k := mat.New(uDim, xDim, nil)
	for col := 0; col < xDim; col++ {
		column := make([]float64, uDim)
		for i := 0; i < uDim; i++ {
			column[i] = rhsK.At(i, col)
		}
		if !mat.Solve(h, column) {
			return nil, &ErrSingularControlHessian{Step: stepIdx}
		}
		for i := 0; i < uDim; i++ {
			k.Set(i, col, -column[i])
		}
	}

	// k = -H⁻¹ (gu + Bᵀ gNextᵀ)
	bg := make([]float64, uDim)
	mat.MulVec(1, b, true, gNext, 0, bg)
	kff := make([]float64, uDim)
	for i := 0; i < uDim; i++ {
		kff[i] = cost.Gu[i] + bg[i]
	}
	if !mat.Solve(h, kff) {
		return nil, &ErrSingularControlHessian{Step: stepIdx}
	}
	mat.Scale(kff, -1)

	// M = A + B K
	m := mat.Mul(1, b, false, k, false)
	m.AddScaled(1, a)

	// V = Q + 2(P K) + Kᵀ R K + Mᵀ vNext M
	v := cost.Q.Clone()
	pk := mat.Mul(2, cost.P, false, k, false)
	v.AddScaled(1, pk)
	kRk := mat.Mul(1, mat.Mul(1, k, true, cost.R, false), false, k, false)
	v.AddScaled(1, kRk)
	mVm := mat.Mul(1, mat.Mul(1, m, true, vNext, false), false, m, false)
	v.AddScaled(1, mVm)
	v.Symmetrize()

	// g = kᵀPᵀ + kᵀRK + gxᵀ + guᵀK + kᵀBᵀvNext M + gNext M
	g := make([]float64, xDim)
	addVecMatT(g, kff, cost.P.T()) // kᵀ Pᵀ is a 1xXdim row; equivalently Pᵀᵀ kᵀ... see helper
	addVecMatT(g, kff, mat.Mul(1, cost.R, false, k, false))
	for i := 0; i < xDim; i++ {
		g[i] += cost.Gx[i]
	}
	addVecMatT(g, cost.Gu, k)
	bvNextM := mat.Mul(1, mat.Mul(1, b, true, vNext, false), false, m, false) // Bᵀ vNext M, u_dim x x_dim
	addVecMatT(g, kff, bvNextM)
	gNextM := make([]float64, xDim)
	mat.MulVec(1, m, true, gNext, 0, gNextM)
	for i := 0; i < xDim; i++ {
		g[i] += gNextM[i]
	}

	return &Result{K: k, K0: kff, V: v, G: g}, nil
}

// addVecMatT adds (vᵀ * w) to dst, where w is rows(v) x cols(w) and the
// product is a 1 x cols(w) row vector -- used to accumulate the several
// "vector transpose times matrix" terms in the value-gradient recursion.
func addVecMatT(dst []float64, v []float64, w *mat.Matrix) {
	rows, cols := w.Dims()
	if rows != len(v) || cols != len(dst) {
		panic("bellman: dimension mismatch in addVecMatT")
	}
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += v[i] * w.At(i, j)
		}
		dst[j] += sum
	}
}
