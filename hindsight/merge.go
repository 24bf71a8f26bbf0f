package hindsight

import (
	"github.com/trajopt/ilqr/bellman"
	"github.com/trajopt/ilqr/mat"
)

// mergeFirstStage combines each branch's t=0 linearization and quadratized
// cost into a single probability-weighted LQ subproblem per §3:
//
//	H̄ = Σ pᵢ (Rᵢ + Bᵢᵀ Ṽᵢ Bᵢ)
//	M̄ = Σ pᵢ (Pᵢᵀ + Bᵢᵀ Ṽᵢ Aᵢ)
//	m̄ = Σ pᵢ (Guᵢ + Bᵢᵀ gᵢᵀ)
//
// and solves the shared feedback law K0 = -H̄⁻¹M̄, k0 = -H̄⁻¹m̄ exactly as a
// single-branch bellman.Backup would, but against the aggregated blocks
// instead of one branch's own.
func mergeFirstStage(plans []*branchPlan, probs []float64, mu float64) (K0 *mat.Matrix, k0 []float64, err error) {
	uDim, xDim := 0, 0
	for _, p := range plans {
		r, c := p.firstStageStep.B.Dims()
		xDim, uDim = r, c
		break
	}

	hBar := mat.New(uDim, uDim, nil)
	mBar := mat.New(uDim, xDim, nil)
	mBarVec := make([]float64, uDim)

	for i, p := range plans {
		step := p.firstStageStep
		a, b, cost := step.A, step.B, step.Cost

		vTilde := p.firstStageV.Clone()
		vTilde.AddDiag(mu)

		bv := mat.Mul(1, b, true, vTilde, false)
		h := mat.Mul(probs[i], bv, false, b, false)
		h.AddScaled(probs[i], cost.R)
		hBar.AddScaled(1, h)

		rhs := mat.Mul(probs[i], bv, false, a, false)
		rhs.AddScaled(probs[i], cost.P.T())
		mBar.AddScaled(1, rhs)

		bg := make([]float64, uDim)
		mat.MulVec(1, b, true, p.firstStageG, 0, bg)
		for j := 0; j < uDim; j++ {
			mBarVec[j] += probs[i] * (cost.Gu[j] + bg[j])
		}
	}

	K0 = mat.New(uDim, xDim, nil)
	for col := 0; col < xDim; col++ {
		column := make([]float64, uDim)
		for i := 0; i < uDim; i++ {
			column[i] = mBar.At(i, col)
		}
		if !mat.Solve(hBar, column) {
			return nil, nil, &bellman.ErrSingularControlHessian{Step: 0}
		}
		for i := 0; i < uDim; i++ {
			K0.Set(i, col, -column[i])
		}
	}

	k0 = append([]float64(nil), mBarVec...)
	if !mat.Solve(hBar, k0) {
		return nil, nil, &bellman.ErrSingularControlHessian{Step: 0}
	}
	mat.Scale(k0, -1)

	return K0, k0, nil
}
