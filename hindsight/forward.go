package hindsight

import (
	"math"

	"github.com/trajopt/ilqr/mat"
)

// rolloutBranch simulates one branch forward under the shared first-stage
// control u0 (computed by the caller as uNom0 + alpha*k0 + K0*(x0-xNom0))
// and its own per-branch feedback law
// for t>=1, mirroring ilqr's rollout but splitting out the shared stage.
func rolloutBranch(bp *branchPlan, x0 []float64, u0 []float64, alpha float64) (states, controls [][]float64, cost float64, ok bool) {
	p := bp.branch
	T := len(bp.k) // number of control steps; xNom has T+1 entries
	states = make([][]float64, T+1)
	controls = make([][]float64, T)
	states[0] = append([]float64(nil), x0...)
	controls[0] = u0

	if !mat.AllFinite(u0) {
		return states, controls, math.Inf(1), false
	}
	cost += p.Running(states[0], u0, 0)
	next := p.Dynamics(states[0], u0)
	if !mat.AllFinite(next) {
		return states, controls, math.Inf(1), false
	}
	states[1] = next

	for t := 1; t < T; t++ {
		dx := make([]float64, len(x0))
		for i := range dx {
			dx[i] = states[t][i] - bp.xNom[t][i]
		}
		uDim, _ := bp.K[t].Dims()
		du := make([]float64, uDim)
		mat.MulVec(1, bp.K[t], false, dx, 0, du)
		u := make([]float64, uDim)
		for i := range u {
			u[i] = bp.uNom[t][i] + alpha*bp.k[t][i] + du[i]
		}
		controls[t] = u
		if !mat.AllFinite(u) {
			return states, controls, math.Inf(1), false
		}
		cost += p.Running(states[t], u, t)

		next := p.Dynamics(states[t], u)
		if !mat.AllFinite(next) {
			return states, controls, math.Inf(1), false
		}
		states[t+1] = next
	}

	cost += p.Terminal(states[T])
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return states, controls, cost, false
	}
	return states, controls, cost, true
}
