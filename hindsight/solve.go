package hindsight

import (
	"context"
	"errors"
	"math"

	"github.com/trajopt/ilqr/bellman"
	"github.com/trajopt/ilqr/ilqr"
	"github.com/trajopt/ilqr/mat"
)

// Solve runs the outer hindsight-iLQR loop: concurrent per-branch backward
// passes down to t=1, a probability-weighted merge of the t=0 control
// subproblem, and a single shared line search whose accepted alpha is
// applied identically to every branch (§3's commit invariant: all branches
// must agree on (x0,u0) after the line search).
func (s *Solver) Solve(x0 []float64, uInit [][]float64) (*Result, error) {
	p, params := s.problem, s.params
	n := len(p.Branches)

	if len(x0) != p.XDim {
		return nil, ilqrPrecondition("initial state dimension mismatch")
	}

	probs := make([]float64, n)
	for i, b := range p.Branches {
		probs[i] = b.Probability
	}

	plans := make([]*branchPlan, n)
	for i, b := range p.Branches {
		xNom, uNom := initNominal(b, x0, uInit, p.T, p.UDim)
		plans[i] = &branchPlan{branch: b, xNom: xNom, uNom: uNom}
	}

	cost, ok := totalCost(plans, probs)
	if !ok {
		return nil, &ilqr.SolveError{Kind: ilqr.NumericNonFinite, Msg: "initial rollout produced non-finite cost"}
	}

	mu := params.Mu
	converged := false
	iter := 0
	var K0 *mat.Matrix
	var k0 []float64
	var finalRatio float64

	for ; iter < params.MaxIters; iter++ {
		if err := s.backwardAll(context.Background(), plans, mu); err != nil {
			return nil, wrapBellmanErr(err)
		}

		mergedK0, mergedK00, err := mergeFirstStage(plans, probs, mu)
		if err != nil {
			return nil, wrapBellmanErr(err)
		}

		alpha := params.StartAlpha
		improved := false
		var candPlans []*branchPlan
		var candCost, ratio float64

		for ls := 0; ls < params.MaxLineSearch; ls++ {
			dx0 := make([]float64, p.XDim) // branches share x0, so dx0 is always 0 at t=0
			du0 := make([]float64, p.UDim)
			mat.MulVec(1, mergedK0, false, dx0, 0, du0)
			u0 := make([]float64, p.UDim)
			for i := range u0 {
				u0[i] = plans[0].uNom[0][i] + alpha*mergedK00[i] + du0[i]
			}

			trial := make([]*branchPlan, n)
			sum := 0.0
			ok := true
			for i, plan := range plans {
				states, controls, branchCost, branchOK := rolloutBranch(plan, x0, u0, alpha)
				if !branchOK {
					ok = false
					break
				}
				trial[i] = &branchPlan{branch: plan.branch, xNom: states, uNom: controls, cost: branchCost}
				sum += probs[i] * branchCost
			}
			if ok {
				candRatio := math.Abs(cost-sum) / math.Max(math.Abs(sum), 1.0)
				if sum < cost || candRatio < params.CostConvgRatio {
					candPlans, candCost, ratio = trial, sum, candRatio
					improved = true
					break
				}
			}
			alpha *= params.AlphaShrink
		}

		if !improved {
			mu *= 2
			if mu == 0 || mu > 1e16 {
				return nil, &ilqr.SolveError{Kind: ilqr.LineSearchFailed, Step: iter}
			}
			continue
		}

		plans, cost = candPlans, candCost
		K0, k0 = mergedK0, mergedK00
		finalRatio = ratio
		mu = math.Max(mu/2, 0)

		if ratio < params.CostConvgRatio {
			converged = true
			iter++
			break
		}
	}

	result := &Result{
		Converged: converged,
		U0:        plans[0].uNom[0],
		K0:        K0,
		K00:       k0,
		Summary:   ilqr.Summary{Iters: iter, FinalMu: mu, FinalCost: cost, CostRatio: finalRatio},
	}
	for _, plan := range plans {
		result.Branches = append(result.Branches, BranchResult{
			States: plan.xNom, Controls: plan.uNom, Cost: plan.cost,
		})
	}
	if !converged {
		return result, &ilqr.SolveError{Kind: ilqr.ConvergenceNotReached, Step: iter}
	}
	return result, nil
}

func initNominal(b Branch, x0 []float64, uInit [][]float64, T, uDim int) (xNom, uNom [][]float64) {
	uNom = make([][]float64, T)
	for t := range uNom {
		if uInit != nil && t < len(uInit) {
			uNom[t] = append([]float64(nil), uInit[t]...)
		} else {
			uNom[t] = make([]float64, uDim)
		}
	}
	xNom = make([][]float64, T+1)
	xNom[0] = append([]float64(nil), x0...)
	for t := 0; t < T; t++ {
		xNom[t+1] = b.Dynamics(xNom[t], uNom[t])
	}
	return xNom, uNom
}

func totalCost(plans []*branchPlan, probs []float64) (float64, bool) {
	total := 0.0
	for i, plan := range plans {
		c, ok := evalNominalCost(plan)
		if !ok {
			return 0, false
		}
		plan.cost = c
		total += probs[i] * c
	}
	return total, true
}

func evalNominalCost(plan *branchPlan) (float64, bool) {
	b := plan.branch
	T := len(plan.uNom)
	cost := 0.0
	for t := 0; t < T; t++ {
		if !mat.AllFinite(plan.uNom[t]) {
			return 0, false
		}
		cost += b.Running(plan.xNom[t], plan.uNom[t], t)
	}
	cost += b.Terminal(plan.xNom[T])
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return 0, false
	}
	return cost, true
}

func wrapBellmanErr(err error) *ilqr.SolveError {
	var singErr *bellman.ErrSingularControlHessian
	if errors.As(err, &singErr) {
		return &ilqr.SolveError{Kind: ilqr.SingularControlHessian, Step: singErr.Step}
	}
	return &ilqr.SolveError{Kind: ilqr.SingularControlHessian, Msg: err.Error()}
}
