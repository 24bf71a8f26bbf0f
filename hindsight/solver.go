// Package hindsight implements the multi-branch hindsight-iLQR solver of
// §3: a set of branches sharing a common first-stage control, whose
// per-branch backward passes run concurrently (grounded on the
// goroutine-per-run Ensemble.Run pattern used for Monte Carlo rollouts in
// the simulation ensemble package the rest of this module's pack carries),
// merged at t=0 by a probability-weighted Levenberg-Marquardt regularized
// backup.
package hindsight

import (
	"context"
	"math"
	"sync"

	"github.com/trajopt/ilqr/bellman"
	"github.com/trajopt/ilqr/ilqr"
	"github.com/trajopt/ilqr/mat"
	"github.com/trajopt/ilqr/numdiff"
)

// Branch is a single hindsight scenario: its own dynamics and cost, sharing
// XDim/UDim/T with its siblings, weighted by Probability in the t=0 merge.
type Branch struct {
	Probability float64
	Dynamics    numdiff.Dynamics
	Running     numdiff.RunningCost
	Terminal    numdiff.TerminalCost
}

// Problem bundles the branches of a single hindsight-iLQR instance.
type Problem struct {
	XDim, UDim int
	T          int
	Branches   []Branch
}

// Params mirrors ilqr.Params; MaxLineSearch additionally bounds the shared
// t=0 line search across all branches (§9).
type Params = ilqr.Params

// Result reports the shared first-stage control and the per-branch
// trajectories it was merged from.
type Result struct {
	Converged bool
	U0        []float64 // shared first-stage control
	K0        *mat.Matrix
	K00       []float64
	Branches  []BranchResult
	Summary   ilqr.Summary
}

// BranchResult is one branch's trajectory under the shared first control.
type BranchResult struct {
	States   [][]float64
	Controls [][]float64
	Cost     float64
}

// Solver runs the merged backward pass and shared forward line search.
type Solver struct {
	problem Problem
	params  Params
}

func NewSolver(problem Problem, params Params) (*Solver, error) {
	switch {
	case problem.XDim <= 0:
		return nil, ilqrPrecondition("XDim must be positive")
	case problem.UDim <= 0:
		return nil, ilqrPrecondition("UDim must be positive")
	case problem.T < 2:
		return nil, ilqrPrecondition("T must be at least 2")
	case len(problem.Branches) == 0:
		return nil, ilqrPrecondition("at least one branch is required")
	}
	sum := 0.0
	for _, b := range problem.Branches {
		if b.Dynamics == nil || b.Running == nil || b.Terminal == nil {
			return nil, ilqrPrecondition("branch callbacks are required")
		}
		if b.Probability < 0 {
			return nil, ilqrPrecondition("branch probability must be non-negative")
		}
		sum += b.Probability
	}
	if math.Abs(sum-1.0) > 1e-3 {
		return nil, ilqrPrecondition("branch probabilities must sum to 1")
	}
	return &Solver{problem: problem, params: defaultParams(params)}, nil
}

func ilqrPrecondition(msg string) error {
	return &ilqr.SolveError{Kind: ilqr.PreconditionViolation, Step: -1, Msg: msg}
}

func defaultParams(p Params) Params {
	if p.MaxIters <= 0 {
		p.MaxIters = 100
	}
	if p.CostConvgRatio <= 0 {
		p.CostConvgRatio = 1e-6
	}
	if p.StartAlpha <= 0 {
		p.StartAlpha = 1.0
	}
	if p.AlphaShrink <= 0 || p.AlphaShrink >= 1 {
		p.AlphaShrink = 0.5
	}
	if p.MaxLineSearch <= 0 {
		p.MaxLineSearch = 50
	}
	if p.Mu < 0 {
		p.Mu = 0
	}
	return p
}

// branchPlan is the per-branch linearization/quadratization and backward
// pass state carried across outer iterations.
type branchPlan struct {
	branch Branch
	xNom   [][]float64
	uNom   [][]float64
	k      [][]float64
	K      []*mat.Matrix
	cost   float64

	firstStageStep *bellman.Step
	firstStageV    *mat.Matrix
	firstStageG    []float64
}

// backwardAll runs every branch's backward pass concurrently, storing each
// branch's gains for t>=1 in its plan, and returns the first error
// encountered (if any).
func (s *Solver) backwardAll(ctx context.Context, plans []*branchPlan, mu float64) error {
	p := s.problem
	errs := make([]error, len(plans))

	var wg sync.WaitGroup
	for i, plan := range plans {
		wg.Add(1)
		go func(idx int, bp *branchPlan) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			default:
			}

			k := make([][]float64, p.T)
			K := make([]*mat.Matrix, p.T)
			v, g := numdiff.QuadratizeTerminalCost(bp.branch.Terminal, bp.xNom[p.T])

			for t := p.T - 1; t >= 0; t-- {
				a, b := numdiff.LinearizeDynamics(bp.branch.Dynamics, bp.xNom[t], bp.uNom[t])
				cost := numdiff.QuadratizeRunningCost(bp.branch.Running, bp.xNom[t], bp.uNom[t], t)
				step := &bellman.Step{A: a, B: b, Cost: cost}

				if t == 0 {
					// The t=0 control is shared: stash the per-branch
					// t=0 linearization and the (V_1, g_1) boundary pair
					// for the caller to merge instead of solving
					// branch-locally.
					bp.k, bp.K = k, K
					bp.firstStageStep = step
					bp.firstStageV, bp.firstStageG = v, g
					return
				}

				res, err := bellman.Backup(step, v, g, mu, t)
				if err != nil {
					errs[idx] = err
					return
				}
				k[t], K[t] = res.K0, res.K
				v, g = res.V, res.G
			}
		}(i, plan)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
