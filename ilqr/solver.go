// Package ilqr implements the single-chain iterative LQR solver of §2: a
// Gauss-Newton method alternating a backward value-function pass (bellman)
// with a forward rollout and backtracking line search, structured as a
// Problem/Params/Solver/Result pipeline: construction validates and builds
// an Optimizer-like Solver, then Solve runs an iteration driver over a main
// loop of labeled sub-steps (backward pass, line search, convergence test).
package ilqr

import (
	"math"

	"github.com/trajopt/ilqr/bellman"
	"github.com/trajopt/ilqr/mat"
	"github.com/trajopt/ilqr/numdiff"
)

// Solver holds a validated Problem/Params pair and the nominal trajectory
// state carried between Solve calls when warm-starting.
type Solver struct {
	problem Problem
	params  Params
	logger  *Logger

	nomX        [][]float64
	nomU        [][]float64
	haveNominal bool
}

// NewSolver validates the problem and params and returns a ready Solver.
// Per the design note resolving the T boundary open question, both solvers
// in this module enforce the stricter rule: T must be at least 2.
func NewSolver(problem Problem, params Params, logger *Logger) (*Solver, error) {
	switch {
	case problem.XDim <= 0:
		return nil, precondition("XDim must be positive")
	case problem.UDim <= 0:
		return nil, precondition("UDim must be positive")
	case problem.T < 2:
		return nil, precondition("T must be at least 2")
	case problem.Dynamics == nil:
		return nil, precondition("Dynamics is required")
	case problem.Running == nil:
		return nil, precondition("Running cost is required")
	case problem.Terminal == nil:
		return nil, precondition("Terminal cost is required")
	}
	params = defaultParams(params)
	if logger == nil && params.Verbose {
		logger = &Logger{Level: LogEval}
	}
	return &Solver{
		problem: problem,
		params:  params,
		logger:  defaultLogger(logger),
	}, nil
}

// rollout simulates Dynamics forward from x0 under the affine feedback law
// u = uNom + alpha*k + K(x - xNom), returning states, controls, and total
// cost. A non-finite state or cost aborts the rollout early and reports ok=false.
func (s *Solver) rollout(x0 []float64, xNom, uNom [][]float64, k [][]float64, K []*mat.Matrix, alpha float64) (states, controls [][]float64, cost float64, ok bool) {
	p := s.problem
	states = make([][]float64, p.T+1)
	controls = make([][]float64, p.T)
	states[0] = append([]float64(nil), x0...)

	for t := 0; t < p.T; t++ {
		dx := make([]float64, p.XDim)
		for i := range dx {
			dx[i] = states[t][i] - xNom[t][i]
		}
		du := make([]float64, p.UDim)
		mat.MulVec(1, K[t], false, dx, 0, du)
		u := make([]float64, p.UDim)
		for i := range u {
			u[i] = uNom[t][i] + alpha*k[t][i] + du[i]
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

	if !s.params.DisableBoundaryCost {
		cost += p.Terminal(states[p.T])
	}
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return states, controls, cost, false
	}
	return states, controls, cost, true
}

// backwardPass quadratizes the cost and linearizes the dynamics along
// (xNom, uNom), then runs the bellman backup from t=T-1 down to t=0.
func (s *Solver) backwardPass(xNom, uNom [][]float64, mu float64) (k [][]float64, K []*mat.Matrix, err error) {
	p := s.problem
	k = make([][]float64, p.T)
	K = make([]*mat.Matrix, p.T)

	var v *mat.Matrix
	var g []float64
	if s.params.DisableBoundaryCost {
		v = mat.New(p.XDim, p.XDim, nil)
		g = make([]float64, p.XDim)
	} else {
		v, g = numdiff.QuadratizeTerminalCost(p.Terminal, xNom[p.T])
	}

	for t := p.T - 1; t >= 0; t-- {
		a, b := numdiff.LinearizeDynamics(p.Dynamics, xNom[t], uNom[t])
		cost := numdiff.QuadratizeRunningCost(p.Running, xNom[t], uNom[t], t)
		step := &bellman.Step{A: a, B: b, Cost: cost}

		res, backupErr := bellman.Backup(step, v, g, mu, t)
		if backupErr != nil {
			return nil, nil, fromBellmanErr(backupErr)
		}
		k[t] = res.K0
		K[t] = res.K
		v = res.V
		g = res.G
	}
	return k, K, nil
}

// Solve runs the outer iLQR loop from the given initial state and control
// sequence (or the warm-started nominal if WarmStart is set and a previous
// Solve has run), alternating backward and forward passes until the cost
// convergence ratio or MaxIters is reached.
func (s *Solver) Solve(x0 []float64, uInit [][]float64) (*Result, error) {
	p, params := s.problem, s.params

	if len(x0) != p.XDim {
		return nil, precondition("initial state dimension mismatch")
	}

	xNom, uNom := s.initNominal(x0, uInit)
	_, _, cost, ok := s.rolloutNominal(xNom, uNom)
	if !ok {
		return nil, &SolveError{Kind: NumericNonFinite, Msg: "initial rollout produced non-finite cost"}
	}

	mu := params.Mu
	converged := false
	var lastK []*mat.Matrix
	var lastK0 [][]float64
	var finalRatio float64
	iter := 0

	for ; iter < params.MaxIters; iter++ {
		k, K, err := s.backwardPass(xNom, uNom, mu)
		if err != nil {
			return nil, err
		}

		alpha := params.StartAlpha
		improved := false
		var newX, newU [][]float64
		var newCost, ratio float64

		for ls := 0; ls < params.MaxLineSearch; ls++ {
			cand, candU, candCost, candOK := s.rollout(x0, xNom, uNom, k, K, alpha)
			if candOK {
				candRatio := math.Abs(cost-candCost) / math.Max(math.Abs(candCost), 1.0)
				if candCost < cost || candRatio < params.CostConvgRatio {
					newX, newU, newCost, ratio = cand, candU, candCost, candRatio
					improved = true
					break
				}
			}
			alpha *= params.AlphaShrink
		}

		if !improved {
			mu *= 2
			if s.logger.enable(LogTrace) {
				s.logger.log("ilqr: iter %d line search exhausted, mu -> %g\n", iter, mu)
			}
			if mu == 0 || mu > 1e16 {
				return nil, &SolveError{Kind: LineSearchFailed, Step: iter}
			}
			continue
		}

		oldCost := cost
		xNom, uNom, cost = newX, newU, newCost
		lastK, lastK0 = K, k
		finalRatio = ratio
		mu = math.Max(mu/2, 0)

		if s.logger.enable(LogEval) {
			s.logger.log("ilqr: iter %d alpha=%g ratio=%g new_cost=%g old_cost=%g mu=%g\n", iter, alpha, ratio, cost, oldCost, mu)
		}

		if ratio < params.CostConvgRatio {
			converged = true
			iter++
			break
		}
	}

	s.nomX, s.nomU, s.haveNominal = xNom, uNom, true

	if s.logger.enable(LogLast) {
		s.logger.log("ilqr: done iters=%d converged=%t cost=%g\n", iter, converged, cost)
	}

	res := &Result{
		Converged: converged,
		States:    xNom,
		Controls:  uNom,
		Cost:      cost,
		K:         lastK,
		K0:        lastK0,
		Summary: Summary{
			Iters:     iter,
			FinalMu:   mu,
			FinalCost: cost,
			CostRatio: finalRatio,
		},
	}
	if !converged {
		return res, &SolveError{Kind: ConvergenceNotReached, Step: iter}
	}
	return res, nil
}

func (s *Solver) rolloutNominal(xNom, uNom [][]float64) ([][]float64, [][]float64, float64, bool) {
	p := s.problem
	identity := make([]*mat.Matrix, p.T)
	zero := make([][]float64, p.T)
	for t := 0; t < p.T; t++ {
		identity[t] = mat.New(p.UDim, p.XDim, nil)
		zero[t] = make([]float64, p.UDim)
	}
	return s.rolloutPassthrough(xNom, uNom, identity, zero)
}

// rolloutPassthrough evaluates cost along (xNom, uNom) with alpha=0 and
// zero feedback, i.e. exactly retraces the given trajectory.
func (s *Solver) rolloutPassthrough(xNom, uNom [][]float64, K []*mat.Matrix, k [][]float64) ([][]float64, [][]float64, float64, bool) {
	states, controls, cost, ok := s.rollout(xNom[0], xNom, uNom, k, K, 0)
	return states, controls, cost, ok
}

// initNominal resolves the starting (xNom, uNom) pair, applying warm start
// per §9 when requested and a previous nominal trajectory exists: the first
// TOffset entries are dropped and the tail is held at its last control.
func (s *Solver) initNominal(x0 []float64, uInit [][]float64) (xNom, uNom [][]float64) {
	p := s.problem
	if s.params.WarmStart && s.haveNominal && len(s.nomU) > s.params.TOffset {
		uNom = make([][]float64, p.T)
		src := s.nomU[s.params.TOffset:]
		for t := 0; t < p.T; t++ {
			if t < len(src) {
				uNom[t] = append([]float64(nil), src[t]...)
			} else {
				uNom[t] = append([]float64(nil), src[len(src)-1]...)
			}
		}
	} else {
		uNom = make([][]float64, p.T)
		for t := range uNom {
			if uInit != nil && t < len(uInit) {
				uNom[t] = append([]float64(nil), uInit[t]...)
			} else {
				uNom[t] = make([]float64, p.UDim)
			}
		}
	}

	xNom = make([][]float64, p.T+1)
	xNom[0] = append([]float64(nil), x0...)
	for t := 0; t < p.T; t++ {
		xNom[t+1] = p.Dynamics(xNom[t], uNom[t])
	}
	return xNom, uNom
}
