package ilqr

import (
	"github.com/trajopt/ilqr/mat"
	"github.com/trajopt/ilqr/numdiff"
)

// Problem specifies a single-chain finite-horizon trajectory optimization
// per §2: discrete-time dynamics, a running cost evaluated at each of the
// T steps, and a terminal cost evaluated on the final state.
type Problem struct {
	XDim, UDim int
	T          int // number of control steps; T+1 states are visited
	Dynamics   numdiff.Dynamics
	Running    numdiff.RunningCost
	Terminal   numdiff.TerminalCost
}

// Params collects the solver hyperparameters of §2 and §9.
type Params struct {
	Mu                  float64 // initial LM regularization
	MaxIters            int
	CostConvgRatio      float64 // outer loop stops when |ΔJ|/|J| falls below this
	StartAlpha          float64 // initial backtracking line-search step
	AlphaShrink         float64 // multiplicative shrink factor per backtrack, in (0,1)
	MaxLineSearch       int     // safety cap on alpha-halvings (§9)
	WarmStart           bool
	TOffset             int // steps to drop from the front on warm start
	DisableBoundaryCost bool
	Verbose             bool
}

// defaultParams fills the zero-value gaps a caller is likely to leave.
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

// Result contains the outcome of Solve.
type Result struct {
	Converged bool
	States    [][]float64 // T+1 states, index 0 is the initial state
	Controls  [][]float64 // T controls
	Cost      float64
	K         []*mat.Matrix // per-step feedback gains, length T
	K0        [][]float64   // per-step feed-forward terms, length T
	Summary   Summary
}

// Summary reports iteration bookkeeping: how many outer iterations ran and
// where mu/cost ended up, so callers can distinguish convergence from
// hitting the iteration cap without inspecting solver internals.
type Summary struct {
	Iters     int
	FinalMu   float64
	FinalCost float64
	CostRatio float64
}
