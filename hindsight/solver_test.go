package hindsight

import (
	"errors"
	"math"
	"testing"

	"github.com/trajopt/ilqr/ilqr"
)

func scalarBranch(a float64, prob float64) Branch {
	dyn := func(x, u []float64) []float64 {
		return []float64{a*x[0] + u[0]}
	}
	running := func(x, u []float64, t int) float64 {
		return 0.5*x[0]*x[0] + 0.05*u[0]*u[0]
	}
	terminal := func(x []float64) float64 {
		return 0.5 * x[0] * x[0]
	}
	return Branch{Probability: prob, Dynamics: dyn, Running: running, Terminal: terminal}
}

func TestTwoIdenticalBranchesCollapseToSingleChain(t *testing.T) {
	problem := Problem{
		XDim: 1, UDim: 1, T: 8,
		Branches: []Branch{scalarBranch(0.9, 0.5), scalarBranch(0.9, 0.5)},
	}
	s, err := NewSolver(problem, Params{MaxIters: 50, CostConvgRatio: 1e-10})
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	res, err := s.Solve([]float64{1.0}, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence")
	}

	single := ilqrScalarSolver(t, 0.9, 8)
	singleRes, err := single.Solve([]float64{1.0}, nil)
	if err != nil {
		t.Fatalf("single-chain Solve: %v", err)
	}

	if math.Abs(res.Branches[0].Cost-singleRes.Cost) > 1e-6 {
		t.Fatalf("branch cost got %v want ~%v", res.Branches[0].Cost, singleRes.Cost)
	}
	if math.Abs(res.Branches[0].Cost-res.Branches[1].Cost) > 1e-9 {
		t.Fatalf("identical branches diverged: %v vs %v", res.Branches[0].Cost, res.Branches[1].Cost)
	}
}

func ilqrScalarSolver(t *testing.T, a float64, T int) *ilqr.Solver {
	t.Helper()
	dyn := func(x, u []float64) []float64 { return []float64{a*x[0] + u[0]} }
	running := func(x, u []float64, tt int) float64 { return 0.5*x[0]*x[0] + 0.05*u[0]*u[0] }
	terminal := func(x []float64) float64 { return 0.5 * x[0] * x[0] }
	problem := ilqr.Problem{XDim: 1, UDim: 1, T: T, Dynamics: dyn, Running: running, Terminal: terminal}
	s, err := ilqr.NewSolver(problem, ilqr.Params{MaxIters: 50, CostConvgRatio: 1e-10}, nil)
	if err != nil {
		t.Fatalf("ilqr.NewSolver: %v", err)
	}
	return s
}

func TestBranchFirstControlsAgreeAtSharedStage(t *testing.T) {
	problem := Problem{
		XDim: 1, UDim: 1, T: 6,
		Branches: []Branch{scalarBranch(0.9, 0.4), scalarBranch(0.7, 0.6)},
	}
	s, err := NewSolver(problem, Params{MaxIters: 50, CostConvgRatio: 1e-10})
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	res, err := s.Solve([]float64{1.0}, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if len(res.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(res.Branches))
	}
	// The shared first-stage control must be identical for both branches.
	if res.Branches[0].Controls[0][0] != res.Branches[1].Controls[0][0] {
		t.Fatalf("shared first control diverged between branches")
	}
}

func TestNewSolverRejectsBadProbabilities(t *testing.T) {
	problem := Problem{
		XDim: 1, UDim: 1, T: 5,
		Branches: []Branch{scalarBranch(0.9, 0.3), scalarBranch(0.7, 0.3)},
	}
	_, err := NewSolver(problem, Params{})
	if err == nil {
		t.Fatal("expected error for probabilities not summing to 1")
	}
	var solveErr *ilqr.SolveError
	if !errors.As(err, &solveErr) || solveErr.Kind != ilqr.PreconditionViolation {
		t.Fatalf("expected PreconditionViolation, got %v", err)
	}
}

func TestNewSolverRejectsEmptyBranches(t *testing.T) {
	problem := Problem{XDim: 1, UDim: 1, T: 5}
	_, err := NewSolver(problem, Params{})
	if err == nil {
		t.Fatal("expected error for no branches")
	}
}

func TestNewSolverRejectsShortHorizon(t *testing.T) {
	problem := Problem{
		XDim: 1, UDim: 1, T: 1,
		Branches: []Branch{scalarBranch(0.9, 1.0)},
	}
	_, err := NewSolver(problem, Params{})
	if err == nil {
		t.Fatal("expected error for T<2")
	}
}
