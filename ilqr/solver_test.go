package ilqr

import (
	"errors"
	"math"
	"testing"

	"github.com/trajopt/ilqr/mat"
	"github.com/trajopt/ilqr/numdiff"
)

// scalarLQ builds a 1-state, 1-control problem with A=0.9, B=1, running
// cost 0.5(x^2 + 0.1 u^2), terminal cost 0.5 x^2 -- its optimal gains approach the
// fixed point of the discrete Riccati recursion, independent of iLQR.
func scalarLQ(T int) Problem {
	dyn := func(x, u []float64) []float64 {
		return []float64{0.9*x[0] + u[0]}
	}
	running := func(x, u []float64, t int) float64 {
		return 0.5*x[0]*x[0] + 0.05*u[0]*u[0]
	}
	terminal := func(x []float64) float64 {
		return 0.5 * x[0] * x[0]
	}
	return Problem{XDim: 1, UDim: 1, T: T, Dynamics: dyn, Running: running, Terminal: terminal}
}

// riccatiFixedPoint iterates the scalar discrete-time Riccati recursion to
// convergence, giving an independent reference for the optimal value/gain.
func riccatiFixedPoint(a, b, q, r float64, iters int) (p, k float64) {
	p = q
	for i := 0; i < iters; i++ {
		h := r + b*p*b
		k = -(b * p * a) / h
		p = q + (a+b*k)*p*(a+b*k) + k*r*k
	}
	return p, k
}

func TestSolverScalarLQRMatchesRiccati(t *testing.T) {
	problem := scalarLQ(20)
	params := Params{MaxIters: 50, CostConvgRatio: 1e-12, StartAlpha: 1.0}
	s, err := NewSolver(problem, params, nil)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}

	res, err := s.Solve([]float64{1.0}, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, summary=%+v", res.Summary)
	}

	_, wantK := riccatiFixedPoint(0.9, 1.0, 1.0, 0.1, 200)
	gotK := res.K[0].At(0, 0)
	if math.Abs(gotK-wantK) > 1e-4 {
		t.Fatalf("gain got %v want %v", gotK, wantK)
	}
}

func TestSolverConvergesWithinFewPasses(t *testing.T) {
	problem := scalarLQ(10)
	params := Params{MaxIters: 50, CostConvgRatio: 1e-10}
	s, err := NewSolver(problem, params, nil)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	res, err := s.Solve([]float64{2.0}, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	// A linear-quadratic problem has no curvature mismatch between the
	// quadratic model and the true cost, so iLQR should settle in very
	// few outer passes.
	if res.Summary.Iters > 5 {
		t.Fatalf("expected convergence within a few passes, got %d", res.Summary.Iters)
	}
}

func TestSolverStableAfterConvergence(t *testing.T) {
	problem := scalarLQ(10)
	params := Params{MaxIters: 50, CostConvgRatio: 1e-10}
	s, err := NewSolver(problem, params, nil)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	res1, err := s.Solve([]float64{2.0}, nil)
	if err != nil {
		t.Fatalf("first Solve: %v", err)
	}

	// Re-solving with the converged nominal as its own initial guess
	// should reproduce the same cost within tolerance -- a
	// fixed point of the outer loop.
	res2, err := s.Solve([]float64{2.0}, res1.Controls)
	if err != nil {
		t.Fatalf("second Solve: %v", err)
	}
	if math.Abs(res1.Cost-res2.Cost) > 1e-6 {
		t.Fatalf("cost drifted after re-solve: %v vs %v", res1.Cost, res2.Cost)
	}
}

func TestSolverWarmStartIdempotent(t *testing.T) {
	problem := scalarLQ(10)
	params := Params{MaxIters: 50, CostConvgRatio: 1e-10, WarmStart: true, TOffset: 0}
	s, err := NewSolver(problem, params, nil)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	res1, err := s.Solve([]float64{2.0}, nil)
	if err != nil {
		t.Fatalf("first solve: %v", err)
	}
	res2, err := s.Solve([]float64{2.0}, nil)
	if err != nil {
		t.Fatalf("warm-started solve: %v", err)
	}
	if !res2.Converged {
		t.Fatalf("expected warm-started solve to converge")
	}
	// Re-solving from the converged nominal with no offset is a fixed
	// point: one outer iteration, trajectory unchanged.
	if res2.Summary.Iters != 1 {
		t.Fatalf("expected 1 outer iteration on warm restart, got %d", res2.Summary.Iters)
	}
	for i := range res1.States {
		if !mat.ApproxEqual(res1.States[i], res2.States[i], 1e-10) {
			t.Fatalf("state %d changed on warm restart: %v vs %v", i, res1.States[i], res2.States[i])
		}
	}
}

func TestNewSolverRejectsShortHorizon(t *testing.T) {
	problem := scalarLQ(1)
	_, err := NewSolver(problem, Params{}, nil)
	if err == nil {
		t.Fatal("expected error for T<2")
	}
	var solveErr *SolveError
	if !errors.As(err, &solveErr) || solveErr.Kind != PreconditionViolation {
		t.Fatalf("expected PreconditionViolation, got %v", err)
	}
}

func TestNewSolverRejectsMissingCallbacks(t *testing.T) {
	problem := scalarLQ(5)
	problem.Dynamics = nil
	_, err := NewSolver(problem, Params{}, nil)
	if err == nil {
		t.Fatal("expected error for nil Dynamics")
	}
}

func TestSolverQuadratizationRoundTrip(t *testing.T) {
	// Sanity-checks that the solver's own quadratization of a known
	// quadratic cost recovers the closed-form Hessian, independent of the
	// outer iLQR loop -- guards against a future refactor silently
	// swapping in a broken cost callback wiring.
	q := numdiff.QuadratizeRunningCost(func(x, u []float64, t int) float64 {
		return 0.5*x[0]*x[0] + 0.05*u[0]*u[0]
	}, []float64{1.0}, []float64{0.2}, 0)
	if !mat.ApproxEqual([]float64{q.Q.At(0, 0)}, []float64{1.0}, 1e-4) {
		t.Fatalf("Q got %v want 1.0", q.Q.At(0, 0))
	}
	if !mat.ApproxEqual([]float64{q.R.At(0, 0)}, []float64{0.1}, 1e-4) {
		t.Fatalf("R got %v want 0.1", q.R.At(0, 0))
	}
}
