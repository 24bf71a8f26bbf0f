package ilqr

import (
	"errors"
	"fmt"

	"github.com/trajopt/ilqr/bellman"
)

// ErrorKind enumerates the fatal/non-fatal error taxonomy of §7: a small
// closed set of outcomes threaded through return values instead of ad hoc
// error strings.
type ErrorKind int

const (
	// PreconditionViolation: inconsistent dimensions, T out of range, mu<0,
	// or any other caller error checked before iteration begins. Fatal.
	PreconditionViolation ErrorKind = iota
	// SingularControlHessian: the LM-inflated H was not invertible. Fatal
	// for the current Solve call; retrying with a larger Mu may help.
	SingularControlHessian
	// ConvergenceNotReached: MaxIters was exhausted without the ratio test
	// passing. Not fatal: Solve still returns its best trajectory.
	ConvergenceNotReached
	// NumericNonFinite: a forward pass produced a non-finite cost or
	// state. Fatal.
	NumericNonFinite
	// LineSearchFailed: the backtracking line search exceeded its safety
	// cap (MaxLineSearch alpha shrinks) without satisfying either
	// acceptance test, and mu cannot be raised further: an exhausted
	// search doubles mu and repeats the iteration, and this is reported
	// when mu is zero (doubling leaves it zero) or has passed 1e16.
	// Fatal for the current Solve call (see §9's robustness-fix note).
	LineSearchFailed
)

func (k ErrorKind) String() string {
	switch k {
	case PreconditionViolation:
		return "PRECONDITION_VIOLATION"
	case SingularControlHessian:
		return "SINGULAR_CONTROL_HESSIAN"
	case ConvergenceNotReached:
		return "CONVERGENCE_NOT_REACHED"
	case NumericNonFinite:
		return "NUMERIC_NONFINITE"
	case LineSearchFailed:
		return "LINE_SEARCH_FAILED"
	default:
		return "UNKNOWN"
	}
}

// SolveError reports a solver failure with the offending step, when known.
type SolveError struct {
	Kind ErrorKind
	Step int
	Msg  string
}

func (e *SolveError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("ilqr: %s at step %d: %s", e.Kind, e.Step, e.Msg)
	}
	return fmt.Sprintf("ilqr: %s at step %d", e.Kind, e.Step)
}

func precondition(msg string) *SolveError {
	return &SolveError{Kind: PreconditionViolation, Msg: msg}
}

func fromBellmanErr(err error) *SolveError {
	var singErr *bellman.ErrSingularControlHessian
	if errors.As(err, &singErr) {
		return &SolveError{Kind: SingularControlHessian, Step: singErr.Step}
	}
	return &SolveError{Kind: SingularControlHessian, Msg: err.Error()}
}
