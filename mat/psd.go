package mat

import "math"

// IsPSD reports whether the square matrix a is positive semi-definite to
// within tol, by attempting a Cholesky factorization of a + tol*I. It is
// used only by tests and diagnostics; the solver itself never requires a
// PSD cost Hessian (see §4.1).
func IsPSD(a *Matrix, tol float64) bool {
	r := a.Clone()
	r.AddDiag(tol)
	return cholesky(r) == 0
}

// ApproxEqual reports whether |a-b| <= tol element-wise.
func ApproxEqual(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// RelativeEqual reports whether a and b agree to relative tolerance tol,
// falling back to an absolute comparison near zero.
func RelativeEqual(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		denom := math.Max(1.0, math.Max(math.Abs(a[i]), math.Abs(b[i])))
		if math.Abs(a[i]-b[i])/denom > tol {
			return false
		}
	}
	return true
}

// MatrixApproxEqual reports whether two matrices of equal shape agree
// element-wise to within tol.
func MatrixApproxEqual(a, b *Matrix, tol float64) bool {
	if a.rows != b.rows || a.cols != b.cols {
		return false
	}
	return ApproxEqual(a.data, b.data, tol)
}

// AllFinite reports whether every element of x is finite.
func AllFinite(x []float64) bool {
	for _, v := range x {
		if !isFinite(v) {
			return false
		}
	}
	return true
}
