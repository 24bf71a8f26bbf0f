package mat

import "math"

// cholesky factors the symmetric positive definite matrix a = Rᵀ*R in
// place, storing the upper-triangular Cholesky factor R in the upper
// triangle of a (the strict lower triangle is left untouched). It reports
// info = 0 on success, or the 1-based index of the leading minor that
// failed to be positive definite.
//
// Adapted from the classic LINPACK dpofa column-oriented factorization.
func cholesky(a *Matrix) (info int) {
	n := a.rows
	if a.cols != n {
		panic("mat: cholesky requires a square matrix")
	}
	d := a.data
	for j := 0; j < n; j++ {
		info = j + 1
		s := zero
		for k := 0; k < j; k++ {
			// Column k and column j of R above row k (upper triangle, stride n).
			t := d[k*n+j]
			for i := 0; i < k; i++ {
				t -= d[i*n+k] * d[i*n+j]
			}
			t /= d[k*n+k]
			d[k*n+j] = t
			s += t * t
		}
		s = d[j*n+j] - s
		if s <= 0 {
			return info
		}
		d[j*n+j] = math.Sqrt(s)
	}
	return 0
}

// cholSolve solves R x = b then Rᵀ x = x for the upper-triangular Cholesky
// factor R produced by cholesky, i.e. solves (RᵀR) x = b in place on b.
// Mirrors the classic LINPACK dposl pattern built from dtrsl-style
// triangular back/forward substitution.
func cholSolve(r *Matrix, b []float64) {
	n := r.rows
	d := r.data
	// Forward solve Rᵀ y = b: Rᵀ is lower triangular with entries Rᵀ[k][j]=R[j][k].
	for k := 0; k < n; k++ {
		sum := zero
		for j := 0; j < k; j++ {
			sum += d[j*n+k] * b[j]
		}
		b[k] = (b[k] - sum) / d[k*n+k]
	}
	// Back solve R x = y: R is upper triangular.
	for k := n - 1; k >= 0; k-- {
		sum := zero
		for j := k + 1; j < n; j++ {
			sum += d[k*n+j] * b[j]
		}
		b[k] = (b[k] - sum) / d[k*n+k]
	}
}

// SolveSPD solves A x = b for a symmetric positive definite A via Cholesky
// factorization. b is overwritten with the solution. It returns false if A
// is not (numerically) positive definite, in which case b is left
// unchanged and the caller should fall back to SolveGeneral.
func SolveSPD(a *Matrix, b []float64) bool {
	n := a.rows
	if a.cols != n || len(b) != n {
		panic("mat: dimension mismatch in SolveSPD")
	}
	r := a.Clone()
	if info := cholesky(r); info != 0 {
		return false
	}
	cholSolve(r, b)
	return true
}

// SolveGeneral solves A x = b for a general square A via Gaussian
// elimination with partial pivoting. b is overwritten with the solution.
// It returns false if A is numerically singular.
func SolveGeneral(a *Matrix, b []float64) bool {
	n := a.rows
	if a.cols != n || len(b) != n {
		panic("mat: dimension mismatch in SolveGeneral")
	}
	lu := a.Clone().data
	rhs := make([]float64, n)
	copy(rhs, b)

	piv := make([]int, n)
	for i := range piv {
		piv[i] = i
	}

	for k := 0; k < n; k++ {
		// Partial pivot: find the largest magnitude entry in column k at or below row k.
		maxRow, maxVal := k, math.Abs(lu[k*n+k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(lu[i*n+k]); v > maxVal {
				maxRow, maxVal = i, v
			}
		}
		if maxVal == 0 {
			return false
		}
		if maxRow != k {
			for j := 0; j < n; j++ {
				lu[k*n+j], lu[maxRow*n+j] = lu[maxRow*n+j], lu[k*n+j]
			}
			rhs[k], rhs[maxRow] = rhs[maxRow], rhs[k]
		}
		pivot := lu[k*n+k]
		for i := k + 1; i < n; i++ {
			factor := lu[i*n+k] / pivot
			if factor == 0 {
				continue
			}
			daxpy(n-k, -factor, lu[k*n+k:], lu[i*n+k:])
			rhs[i] -= factor * rhs[k]
		}
	}

	// Back substitution on the upper-triangular system.
	x := b
	for i := n - 1; i >= 0; i-- {
		sum := rhs[i]
		for j := i + 1; j < n; j++ {
			sum -= lu[i*n+j] * x[j]
		}
		x[i] = sum / lu[i*n+i]
	}
	return true
}

// Solve attempts SolveSPD first and falls back to SolveGeneral when a is
// not positive definite, which happens routinely here because cost
// Hessians are not required to be PSD (§4.1) -- LM inflation keeps the
// control-subproblem matrix invertible, not necessarily SPD.
func Solve(a *Matrix, b []float64) bool {
	r := a.Clone()
	bb := make([]float64, len(b))
	copy(bb, b)
	if cholesky(r) == 0 {
		cholSolve(r, bb)
		copy(b, bb)
		return true
	}
	return SolveGeneral(a, b)
}

// Invert returns A⁻¹ for a general square matrix, or nil if A is singular.
func Invert(a *Matrix) *Matrix {
	n := a.rows
	if a.cols != n {
		panic("mat: Invert requires a square matrix")
	}
	inv := New(n, n, nil)
	e := make([]float64, n)
	col := make([]float64, n)
	for j := 0; j < n; j++ {
		for i := range e {
			e[i] = 0
		}
		e[j] = 1
		copy(col, e)
		if !Solve(a, col) {
			return nil
		}
		for i := 0; i < n; i++ {
			inv.Set(i, j, col[i])
		}
	}
	return inv
}
