// Package mat provides the dense, fixed-size vector and matrix kernels the
// solver packages build on: BLAS-style vector operations, small symmetric
// and general linear solves, and the tolerance helpers used throughout the
// test suite. Matrices are stored row-major as a flat []float64 plus an
// explicit row/column count; there is no sparse or blocked representation,
// since every matrix the optimizer touches is sized by x_dim/u_dim and
// never grows beyond a handful of rows and columns.
package mat

import "math"

const zero = 0.0
const one = 1.0

// daxpy computes dy[i] += da*dx[i] for i in [0,n).
func daxpy(n int, da float64, dx []float64, dy []float64) {
	if n <= 0 || da == 0 {
		return
	}
	if n > len(dx) || n > len(dy) {
		panic("mat: bound check error")
	}
	for i := 0; i < n; i++ {
		dy[i] += da * dx[i]
	}
}

// ddot computes the dot product of dx[:n] and dy[:n].
func ddot(n int, dx, dy []float64) (dot float64) {
	if n <= 0 {
		return 0
	}
	if n > len(dx) || n > len(dy) {
		panic("mat: bound check error")
	}
	for i := 0; i < n; i++ {
		dot += dx[i] * dy[i]
	}
	return dot
}

// dscal scales dx[:n] by da in place.
func dscal(n int, da float64, dx []float64) {
	if n <= 0 {
		return
	}
	if n > len(dx) {
		panic("mat: bound check error")
	}
	for i := 0; i < n; i++ {
		dx[i] *= da
	}
}

// dcopy copies dx[:n] into dy[:n].
func dcopy(n int, dx, dy []float64) {
	if n <= 0 {
		return
	}
	if n > len(dx) || n > len(dy) {
		panic("mat: bound check error")
	}
	copy(dy[:n], dx[:n])
}

// dnrm2 computes the Euclidean norm of x[:n], scaling to avoid overflow the
// same way the classic LINPACK routine does.
func dnrm2(n int, x []float64) float64 {
	if n < 1 {
		return zero
	}
	if n > len(x) {
		panic("mat: bound check error")
	}
	if n == 1 {
		return math.Abs(x[0])
	}
	scale := zero
	ssq := one
	for i := 0; i < n; i++ {
		if axi := math.Abs(x[i]); axi > 0 {
			if scale < axi {
				s := scale / axi
				ssq = 1 + ssq*s*s
				scale = axi
			} else {
				s := axi / scale
				ssq += s * s
			}
		}
	}
	return scale * math.Sqrt(ssq)
}

// Dot returns the dot product of two equal-length vectors.
func Dot(x, y []float64) float64 {
	if len(x) != len(y) {
		panic("mat: vector length mismatch")
	}
	return ddot(len(x), x, y)
}

// Norm returns the Euclidean norm of x.
func Norm(x []float64) float64 {
	return dnrm2(len(x), x)
}

// AddScaled computes dst[i] += alpha*src[i] in place and returns dst.
func AddScaled(dst []float64, alpha float64, src []float64) []float64 {
	if len(dst) != len(src) {
		panic("mat: vector length mismatch")
	}
	daxpy(len(src), alpha, src, dst)
	return dst
}

// Scale multiplies every element of x by alpha in place and returns x.
func Scale(x []float64, alpha float64) []float64 {
	dscal(len(x), alpha, x)
	return x
}

// Sub writes x-y into dst and returns it. dst may alias x or y.
func Sub(dst, x, y []float64) []float64 {
	if len(x) != len(y) || len(dst) != len(x) {
		panic("mat: vector length mismatch")
	}
	for i := range x {
		dst[i] = x[i] - y[i]
	}
	return dst
}
