package mat

import "math"

// Matrix is a dense row-major matrix: element (i,j) lives at
// data[i*cols+j]. The zero value is not usable; construct with New or
// NewIdentity.
type Matrix struct {
	data       []float64
	rows, cols int
}

// New allocates an r x c matrix. If data is non-nil it is used directly
// (no copy) and must have length r*c.
func New(r, c int, data []float64) *Matrix {
	if data == nil {
		data = make([]float64, r*c)
	}
	if len(data) != r*c {
		panic("mat: data length does not match dimensions")
	}
	return &Matrix{data: data, rows: r, cols: c}
}

// NewIdentity returns the n x n identity matrix.
func NewIdentity(n int) *Matrix {
	m := New(n, n, nil)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = one
	}
	return m
}

func (m *Matrix) Dims() (rows, cols int) { return m.rows, m.cols }

func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

func (m *Matrix) Set(i, j int, v float64) {
	m.data[i*m.cols+j] = v
}

// Row returns the backing slice for row i (no copy; mutating it mutates m).
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// Raw returns the flat row-major backing slice.
func (m *Matrix) Raw() []float64 { return m.data }

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	out := New(m.rows, m.cols, nil)
	dcopy(len(m.data), m.data, out.data)
	return out
}

// CopyInto copies m's contents into dst, which must have the same shape.
func (m *Matrix) CopyInto(dst *Matrix) {
	if dst.rows != m.rows || dst.cols != m.cols {
		panic("mat: shape mismatch")
	}
	dcopy(len(m.data), m.data, dst.data)
}

// Zero resets every element of m to zero.
func (m *Matrix) Zero() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// T returns the transpose of m as a new matrix.
func (m *Matrix) T() *Matrix {
	out := New(m.cols, m.rows, nil)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.Set(j, i, m.At(i, j))
		}
	}
	return out
}

// AddScaled computes m += alpha*other element-wise, in place.
func (m *Matrix) AddScaled(alpha float64, other *Matrix) *Matrix {
	if m.rows != other.rows || m.cols != other.cols {
		panic("mat: shape mismatch")
	}
	daxpy(len(m.data), alpha, other.data, m.data)
	return m
}

// AddDiag adds mu to every diagonal entry of a square matrix, in place.
func (m *Matrix) AddDiag(mu float64) *Matrix {
	if m.rows != m.cols {
		panic("mat: AddDiag requires a square matrix")
	}
	for i := 0; i < m.rows; i++ {
		m.data[i*m.cols+i] += mu
	}
	return m
}

// Symmetrize replaces m with (m+mᵀ)/2 in place, defending against drift
// accumulated over many value-function backups.
func (m *Matrix) Symmetrize() *Matrix {
	if m.rows != m.cols {
		panic("mat: Symmetrize requires a square matrix")
	}
	n := m.rows
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			avg := 0.5 * (m.At(i, j) + m.At(j, i))
			m.Set(i, j, avg)
			m.Set(j, i, avg)
		}
	}
	return m
}

// MulVec computes y = alpha*op(A)*x + beta*y where op(A) = A if !trans,
// Aᵀ otherwise. y must be pre-sized to the output dimension.
func MulVec(alpha float64, a *Matrix, trans bool, x []float64, beta float64, y []float64) {
	rows, cols := a.rows, a.cols
	outN, innerN := rows, cols
	if trans {
		outN, innerN = cols, rows
	}
	if len(x) != innerN || len(y) != outN {
		panic("mat: dimension mismatch in MulVec")
	}
	for i := 0; i < outN; i++ {
		sum := zero
		for k := 0; k < innerN; k++ {
			if trans {
				sum += a.At(k, i) * x[k]
			} else {
				sum += a.At(i, k) * x[k]
			}
		}
		y[i] = alpha*sum + beta*y[i]
	}
}

// Mul multiplies a (op applied) by b (op applied) and returns a new
// (outRows x outCols) matrix: C = alpha*op(A)*op(B).
func Mul(alpha float64, a *Matrix, transA bool, b *Matrix, transB bool) *Matrix {
	ar, ac := a.rows, a.cols
	if transA {
		ar, ac = ac, ar
	}
	br, bc := b.rows, b.cols
	if transB {
		br, bc = bc, br
	}
	if ac != br {
		panic("mat: dimension mismatch in Mul")
	}
	c := New(ar, bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < bc; j++ {
			sum := zero
			for k := 0; k < ac; k++ {
				var av, bv float64
				if transA {
					av = a.At(k, i)
				} else {
					av = a.At(i, k)
				}
				if transB {
					bv = b.At(j, k)
				} else {
					bv = b.At(k, j)
				}
				sum += av * bv
			}
			c.Set(i, j, alpha*sum)
		}
	}
	return c
}

// Quadratic returns xᵀ A x for a square matrix A.
func Quadratic(a *Matrix, x []float64) float64 {
	if a.rows != a.cols || len(x) != a.rows {
		panic("mat: dimension mismatch in Quadratic")
	}
	n := a.rows
	ax := make([]float64, n)
	MulVec(one, a, false, x, zero, ax)
	return Dot(x, ax)
}

// IsFinite reports whether every element of m is finite.
func (m *Matrix) IsFinite() bool {
	for _, v := range m.data {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
