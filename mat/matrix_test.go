package mat

import (
	"math"
	"testing"
)

func TestMulVec(t *testing.T) {
	a := New(2, 3, []float64{1, 2, 3, 4, 5, 6})
	x := []float64{1, 1, 1}
	y := make([]float64, 2)
	MulVec(1, a, false, x, 0, y)
	want := []float64{6, 15}
	if !ApproxEqual(y, want, 1e-12) {
		t.Fatalf("MulVec got %v want %v", y, want)
	}

	xT := []float64{1, 1}
	yT := make([]float64, 3)
	MulVec(1, a, true, xT, 0, yT)
	wantT := []float64{5, 7, 9}
	if !ApproxEqual(yT, wantT, 1e-12) {
		t.Fatalf("MulVec (trans) got %v want %v", yT, wantT)
	}
}

func TestMul(t *testing.T) {
	a := New(2, 3, []float64{1, 2, 3, 4, 5, 6})
	b := New(3, 2, []float64{7, 8, 9, 10, 11, 12})
	c := Mul(1, a, false, b, false)
	want := New(2, 2, []float64{58, 64, 139, 154})
	if !MatrixApproxEqual(c, want, 1e-9) {
		t.Fatalf("Mul got %v want %v", c.Raw(), want.Raw())
	}
}

func TestSymmetrize(t *testing.T) {
	a := New(2, 2, []float64{1, 2, 4, 3})
	a.Symmetrize()
	want := New(2, 2, []float64{1, 3, 3, 3})
	if !MatrixApproxEqual(a, want, 1e-12) {
		t.Fatalf("Symmetrize got %v want %v", a.Raw(), want.Raw())
	}
}

func TestQuadratic(t *testing.T) {
	a := NewIdentity(3)
	x := []float64{1, 2, 3}
	got := Quadratic(a, x)
	want := 1.0 + 4.0 + 9.0
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("Quadratic got %v want %v", got, want)
	}
}

func TestIsFinite(t *testing.T) {
	a := New(1, 1, []float64{math.NaN()})
	if a.IsFinite() {
		t.Fatal("expected NaN matrix to be reported non-finite")
	}
	b := New(1, 1, []float64{1e300})
	if !b.IsFinite() {
		t.Fatal("expected large-but-finite matrix to be reported finite")
	}
}
