package mat

import "testing"

func TestSolveSPD(t *testing.T) {
	// A = [[4,1],[1,3]] is SPD; solve A x = [1,2].
	a := New(2, 2, []float64{4, 1, 1, 3})
	b := []float64{1, 2}
	if !Solve(a, b) {
		t.Fatal("expected SPD solve to succeed")
	}
	// Reference solution via Cramer's rule: det=11, x=[1/11,7/11].
	want := []float64{1.0 / 11, 7.0 / 11}
	if !ApproxEqual(b, want, 1e-9) {
		t.Fatalf("SolveSPD got %v want %v", b, want)
	}
}

func TestSolveGeneralFallback(t *testing.T) {
	// Non-symmetric but nonsingular; Cholesky must fail and the general
	// path must still produce the correct solution.
	a := New(2, 2, []float64{0, 1, 1, 0})
	b := []float64{3, 5}
	if !Solve(a, b) {
		t.Fatal("expected general solve to succeed")
	}
	want := []float64{5, 3}
	if !ApproxEqual(b, want, 1e-9) {
		t.Fatalf("SolveGeneral got %v want %v", b, want)
	}
}

func TestSolveSingular(t *testing.T) {
	a := New(2, 2, []float64{1, 2, 2, 4})
	b := []float64{1, 2}
	if Solve(a, b) {
		t.Fatal("expected singular matrix to be rejected")
	}
}

func TestInvert(t *testing.T) {
	a := New(2, 2, []float64{4, 1, 1, 3})
	inv := Invert(a)
	if inv == nil {
		t.Fatal("expected invertible matrix")
	}
	prod := Mul(1, a, false, inv, false)
	id := NewIdentity(2)
	if !MatrixApproxEqual(prod, id, 1e-9) {
		t.Fatalf("A*A^-1 got %v want identity", prod.Raw())
	}
}

func TestIsPSD(t *testing.T) {
	psd := New(2, 2, []float64{2, 0, 0, 2})
	if !IsPSD(psd, 1e-9) {
		t.Fatal("expected diagonal positive matrix to be PSD")
	}
	notPSD := New(2, 2, []float64{1, 2, 2, 1})
	if IsPSD(notPSD, 0) {
		t.Fatal("expected indefinite matrix to fail PSD check")
	}
}
