package vectors

import (
	"math"
	"testing"
)

func TestCosineSelf(t *testing.T) {
	a := Vector{0.3, -0.5, 0.8, 0.1}
	if sim := Cosine(a, a); math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("expected cosine(a,a)=1, got %v", sim)
	}
}

func TestCosineRange(t *testing.T) {
	pairs := [][2]Vector{
		{{1, 0}, {0, 1}},
		{{1, 0}, {-1, 0}},
		{{0.5, 0.5}, {0.9, -0.1}},
		{{-0.2, 0.7, 0.1}, {0.3, 0.3, -0.9}},
	}
	for _, p := range pairs {
		sim := Cosine(p[0], p[1])
		if sim < -1.0-1e-9 || sim > 1.0+1e-9 {
			t.Errorf("cosine out of [-1,1]: %v", sim)
		}
	}
	if sim := Cosine(Vector{1, 0}, Vector{-1, 0}); math.Abs(sim+1.0) > 1e-9 {
		t.Errorf("expected -1 for opposite vectors, got %v", sim)
	}
}

func TestCosineDegenerate(t *testing.T) {
	if sim := Cosine(Vector{1, 2}, Vector{1, 2, 3}); sim != 0 {
		t.Errorf("expected 0 for mismatched lengths, got %v", sim)
	}
	if sim := Cosine(Vector{0, 0}, Vector{1, 1}); sim != 0 {
		t.Errorf("expected 0 for zero vector, got %v", sim)
	}
	if sim := Cosine(nil, nil); sim != 0 {
		t.Errorf("expected 0 for empty vectors, got %v", sim)
	}
}

func TestMean(t *testing.T) {
	m := Mean(Vector{1, 2}, Vector{3, 4})
	if m[0] != 2 || m[1] != 3 {
		t.Errorf("expected [2 3], got %v", m)
	}

	// Empty inputs are skipped.
	m = Mean(nil, Vector{2, 4})
	if m[0] != 2 || m[1] != 4 {
		t.Errorf("expected [2 4], got %v", m)
	}

	if m := Mean(nil, nil); m != nil {
		t.Errorf("expected nil for no contributions, got %v", m)
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize(Vector{3, 4})
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1.0) > 1e-6 {
		t.Errorf("expected unit norm, got %v", norm)
	}

	z := Normalize(Vector{0, 0})
	if z[0] != 0 || z[1] != 0 {
		t.Errorf("zero vector should pass through, got %v", z)
	}
}
