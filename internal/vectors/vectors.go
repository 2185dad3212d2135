// Package vectors provides the similarity primitives shared by the
// classifier and the semantic stores.
package vectors

import "math"

// Vector is a float32 embedding vector.
type Vector = []float32

// Cosine computes cosine similarity between two vectors. Mismatched or
// zero-norm inputs yield 0.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Mean averages vectors element-wise. Vectors of mismatched length are
// skipped; nil is returned when nothing contributes.
func Mean(vecs ...Vector) Vector {
	var out Vector
	n := 0
	for _, v := range vecs {
		if len(v) == 0 {
			continue
		}
		if out == nil {
			out = make(Vector, len(v))
		}
		if len(v) != len(out) {
			continue
		}
		for i, x := range v {
			out[i] += x
		}
		n++
	}
	if n == 0 {
		return nil
	}
	inv := float32(1) / float32(n)
	for i := range out {
		out[i] *= inv
	}
	return out
}

// Normalize scales v to unit L2 norm in place and returns it. A zero vector
// is returned unchanged.
func Normalize(v Vector) Vector {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}
	return v
}
