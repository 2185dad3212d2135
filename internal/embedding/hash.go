package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/layermem/layermem/internal/vectors"
)

// HashEmbedder generates deterministic embeddings from a text hash. It has
// no notion of semantics beyond "identical text, identical vector", which is
// enough for tests and offline runs.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hash embedder. dims <= 0 defaults to 384 to
// match all-MiniLM-L6-v2.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 384
	}
	return &HashEmbedder{dims: dims}
}

// Embed derives a unit vector from an FNV hash of the text, expanded with a
// linear congruential generator.
func (e *HashEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make(Vector, e.dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return vectors.Normalize(vec), nil
}

func (e *HashEmbedder) Dims() int { return e.dims }
