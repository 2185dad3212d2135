// Package classifier implements the online 3-way softmax model that routes
// utterances when no hard rule fires.
package classifier

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/layermem/layermem/internal/model"
)

const (
	// LearningRate is the SGD step size for online updates.
	LearningRate = 0.05
	// initScale bounds the random weight initialization to [-0.05, 0.05].
	initScale = 0.05
)

// Classifier holds one weight vector per layer, no bias term.
type Classifier struct {
	dims    int
	weights map[model.Layer][]float64
}

// New creates a classifier with small random weights drawn from rng.
func New(dims int, rng *rand.Rand) *Classifier {
	c := &Classifier{dims: dims, weights: make(map[model.Layer][]float64, len(model.Layers))}
	for _, l := range model.Layers {
		w := make([]float64, dims)
		for i := range w {
			w[i] = (rng.Float64()*2 - 1) * initScale
		}
		c.weights[l] = w
	}
	return c
}

// FromWeights restores a classifier from persisted weights. All three layer
// vectors must be present and of equal length.
func FromWeights(weights map[model.Layer][]float64) (*Classifier, error) {
	dims := -1
	c := &Classifier{weights: make(map[model.Layer][]float64, len(model.Layers))}
	for _, l := range model.Layers {
		w, ok := weights[l]
		if !ok {
			return nil, fmt.Errorf("missing weights for layer %s", l)
		}
		if dims == -1 {
			dims = len(w)
		} else if len(w) != dims {
			return nil, fmt.Errorf("weight length mismatch for layer %s: %d != %d", l, len(w), dims)
		}
		cp := make([]float64, len(w))
		copy(cp, w)
		c.weights[l] = cp
	}
	if dims <= 0 {
		return nil, fmt.Errorf("empty weight vectors")
	}
	c.dims = dims
	return c, nil
}

// Dims returns the expected input dimension.
func (c *Classifier) Dims() int { return c.dims }

// Weights returns a deep copy of the current weights.
func (c *Classifier) Weights() map[model.Layer][]float64 {
	out := make(map[model.Layer][]float64, len(c.weights))
	for l, w := range c.weights {
		cp := make([]float64, len(w))
		copy(cp, w)
		out[l] = cp
	}
	return out
}

// Predict returns the softmax probability per layer for input x.
func (c *Classifier) Predict(x []float32) map[model.Layer]float64 {
	scores := make([]float64, len(model.Layers))
	maxScore := math.Inf(-1)
	for i, l := range model.Layers {
		scores[i] = dot(c.weights[l], x)
		if scores[i] > maxScore {
			maxScore = scores[i]
		}
	}

	// Subtract the max before exponentiating for numeric stability.
	var sum float64
	exps := make([]float64, len(scores))
	for i, s := range scores {
		exps[i] = math.Exp(s - maxScore)
		sum += exps[i]
	}

	probs := make(map[model.Layer]float64, len(model.Layers))
	for i, l := range model.Layers {
		probs[l] = exps[i] / sum
	}
	return probs
}

// Learn applies one one-vs-rest cross-entropy gradient step toward correct.
func (c *Classifier) Learn(x []float32, correct model.Layer) {
	probs := c.Predict(x)
	for _, l := range model.Layers {
		target := 0.0
		if l == correct {
			target = 1.0
		}
		grad := LearningRate * (target - probs[l])
		w := c.weights[l]
		for i := range w {
			if i >= len(x) {
				break
			}
			w[i] += grad * float64(x[i])
		}
	}
}

func dot(w []float64, x []float32) float64 {
	n := len(w)
	if len(x) < n {
		n = len(x)
	}
	var s float64
	for i := 0; i < n; i++ {
		s += w[i] * float64(x[i])
	}
	return s
}
