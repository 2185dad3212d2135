// Package router composes the hard rules, the routing cache and the online
// classifier into a single routing decision, and owns all learning.
package router

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/layermem/layermem/internal/classifier"
	"github.com/layermem/layermem/internal/embedding"
	"github.com/layermem/layermem/internal/model"
	"github.com/layermem/layermem/internal/routecache"
	"github.com/layermem/layermem/internal/rules"
	"github.com/layermem/layermem/internal/store"
	"github.com/layermem/layermem/internal/vectors"
)

// ErrClassifierUninitialized is returned when learning is requested before
// the classifier could be prepared.
var ErrClassifierUninitialized = errors.New("classifier uninitialized")

// WeightStore is the slice of persistence the router needs.
type WeightStore interface {
	SaveWeights(ctx context.Context, weights map[model.Layer][]float64) error
	LoadWeights(ctx context.Context) (map[model.Layer][]float64, error)
	AppendCorrection(ctx context.Context, c model.Correction) error
	ListCorrections(ctx context.Context) ([]model.Correction, error)
}

// Options tune a Router. Zero values take the defaults.
type Options struct {
	Seed          int64 // RNG seed for weight init; 0 seeds from the clock
	CacheCapacity int
	CacheTTL      time.Duration
	Logger        *zap.Logger
}

// Router routes utterances to memory layers. Weights and cache share one
// mutex; Route takes a consistent snapshot under it.
type Router struct {
	mu    sync.Mutex
	rules *rules.Engine
	cache *routecache.Cache
	clf   *classifier.Classifier
	emb   *embedding.Provider
	store WeightStore
	rng   *rand.Rand
	log   *zap.Logger
}

// New creates a router. The classifier is initialized lazily on the first
// routing or learning call that needs it.
func New(ws WeightStore, emb *embedding.Provider, opts Options) *Router {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		rules: rules.New(),
		cache: routecache.New(opts.CacheCapacity, opts.CacheTTL),
		emb:   emb,
		store: ws,
		rng:   rand.New(rand.NewSource(seed)),
		log:   log,
	}
}

// Cache exposes the routing cache. Test hook.
func (r *Router) Cache() *routecache.Cache { return r.cache }

// Ensure prepares the classifier eagerly: persisted weights are loaded, or a
// fresh model is seed-trained and persisted.
func (r *Router) Ensure(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureClassifierLocked(ctx)
}

// Route decides the target layer for text given recent context lines.
func (r *Router) Route(ctx context.Context, text string, recent []string) (model.RoutingResult, error) {
	// Rule hits are cheap and certain; they bypass the cache entirely.
	if res, ok := r.rules.Apply(text); ok {
		return res, nil
	}

	key := routecache.Key(text, recent)

	r.mu.Lock()
	if res, ok := r.cache.Get(key); ok {
		r.mu.Unlock()
		res.Source = model.SourceCache
		return res, nil
	}

	if err := r.ensureClassifierLocked(ctx); err != nil {
		r.mu.Unlock()
		r.log.Debug("classifier unavailable, falling back", zap.Error(err))
		return model.RoutingResult{
			Decision:   model.DecideExperience,
			Confidence: 0.5,
			Source:     model.SourceFallback,
		}, nil
	}
	clf := r.clf
	r.mu.Unlock()

	x, err := r.embedBlended(ctx, text, recent)
	if err != nil {
		r.log.Debug("embedding unavailable, falling back", zap.Error(err))
		return model.RoutingResult{
			Decision:   model.DecideExperience,
			Confidence: 0.5,
			Source:     model.SourceFallback,
		}, nil
	}

	probs := clf.Predict(x)
	top, second := rankProbs(probs)

	res := model.RoutingResult{
		Confidence:    probs[top],
		Source:        model.SourceML,
		Probabilities: probs,
	}
	switch {
	case probs[top] < model.ConfidenceThreshold:
		res.Decision = model.DecideAsk
	case probs[top]-probs[second] < model.ConflictMargin:
		res.Decision = model.DecideConflict
	default:
		res.Decision = model.Decision(top)
	}

	r.mu.Lock()
	r.cache.Set(key, res)
	r.mu.Unlock()
	return res, nil
}

// Learn applies one gradient step toward correct, logs the correction, and
// persists the new weights. The cache is cleared before Learn returns.
func (r *Router) Learn(ctx context.Context, text string, contextLines []string, correct model.Layer) error {
	x, err := r.embedBlended(ctx, text, contextLines)
	if err != nil {
		return fmt.Errorf("embed for learning: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureClassifierLocked(ctx); err != nil {
		return err
	}
	r.clf.Learn(x, correct)
	r.cache.Clear()

	if err := r.store.AppendCorrection(ctx, model.Correction{
		Text: text, Context: contextLines, Layer: correct,
	}); err != nil {
		return fmt.Errorf("append correction: %w", err)
	}
	if err := r.store.SaveWeights(ctx, r.clf.Weights()); err != nil {
		return fmt.Errorf("persist weights: %w", err)
	}
	r.log.Info("router learned correction",
		zap.String("layer", string(correct)))
	return nil
}

// Retrain resets the weights, replays the seed corpus, then replays the
// persisted correction log in order.
func (r *Router) Retrain(ctx context.Context) error {
	corrections, err := r.store.ListCorrections(ctx)
	if err != nil {
		return fmt.Errorf("load corrections: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clf, err := r.seedTrainedLocked(ctx)
	if err != nil {
		return err
	}
	for _, c := range corrections {
		if err := ctx.Err(); err != nil {
			return err
		}
		x, err := r.embedBlended(ctx, c.Text, c.Context)
		if err != nil {
			return fmt.Errorf("embed correction: %w", err)
		}
		clf.Learn(x, c.Layer)
	}

	r.clf = clf
	r.cache.Clear()
	if err := r.store.SaveWeights(ctx, clf.Weights()); err != nil {
		return fmt.Errorf("persist weights: %w", err)
	}
	r.log.Info("router retrained",
		zap.Int("corrections", len(corrections)))
	return nil
}

// ensureClassifierLocked loads persisted weights or seed-trains a fresh
// model. Caller holds r.mu.
func (r *Router) ensureClassifierLocked(ctx context.Context) error {
	if r.clf != nil {
		return nil
	}

	weights, err := r.store.LoadWeights(ctx)
	switch {
	case err == nil:
		clf, ferr := classifier.FromWeights(weights)
		if ferr != nil {
			r.log.Warn("persisted weights unusable, reseeding", zap.Error(ferr))
		} else {
			r.clf = clf
			return nil
		}
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("load weights: %w", err)
	}

	clf, err := r.seedTrainedLocked(ctx)
	if err != nil {
		return err
	}
	r.clf = clf
	if err := r.store.SaveWeights(ctx, clf.Weights()); err != nil {
		return fmt.Errorf("persist seed weights: %w", err)
	}
	return nil
}

// seedTrainedLocked builds a fresh classifier and runs one pass over the
// seed corpus in declaration order. Caller holds r.mu.
func (r *Router) seedTrainedLocked(ctx context.Context) (*classifier.Classifier, error) {
	dims := r.emb.Dims()
	if dims == 0 {
		return nil, ErrClassifierUninitialized
	}
	clf := classifier.New(dims, r.rng)
	for _, ex := range classifier.SeedCorpus {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		x, err := r.emb.Embed(ctx, ex.Text)
		if err != nil {
			return nil, fmt.Errorf("%w: seed embedding: %v", ErrClassifierUninitialized, err)
		}
		clf.Learn(x, ex.Layer)
	}
	return clf, nil
}

// embedBlended embeds text, averaged with an embedding of the last five
// context lines when any are present.
func (r *Router) embedBlended(ctx context.Context, text string, recent []string) ([]float32, error) {
	x, err := r.emb.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return x, nil
	}
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	c, err := r.emb.Embed(ctx, strings.Join(recent, "\n"))
	if err != nil {
		return nil, err
	}
	return vectors.Mean(x, c), nil
}

// rankProbs returns the layers with the highest and second-highest
// probability, breaking ties by the fixed layer order.
func rankProbs(probs map[model.Layer]float64) (top, second model.Layer) {
	top, second = model.Layers[0], model.Layers[1]
	if probs[second] > probs[top] {
		top, second = second, top
	}
	for _, l := range model.Layers[2:] {
		switch {
		case probs[l] > probs[top]:
			second = top
			top = l
		case probs[l] > probs[second]:
			second = l
		}
	}
	return top, second
}
