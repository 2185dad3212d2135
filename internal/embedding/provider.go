package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/layermem/layermem/internal/vectors"
)

// ErrUnavailable is returned when no embedder is configured or the provider
// is not in the ready state.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Status is the lifecycle state of the embedding provider.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Provider wraps an Embedder with a forward-only status machine
// (idle -> loading -> ready | error) and subscriber notifications.
// Vectors returned by Embed are L2-normalized.
type Provider struct {
	mu      sync.Mutex
	emb     Embedder
	status  Status
	lastErr error
	subs    map[int]func(Status)
	nextSub int
	log     *zap.Logger
}

// NewProvider wraps e. A nil embedder yields a provider that stays idle and
// fails every Embed with ErrUnavailable. A nil logger is replaced with a nop.
func NewProvider(e Embedder, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		emb:  e,
		subs: make(map[int]func(Status)),
		log:  log,
	}
}

// Status returns the current lifecycle state.
func (p *Provider) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Ready reports whether embeddings can be produced right now.
func (p *Provider) Ready() bool { return p.Status() == StatusReady }

// Err returns the error that moved the provider into the error state.
func (p *Provider) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Dims returns the embedding dimension, or 0 when no embedder is configured.
func (p *Provider) Dims() int {
	if p.emb == nil {
		return 0
	}
	return p.emb.Dims()
}

// Subscribe registers a status callback. The current status is delivered
// immediately; the returned func unsubscribes.
func (p *Provider) Subscribe(cb func(Status)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = cb
	current := p.status
	p.mu.Unlock()

	cb(current)
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *Provider) setStatus(s Status, err error) {
	p.mu.Lock()
	p.status = s
	p.lastErr = err
	cbs := make([]func(Status), 0, len(p.subs))
	for _, cb := range p.subs {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()

	for _, cb := range cbs {
		cb(s)
	}
}

// Ensure moves an idle provider to ready by running a probe embedding.
// It is a no-op when already ready and an error when the provider is in the
// error state (call Reset first to retry).
func (p *Provider) Ensure(ctx context.Context) error {
	p.mu.Lock()
	switch p.status {
	case StatusReady:
		p.mu.Unlock()
		return nil
	case StatusLoading:
		p.mu.Unlock()
		return nil
	case StatusError:
		err := p.lastErr
		p.mu.Unlock()
		return fmt.Errorf("embedding provider failed: %w", err)
	}
	if p.emb == nil {
		p.mu.Unlock()
		return ErrUnavailable
	}
	p.status = StatusLoading
	p.mu.Unlock()
	p.setStatus(StatusLoading, nil)

	if _, err := p.emb.Embed(ctx, "warmup"); err != nil {
		p.log.Warn("embedding probe failed", zap.Error(err))
		p.setStatus(StatusError, err)
		return fmt.Errorf("embedding probe: %w", err)
	}
	p.setStatus(StatusReady, nil)
	return nil
}

// Reset moves an errored provider back to idle so Ensure can retry.
func (p *Provider) Reset() {
	p.mu.Lock()
	if p.status != StatusError {
		p.mu.Unlock()
		return
	}
	p.status = StatusIdle
	p.lastErr = nil
	p.mu.Unlock()
	p.setStatus(StatusIdle, nil)
}

// Embed produces an L2-normalized vector for text, ensuring readiness first.
func (p *Provider) Embed(ctx context.Context, text string) (Vector, error) {
	if err := p.Ensure(ctx); err != nil {
		return nil, err
	}
	if !p.Ready() {
		return nil, ErrUnavailable
	}
	v, err := p.emb.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return vectors.Normalize(v), nil
}
