package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	return nil, errors.New("model not loaded")
}

func (failingEmbedder) Dims() int { return 4 }

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, _ := e.Embed(ctx, "hello world")
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text must produce identical vectors")
		}
	}

	c, _ := e.Embed(ctx, "something else")
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts should produce different vectors")
	}
}

func TestHashEmbedderUnitNorm(t *testing.T) {
	e := NewHashEmbedder(0)
	if e.Dims() != 384 {
		t.Errorf("expected default 384 dims, got %d", e.Dims())
	}
	v, err := e.Embed(context.Background(), "norm check")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("expected unit norm, got %v", norm)
	}
}

func TestProviderLifecycle(t *testing.T) {
	p := NewProvider(NewHashEmbedder(8), nil)
	if p.Status() != StatusIdle {
		t.Fatalf("expected idle, got %s", p.Status())
	}

	var seen []Status
	unsub := p.Subscribe(func(s Status) { seen = append(seen, s) })
	defer unsub()

	if err := p.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !p.Ready() {
		t.Fatal("expected ready after ensure")
	}

	want := []Status{StatusIdle, StatusLoading, StatusReady}
	if len(seen) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected transitions %v, got %v", want, seen)
		}
	}

	// Repeated Ensure is a no-op.
	if err := p.Ensure(context.Background()); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if len(seen) != len(want) {
		t.Errorf("no-op ensure should not notify, got %v", seen)
	}
}

func TestProviderEmbedNormalized(t *testing.T) {
	p := NewProvider(NewHashEmbedder(16), nil)
	v, err := p.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("expected unit norm from provider, got %v", norm)
	}
}

func TestProviderErrorAndReset(t *testing.T) {
	p := NewProvider(failingEmbedder{}, nil)

	if err := p.Ensure(context.Background()); err == nil {
		t.Fatal("expected probe failure")
	}
	if p.Status() != StatusError {
		t.Fatalf("expected error state, got %s", p.Status())
	}
	if p.Err() == nil {
		t.Error("expected stored error")
	}

	// Further calls fail fast until Reset.
	if _, err := p.Embed(context.Background(), "x"); err == nil {
		t.Error("expected embed to fail in error state")
	}

	p.Reset()
	if p.Status() != StatusIdle {
		t.Fatalf("expected idle after reset, got %s", p.Status())
	}
	if p.Err() != nil {
		t.Error("reset should clear the stored error")
	}
}

func TestProviderNilEmbedder(t *testing.T) {
	p := NewProvider(nil, nil)
	if err := p.Ensure(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if _, err := p.Embed(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if p.Dims() != 0 {
		t.Errorf("expected 0 dims, got %d", p.Dims())
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	p := NewProvider(NewHashEmbedder(8), nil)
	calls := 0
	unsub := p.Subscribe(func(Status) { calls++ })
	if calls != 1 {
		t.Fatalf("expected immediate delivery, calls=%d", calls)
	}
	unsub()
	if err := p.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if calls != 1 {
		t.Errorf("unsubscribed callback must not fire, calls=%d", calls)
	}
}
