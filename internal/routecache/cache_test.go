package routecache

import (
	"fmt"
	"testing"
	"time"

	"github.com/layermem/layermem/internal/model"
)

func result(layer model.Layer) model.RoutingResult {
	return model.RoutingResult{
		Decision:   model.Decision(layer),
		Confidence: 0.9,
		Source:     model.SourceML,
	}
}

func TestKey(t *testing.T) {
	if k := Key("hello", nil); k != "hello" {
		t.Errorf("bare text key: %q", k)
	}
	if k := Key("hello", []string{"a", "b"}); k != "hello|a|b" {
		t.Errorf("short context key: %q", k)
	}
	// Only the last three context lines count.
	if k := Key("hello", []string{"a", "b", "c", "d", "e"}); k != "hello|c|d|e" {
		t.Errorf("long context key: %q", k)
	}
}

func TestGetSet(t *testing.T) {
	c := New(10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss on empty cache")
	}

	c.Set("k", result(model.LayerIdentity))
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Decision != model.DecideIdentity || got.Confidence != 0.9 {
		t.Errorf("unexpected cached result: %+v", got)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(10, 30*time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	c.Set("k", result(model.LayerExperience))

	now = now.Add(29 * time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Error("expected hit before TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be evicted, len=%d", c.Len())
	}
}

func TestCapacityEviction(t *testing.T) {
	c := New(3, time.Minute)
	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("k%d", i), result(model.LayerKnowledge))
	}
	if c.Len() != 3 {
		t.Fatalf("expected capacity bound 3, len=%d", c.Len())
	}
	if _, ok := c.Get("k0"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("k3"); !ok {
		t.Error("newest entry should survive")
	}
}

func TestGetPromotesRecency(t *testing.T) {
	c := New(3, time.Minute)
	c.Set("a", result(model.LayerIdentity))
	c.Set("b", result(model.LayerIdentity))
	c.Set("c", result(model.LayerIdentity))

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit on a")
	}
	c.Set("d", result(model.LayerIdentity))

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently read entry should survive")
	}
}

func TestSetRefreshesTimestamp(t *testing.T) {
	c := New(10, 30*time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	c.Set("k", result(model.LayerIdentity))
	now = now.Add(20 * time.Minute)
	c.Set("k", result(model.LayerIdentity))

	now = now.Add(20 * time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Error("rewrite should reset the TTL window")
	}
}

func TestClear(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("a", result(model.LayerIdentity))
	c.Set("b", result(model.LayerExperience))
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, len=%d", c.Len())
	}
}

func TestDefaults(t *testing.T) {
	c := New(0, 0)
	if c.ttl != DefaultTTL {
		t.Errorf("expected default TTL, got %v", c.ttl)
	}
	c.Set("k", result(model.LayerIdentity))
	if _, ok := c.Get("k"); !ok {
		t.Error("default-sized cache should store entries")
	}
}
