package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/gatehouse"
)

func capsFor(userID, tenantID string, gen uint64) *gatehouse.Capabilities {
	return &gatehouse.Capabilities{
		UserID:     userID,
		TenantID:   tenantID,
		Generation: gen,
		Modules:    []gatehouse.ModuleCapability{{Code: "FINANCE", Actions: []gatehouse.Action{gatehouse.ActionView}}},
	}
}

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	// Miss
	if _, ok := c.Get(ctx, "t1", "u1"); ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	gen := c.Generation(ctx, "t1", "u1")
	c.Set(ctx, capsFor("u1", "t1", gen))
	got, ok := c.Get(ctx, "t1", "u1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Can("FINANCE", gatehouse.ActionView) {
		t.Fatal("expected cached capability")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Millisecond))

	c.Set(ctx, capsFor("u1", "t1", 0))
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(ctx, "t1", "u1"); ok {
		t.Fatal("expected expired entry to be gone")
	}
}

func TestMemoryCacheNeverServesStaleGeneration(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	tests := []struct {
		name       string
		invalidate func()
	}{
		{"user", func() { c.InvalidateUser(ctx, "u1") }},
		{"tenant", func() { c.InvalidateTenant(ctx, "t1") }},
		{"all", func() { c.InvalidateAll(ctx) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stale := c.Generation(ctx, "t1", "u1")
			c.Set(ctx, capsFor("u1", "t1", stale))

			tt.invalidate()

			if c.Generation(ctx, "t1", "u1") <= stale {
				t.Fatal("generation did not advance")
			}
			if _, ok := c.Get(ctx, "t1", "u1"); ok {
				t.Fatal("stale entry served after invalidation")
			}

			// Writing a projection computed before the bump is ignored.
			c.Set(ctx, capsFor("u1", "t1", stale))
			if _, ok := c.Get(ctx, "t1", "u1"); ok {
				t.Fatal("stale Set was accepted")
			}
		})
	}
}

func TestMemoryCacheTenantInvalidationIsScoped(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, capsFor("u1", "t1", c.Generation(ctx, "t1", "u1")))
	c.Set(ctx, capsFor("u2", "t2", c.Generation(ctx, "t2", "u2")))

	c.InvalidateTenant(ctx, "t1")

	if _, ok := c.Get(ctx, "t1", "u1"); ok {
		t.Fatal("t1 entry should be stale")
	}
	if _, ok := c.Get(ctx, "t2", "u2"); !ok {
		t.Fatal("t2 entry should survive t1 invalidation")
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	for _, u := range []string{"u1", "u2", "u3"} {
		c.Set(ctx, capsFor(u, "t1", c.Generation(ctx, "t1", u)))
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get(ctx, "t1", "u1"); ok {
		t.Fatal("least recently used entry should be evicted")
	}
}
