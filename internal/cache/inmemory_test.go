package cache

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/cashier/internal/config"
	"github.com/stretchr/testify/assert"
)

func newTestCache(enabled bool) Cache {
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = enabled
	return NewInMemoryCache(cfg)
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)

	key := GenerateKey(PrefixRecurringSubscription, "100200")
	assert.Equal(t, "arb:v1::100200", key)

	c.Set(ctx, key, "snapshot", 0)
	v, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, "snapshot", v)

	c.Set(ctx, GenerateKey(PrefixTransaction, "1"), "tx", time.Minute)
	c.DeleteByPrefix(ctx, PrefixRecurringSubscription)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
	_, ok = c.Get(ctx, GenerateKey(PrefixTransaction, "1"))
	assert.True(t, ok)

	c.Flush(ctx)
	_, ok = c.Get(ctx, GenerateKey(PrefixTransaction, "1"))
	assert.False(t, ok)
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(false)

	c.Set(ctx, "k", "v", time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
