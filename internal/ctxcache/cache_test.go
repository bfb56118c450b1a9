package ctxcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/compress"
)

func longText(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestKey(t *testing.T) {
	k := Key("text", 100, compress.StrategyBalanced)
	assert.Len(t, k, 64)
	assert.Equal(t, k, Key("text", 100, compress.StrategyBalanced))
	assert.NotEqual(t, k, Key("text", 101, compress.StrategyBalanced))
	assert.NotEqual(t, k, Key("text", 100, compress.StrategyExtended))
	assert.NotEqual(t, k, Key("text!", 100, compress.StrategyBalanced))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour)

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	res := compress.Result{Compressed: "short", OriginalLength: 9, CompressedLength: 1}
	require.NoError(t, c.Put(ctx, "k", res))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, res, got)
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(50 * time.Millisecond)
	require.NoError(t, c.Put(ctx, "old", compress.Result{}))

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, c.Put(ctx, "new", compress.Result{}))

	_, ok, _ := c.Get(ctx, "old")
	assert.False(t, ok, "expired entries are not served")

	c.Cleanup()
	assert.Equal(t, 1, c.Len())
	_, ok, _ = c.Get(ctx, "new")
	assert.True(t, ok)
}

// countingCache records calls and can be told to fail.
type countingCache struct {
	*MemoryCache
	gets, puts int
	fail       bool
}

func (c *countingCache) Get(ctx context.Context, key string) (compress.Result, bool, error) {
	c.gets++
	if c.fail {
		return compress.Result{}, false, errors.New("unavailable")
	}
	return c.MemoryCache.Get(ctx, key)
}

func (c *countingCache) Put(ctx context.Context, key string, res compress.Result) error {
	c.puts++
	if c.fail {
		return errors.New("unavailable")
	}
	return c.MemoryCache.Put(ctx, key, res)
}

func TestSelect_ReadThrough(t *testing.T) {
	ctx := context.Background()
	cache := &countingCache{MemoryCache: NewMemoryCache(time.Hour)}
	text := longText(300)

	first, hit, err := Select(ctx, cache, text, 100, nil, compress.StrategyExtended)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.True(t, first.Rewritten())
	assert.Equal(t, 1, cache.puts)

	second, hit, err := Select(ctx, cache, text, 100, nil, compress.StrategyExtended)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.puts)
}

func TestSelect_UnchangedNotStored(t *testing.T) {
	cache := &countingCache{MemoryCache: NewMemoryCache(time.Hour)}
	res, hit, err := Select(context.Background(), cache, "fits easily", 100, nil, compress.StrategyBalanced)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fits easily", res.Compressed)
	assert.Equal(t, 0, cache.puts)
}

func TestSelect_CacheFailureFallsThrough(t *testing.T) {
	cache := &countingCache{MemoryCache: NewMemoryCache(time.Hour), fail: true}
	text := longText(300)

	res, hit, err := Select(context.Background(), cache, text, 100, nil, compress.StrategyExtended)
	assert.False(t, hit)
	assert.Equal(t, compress.SelectSmartContext(text, 100, nil, compress.StrategyExtended), res)
	require.Error(t, err, "a broken cache is reported")
	assert.ErrorContains(t, err, "cache get: unavailable")
	assert.ErrorContains(t, err, "cache put: unavailable")
	assert.Equal(t, 1, cache.puts)
}

func TestSelect_NilCache(t *testing.T) {
	text := longText(300)
	res, hit, err := Select(context.Background(), nil, text, 100, nil, compress.StrategyBalanced)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, compress.SelectSmartContext(text, 100, nil, compress.StrategyBalanced), res)
}
