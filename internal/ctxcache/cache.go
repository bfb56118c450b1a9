// Package ctxcache caches compressed manuscript context so repeated
// generation requests over the same text skip recompression.
package ctxcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/compress"
)

// Cache stores compression results by key.
type Cache interface {
	Get(ctx context.Context, key string) (compress.Result, bool, error)
	Put(ctx context.Context, key string, res compress.Result) error
}

// Key identifies one compression request.
func Key(text string, maxWords int, strategy compress.Strategy) string {
	h := sha256.New()
	h.Write([]byte(strategy))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(maxWords)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Select returns compress.SelectSmartContext for the request, consulting
// cache first and storing fresh results in it. The bool reports a cache hit.
// A nil cache disables caching. Cache failures never fail the selection: the
// result is always usable and the returned error only reports that the cache
// is degraded.
func Select(ctx context.Context, cache Cache, text string, maxWords int, characters []string, strategy compress.Strategy) (compress.Result, bool, error) {
	if cache == nil {
		return compress.SelectSmartContext(text, maxWords, characters, strategy), false, nil
	}

	key := Key(text, maxWords, strategy)
	res, ok, getErr := cache.Get(ctx, key)
	if getErr == nil && ok {
		return res, true, nil
	}
	if getErr != nil {
		getErr = fmt.Errorf("cache get: %w", getErr)
	}

	res = compress.SelectSmartContext(text, maxWords, characters, strategy)
	// Unchanged text is cheap to recompute and would double storage.
	if strings.TrimSpace(text) == "" || !res.Rewritten() {
		return res, false, getErr
	}
	if err := cache.Put(ctx, key, res); err != nil {
		return res, false, errors.Join(getErr, fmt.Errorf("cache put: %w", err))
	}
	return res, false, getErr
}
