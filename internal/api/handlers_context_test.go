package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type selectBody struct {
	Compressed       string  `json:"compressed"`
	OriginalLength   int     `json:"original_length"`
	CompressedLength int     `json:"compressed_length"`
	CompressionRatio float64 `json:"compression_ratio"`
	Strategy         string  `json:"strategy"`
	MaxWords         int     `json:"max_words"`
	CacheHit         bool    `json:"cache_hit"`
}

func TestHandleCompress(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/context/compress", map[string]any{"text": "short text", "max_words": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[selectBody](t, rec)
	assert.Equal(t, "short text", body.Compressed)
	assert.Equal(t, 1.0, body.CompressionRatio)

	long := strings.Repeat("word ", 50)
	rec = do(t, s, http.MethodPost, "/api/context/compress", map[string]any{"text": long, "max_words": 20, "recent_words": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[selectBody](t, rec)
	assert.Equal(t, 50, body.OriginalLength)
	assert.Contains(t, body.Compressed, "[... earlier content ...]")
	assert.Less(t, body.CompressedLength, 50)

	rec = do(t, s, http.MethodPost, "/api/context/compress", map[string]any{"text": long})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSelect(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/context/select", map[string]any{
		"text":     "A quiet evening in the village.",
		"tier":     "free",
		"strategy": "extended",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[selectBody](t, rec)
	assert.Equal(t, "balanced", body.Strategy, "free tier has no extended strategy")
	assert.Equal(t, 4000, body.MaxWords)
	assert.Equal(t, "A quiet evening in the village.", body.Compressed)

	// max_words narrows the tier window.
	rec = do(t, s, http.MethodPost, "/api/context/select", map[string]any{
		"text":      strings.Repeat("word ", 100),
		"tier":      "pro",
		"max_words": 50,
		"strategy":  "extended",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[selectBody](t, rec)
	assert.Equal(t, 50, body.MaxWords)
	assert.Equal(t, "extended", body.Strategy)
	assert.Less(t, body.CompressedLength, 100)
	assert.False(t, body.CacheHit)

	rec = do(t, s, http.MethodPost, "/api/context/select", map[string]any{
		"text":      strings.Repeat("word ", 100),
		"tier":      "pro",
		"max_words": 50,
		"strategy":  "extended",
	})
	assert.True(t, decode[selectBody](t, rec).CacheHit)
}

func TestHandleSelect_DefaultTierBoundsRequest(t *testing.T) {
	s := newTestServer(t)

	// No tier: the default tier (free) still caps the window and strategy.
	rec := do(t, s, http.MethodPost, "/api/context/select", map[string]any{
		"text":      "x",
		"max_words": 1000000,
		"strategy":  "extended",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[selectBody](t, rec)
	assert.Equal(t, 4000, body.MaxWords)
	assert.Equal(t, "balanced", body.Strategy)

	rec = do(t, s, http.MethodPost, "/api/context/select", map[string]any{
		"text":      "x",
		"max_words": 300,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 300, decode[selectBody](t, rec).MaxWords)
}

func TestHandleSelect_BadInput(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/context/select", map[string]any{"text": "x", "tier": "gold"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/context/select", map[string]any{"text": "x", "strategy": "greedy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/context/select", map[string]any{"text": "x", "characters": []string{" "}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
