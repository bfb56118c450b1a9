package pipeline

import (
	"math/rand/v2"
	"time"
)

// MaxAttempts bounds calls to the model per job.
const MaxAttempts = 3

const maxBackoff = 30 * time.Second

// Backoff returns the wait before retry attempt n (0-indexed): 2^n seconds,
// capped at 30s, plus up to 50% jitter.
func Backoff(attempt int) time.Duration {
	base := maxBackoff
	if attempt < 5 {
		base = min(time.Duration(1<<attempt)*time.Second, maxBackoff)
	}
	return base + time.Duration(rand.Int64N(int64(base)/2))
}
