package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job ids are ULIDs: a 48-bit millisecond timestamp and 80 random bits,
// written as 26 Crockford base32 characters, so ids sort by creation time.
// Within one millisecond the first two random bytes become a counter.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidMu   sync.Mutex
	ulidLast uint64
	ulidSeq  uint16
)

func generateULID() string {
	return newULID(time.Now())
}

func newULID(now time.Time) string {
	ulidMu.Lock()
	ms := uint64(now.UnixMilli())
	if ms == ulidLast {
		ulidSeq++
	} else {
		ulidLast, ulidSeq = ms, 0
	}
	seq := ulidSeq
	ulidMu.Unlock()

	var id [16]byte
	binary.BigEndian.PutUint64(id[:8], ms<<16)
	rand.Read(id[6:])
	binary.BigEndian.PutUint16(id[6:8], seq)
	return encodeULID(id)
}

// encodeULID writes 128 bits as 26 base32 digits, most significant first.
// The leading digit carries only the top 3 bits.
func encodeULID(id [16]byte) string {
	hi := binary.BigEndian.Uint64(id[:8])
	lo := binary.BigEndian.Uint64(id[8:])

	var out [26]byte
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
