package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job ids are ULIDs: 48 bits of millisecond time followed by 80 bits of
// entropy, Crockford base32 encoded into 26 characters. Ids minted in the same
// millisecond carry an increasing sequence in the first two entropy bytes so
// they stay unique and sort in submission order.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var ids struct {
	sync.Mutex
	ms  uint64
	seq uint16
}

func generateULID() string {
	return newULID(time.Now())
}

func newULID(now time.Time) string {
	ids.Lock()
	ms := uint64(now.UnixMilli())
	if ms == ids.ms {
		ids.seq++
	} else {
		ids.ms, ids.seq = ms, 0
	}
	seq := ids.seq
	ids.Unlock()

	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], ms<<16)
	rand.Read(b[6:])
	binary.BigEndian.PutUint16(b[6:8], seq)
	return encodeULID(b)
}

// encodeULID emits the 128 bits as 26 five-bit groups, most significant first.
// The leading group holds only the top 3 bits.
func encodeULID(b [16]byte) string {
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])
	var out [26]byte
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
