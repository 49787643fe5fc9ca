package id

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

// UUID generates a UUID v4 (random).
// Returns a string in the format: xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx
func UUID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	// Set version (4) and variant bits per RFC 4122
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// ulidEncoding is Crockford's Base32 (excludes I, L, O, U to avoid ambiguity).
const ulidEncoding = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidMu      sync.Mutex
	ulidLastMs  int64
	ulidCounter uint16
)

// ULID generates a 26-character Universally Unique Lexicographically
// Sortable Identifier: 10 characters of millisecond timestamp followed by
// 16 characters of randomness. IDs generated within the same millisecond
// remain unique via a monotonic counter mixed into the random component.
func ULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	now := time.Now().UnixMilli()
	if now == ulidLastMs {
		ulidCounter++
		if ulidCounter == 0 {
			// Counter overflow, wait for the next millisecond
			for now == ulidLastMs {
				time.Sleep(time.Millisecond)
				now = time.Now().UnixMilli()
			}
		}
	} else {
		ulidLastMs = now
		ulidCounter = 0
	}

	return encodeULID(now, ulidCounter)
}

// encodeULID encodes a timestamp and counter into a ULID string.
func encodeULID(ms int64, counter uint16) string {
	out := make([]byte, 26)

	// Timestamp: 48 bits across the first 10 characters, most significant first.
	for i := 9; i >= 0; i-- {
		out[i] = ulidEncoding[ms&0x1f]
		ms >>= 5
	}

	// Randomness: 80 bits (10 bytes) across the last 16 characters.
	random := make([]byte, 10)
	_, _ = rand.Read(random)
	random[0] ^= byte(counter >> 8)
	random[1] ^= byte(counter)

	// Walk the random bytes 5 bits at a time.
	bitPos := 0
	for i := 10; i < 26; i++ {
		byteIdx := bitPos / 8
		shift := bitPos % 8
		v := int(random[byteIdx]) << 8
		if byteIdx+1 < len(random) {
			v |= int(random[byteIdx+1])
		}
		out[i] = ulidEncoding[(v>>(11-shift))&0x1f]
		bitPos += 5
	}

	return string(out)
}
