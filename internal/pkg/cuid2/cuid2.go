// Package cuid2 generates collision-resistant request identifiers with a
// time-sortable prefix, for correlating log lines across the pipeline.
package cuid2

import (
	crypto_rand "crypto/rand"
	"strings"
	"time"
)

// Base62 alphabet: 0-9, A-Z, a-z. Digits-first keeps the timestamp prefix
// lexicographically sortable.
const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// randomLength is the number of random characters after the timestamp,
// roughly 107 bits of entropy at log2(62) bits per character.
const randomLength = 18

// Generate returns an ID of the form prefix_TTTTTTR...R: six base62
// characters encoding the current Unix second followed by 18 random base62
// characters.
func Generate(prefix string) string {
	return prefix + "_" + encodeTimestamp(time.Now().Unix()) + randomBase62(randomLength)
}

// encodeTimestamp encodes a Unix timestamp in seconds as a fixed-width
// 6-character base62 string. The width covers timestamps up to ~56 billion
// seconds (~1800 years from the epoch).
func encodeTimestamp(seconds int64) string {
	n := seconds
	out := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		out[i] = base62Alphabet[n%62]
		n /= 62
	}
	return string(out)
}

// randomBase62 produces length random base62 characters. Each byte is
// masked to 6 bits and values 62-63 are rejected, keeping the distribution
// uniform over the alphabet.
func randomBase62(length int) string {
	var b strings.Builder
	b.Grow(length)

	buf := make([]byte, 2*length)
	for b.Len() < length {
		if _, err := crypto_rand.Read(buf); err != nil {
			panic("failed to read random bytes: " + err.Error())
		}
		for _, c := range buf {
			v := c & 0x3f
			if v >= 62 {
				continue
			}
			b.WriteByte(base62Alphabet[v])
			if b.Len() == length {
				break
			}
		}
	}
	return b.String()
}
