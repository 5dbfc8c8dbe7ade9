package platform

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// Name suffixes stay lowercase alphanumeric so they survive DNS labels,
// file paths, and log grep alike.
const nameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const nameSuffixLen = 10

// NewID returns a random UUID string. Primary keys across the schema.
func NewID() string {
	return uuid.New().String()
}

// NewName returns prefix plus a random lowercase suffix, e.g. "pod_x3k9qd07mf".
// Used where a bare UUID would be unwieldy in logs and support tickets.
func NewName(prefix string) string {
	buf := make([]byte, nameSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	out := make([]byte, len(prefix)+nameSuffixLen)
	copy(out, prefix)
	for i, b := range buf {
		out[len(prefix)+i] = nameAlphabet[int(b)%len(nameAlphabet)]
	}
	return string(out)
}
