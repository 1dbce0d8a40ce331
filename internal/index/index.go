package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Corpus is the read side of the index consumed by search.
type Corpus interface {
	Documents(ctx context.Context) ([]Entry, error)
}

var _ Corpus = (*DB)(nil)

// Checksum returns the hex-encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
