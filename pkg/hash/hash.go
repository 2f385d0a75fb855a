package hash

import (
	"crypto/sha1" // nolint: gosec
	"encoding/hex"
	"hash"
)

// SHA1 accumulates the SHA-1 digest of everything written to it, the same
// digest Nexus publishes in the `.sha1` file next to every Maven asset.
type SHA1 struct {
	h hash.Hash
}

func NewSHA1() *SHA1 {
	return &SHA1{h: sha1.New()} // nolint: gosec
}

func (s *SHA1) Write(p []byte) (int, error) {
	return s.h.Write(p)
}

// Sum returns the lower-case hex digest.
func (s *SHA1) Sum() string {
	return hex.EncodeToString(s.h.Sum(nil))
}
