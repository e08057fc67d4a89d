package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// tokenValueBytes is the amount of entropy in a pipeline token value.
const tokenValueBytes = 32

// NewTokenValue returns a fresh random token secret, base64url encoded
// without padding (43 characters).
func NewTokenValue() (string, error) {
	buf := make([]byte, tokenValueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashTokenValue returns the hex keyed BLAKE2b-256 digest of value.  The
// digest is deterministic so a presented token can be looked up by hash, and
// keyed so a leaked table cannot be brute forced offline without the key.
// Keys longer than blake2b.Size are reduced with an unkeyed digest first.
func HashTokenValue(key []byte, value string) string {
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		// unreachable: key length is bounded above
		panic(err)
	}
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}
