package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenValue_UniqueAndURLSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		v, err := NewTokenValue()
		require.NoError(t, err)
		assert.Len(t, v, 43)
		assert.False(t, strings.ContainsAny(v, "+/="), "value %q is not base64url", v)
		assert.False(t, seen[v], "duplicate token value")
		seen[v] = true
	}
}

func TestHashTokenValue(t *testing.T) {
	key := []byte("hash-key")

	h1 := HashTokenValue(key, "abc")
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, HashTokenValue(key, "abc"))
	assert.NotEqual(t, h1, HashTokenValue(key, "abd"))
	assert.NotEqual(t, h1, HashTokenValue([]byte("other-key"), "abc"))
}

func TestHashTokenValue_LongKey(t *testing.T) {
	long := []byte(strings.Repeat("k", 200))
	assert.NotPanics(t, func() { _ = HashTokenValue(long, "abc") })
	assert.Len(t, HashTokenValue(long, "abc"), 64)
}
