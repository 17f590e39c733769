package caching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeCacheAddAndLookup(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	require.NoError(t, cache.Add(42, "ABC123"))

	code, exists := cache.IDToCode(42)
	assert.True(t, exists)
	assert.Equal(t, "ABC123", code)

	id, exists := cache.CodeToID("ABC123")
	assert.True(t, exists)
	assert.Equal(t, uint64(42), id)

	_, exists = cache.IDToCode(43)
	assert.False(t, exists)
	_, exists = cache.CodeToID("NOPE")
	assert.False(t, exists)
}

func TestCodeCacheRejectsInvalidEntries(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	assert.Error(t, cache.Add(0, "ABC123"))
	assert.Error(t, cache.Add(42, ""))
}

func TestCodeCacheRemove(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	require.NoError(t, cache.Add(7, "XYZ789"))
	cache.Remove(7, "XYZ789")

	_, exists := cache.IDToCode(7)
	assert.False(t, exists)
	_, exists = cache.CodeToID("XYZ789")
	assert.False(t, exists)
}
