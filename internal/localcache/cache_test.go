package localcache_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsalif/penna/internal/ledger"
	"github.com/hsalif/penna/internal/localcache"
)

func openCache(t *testing.T) *localcache.Cache {
	t.Helper()

	cache, err := localcache.Open(filepath.Join(t.TempDir(), "penna.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return cache
}

func TestCache_RoundTrip(t *testing.T) {
	cache := openCache(t)

	want := ledger.DefaultCategories()
	require.NoError(t, cache.Set("categories", want))

	var got []ledger.Category

	found, err := cache.Get("categories", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, got)
}

func TestCache_MissingKey(t *testing.T) {
	cache := openCache(t)

	var got []ledger.Category

	found, err := cache.Get("nothing", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestCache_OverwriteReplaces(t *testing.T) {
	cache := openCache(t)

	require.NoError(t, cache.Set("viewMode", "monthly"))
	require.NoError(t, cache.Set("viewMode", "yearly"))

	var got string

	found, err := cache.Get("viewMode", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "yearly", got)
}

func TestCache_CorruptValue(t *testing.T) {
	cache := openCache(t)

	require.NoError(t, cache.Set("viewMode", "monthly"))

	// A string cannot decode into a slice; Get must surface the problem
	// instead of panicking, Load must swallow it.
	var wrong []ledger.Category

	_, err := cache.Get("viewMode", &wrong)
	assert.Error(t, err)

	assert.False(t, cache.Load("viewMode", &wrong))
}

func TestCache_Delete(t *testing.T) {
	cache := openCache(t)

	require.NoError(t, cache.Set("session_token", "abc"))
	require.NoError(t, cache.Delete("session_token"))
	require.NoError(t, cache.Delete("session_token"), "deleting an absent key is fine")

	var got string

	found, err := cache.Get("session_token", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_ReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "penna.db")

	first, err := localcache.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Set("transactions", []string{"a"}))
	require.NoError(t, first.Close())

	second, err := localcache.Open(path)
	require.NoError(t, err)
	defer second.Close()

	var got []string

	found, err := second.Get("transactions", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"a"}, got)
}
