package vectorstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdmurugan/d-vecDB/internal/engine/vectorstore"
)

func TestAllocatePutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := vectorstore.Open(path, 4, 16)
	require.NoError(t, err)
	defer s.Close()

	slot, err := s.Allocate()
	require.NoError(t, err)

	vec := []float32{1, 2, 3, 4}
	require.NoError(t, s.Put(slot, vec))

	got, ok, err := s.Get(slot)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vec, got)
}

func TestFreeThenReuseSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := vectorstore.Open(path, 2, 16)
	require.NoError(t, err)
	defer s.Close()

	slot, err := s.Allocate()
	require.NoError(t, err)
	require.NoError(t, s.Put(slot, []float32{1, 2}))

	require.NoError(t, s.Free(slot))
	_, ok, err := s.Get(slot)
	require.NoError(t, err)
	assert.False(t, ok)

	_, used := s.Stats()
	assert.Equal(t, uint64(0), used)
}

func TestDimensionMismatchOnPut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := vectorstore.Open(path, 4, 16)
	require.NoError(t, err)
	defer s.Close()

	slot, err := s.Allocate()
	require.NoError(t, err)
	err = s.Put(slot, []float32{1, 2})
	assert.Error(t, err)
}

func TestGrowthBeyondInitialCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	const initial = 4096
	s, err := vectorstore.Open(path, 2, initial)
	require.NoError(t, err)
	defer s.Close()

	genBefore := s.Generation()
	for i := 0; i < initial+1; i++ {
		_, err := s.Allocate()
		require.NoError(t, err)
	}
	cap, used := s.Stats()
	assert.Greater(t, cap, uint64(initial))
	assert.Equal(t, uint64(initial+1), used)
	assert.Greater(t, s.Generation(), genBefore)
}

func TestReopenPreservesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := vectorstore.Open(path, 3, 16)
	require.NoError(t, err)
	slot, err := s.Allocate()
	require.NoError(t, err)
	require.NoError(t, s.Put(slot, []float32{5, 6, 7}))
	require.NoError(t, s.Close())

	s2, err := vectorstore.Open(path, 3, 16)
	require.NoError(t, err)
	defer s2.Close()

	got, ok, err := s2.Get(slot)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{5, 6, 7}, got)
}
