package hnsw_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdmurugan/d-vecDB/internal/engine/distance"
	"github.com/rdmurugan/d-vecDB/internal/engine/hnsw"
)

type memSource struct {
	vectors map[uint64][]float32
}

func (m *memSource) Vector(slot uint64) ([]float32, error) {
	return m.vectors[slot], nil
}

func newTestGraph(t *testing.T) (*hnsw.Graph, *memSource) {
	t.Helper()
	src := &memSource{vectors: make(map[uint64][]float32)}
	g := hnsw.New(hnsw.Config{M: 8, EfConstruction: 32, EfSearchDefault: 16, MaxLayer: 8}, distance.Euclidean, src)
	return g, src
}

func insert(t *testing.T, g *hnsw.Graph, src *memSource, slot uint64, vec []float32) {
	t.Helper()
	src.vectors[slot] = vec
	require.NoError(t, g.Insert(context.Background(), slot, vec))
}

func TestInsertAndSearchFindsNearest(t *testing.T) {
	g, src := newTestGraph(t)
	insert(t, g, src, 0, []float32{0, 0})
	insert(t, g, src, 1, []float32{10, 10})
	insert(t, g, src, 2, []float32{0.1, 0.1})
	insert(t, g, src, 3, []float32{20, 20})

	results, err := g.Search(context.Background(), []float32{0, 0}, 2, 16)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint64(0), results[0].Slot)
	assert.Equal(t, uint64(2), results[1].Slot)
}

func TestDeleteHidesFromResults(t *testing.T) {
	g, src := newTestGraph(t)
	insert(t, g, src, 0, []float32{0, 0})
	insert(t, g, src, 1, []float32{1, 1})
	insert(t, g, src, 2, []float32{2, 2})

	require.NoError(t, g.Delete(0))

	results, err := g.Search(context.Background(), []float32{0, 0}, 3, 16)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, uint64(0), r.Slot)
	}
}

func TestUpdateMovesResultRanking(t *testing.T) {
	g, src := newTestGraph(t)
	insert(t, g, src, 0, []float32{0, 0})
	insert(t, g, src, 1, []float32{5, 5})
	insert(t, g, src, 2, []float32{10, 10})

	src.vectors[1] = []float32{0, 0.1}
	require.NoError(t, g.Update(context.Background(), 1, []float32{0, 0.1}))

	results, err := g.Search(context.Background(), []float32{0, 0.1}, 1, 16)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(1), results[0].Slot)
}

func TestStatsCountsLiveAndTombstoned(t *testing.T) {
	g, src := newTestGraph(t)
	insert(t, g, src, 0, []float32{0, 0})
	insert(t, g, src, 1, []float32{1, 1})
	require.NoError(t, g.Delete(1))

	stats := g.Stats()
	assert.Equal(t, 1, stats.LiveCount)
	assert.Equal(t, 1, stats.TombstoneCount)
}

func TestRepairReclaimsFullyRepairedTombstone(t *testing.T) {
	g, src := newTestGraph(t)
	for i := uint64(0); i < 6; i++ {
		insert(t, g, src, i, []float32{float32(i), float32(i)})
	}
	require.NoError(t, g.Delete(2))

	reclaimed, err := g.Repair(context.Background())
	require.NoError(t, err)
	if containsSlot(reclaimed, 2) {
		assert.False(t, g.Contains(2))
	}
}

func containsSlot(slots []uint64, slot uint64) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

func TestEmptyGraphSearchReturnsNil(t *testing.T) {
	g, _ := newTestGraph(t)
	results, err := g.Search(context.Background(), []float32{0, 0}, 5, 16)
	require.NoError(t, err)
	assert.Nil(t, results)
}
