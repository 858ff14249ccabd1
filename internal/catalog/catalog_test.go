package catalog_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdmurugan/d-vecDB/internal/catalog"
	"github.com/rdmurugan/d-vecDB/internal/engine/distance"
	vecerr "github.com/rdmurugan/d-vecDB/pkg/errors"
)

func testManifest() catalog.Manifest {
	return catalog.Manifest{
		Dimension:               3,
		Distance:                distance.Euclidean,
		M:                       8,
		EfConstruction:          32,
		EfSearchDefault:         16,
		MaxLayer:                8,
		SearchFilterOverfetch:   4,
		VectorStoreInitialSlots: 4096,
		WalSyncMode:             "always",
	}
}

func openTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	dir, err := os.MkdirTemp("", "vecdb-catalog-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	c, err := catalog.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCreateAndGetCollection(t *testing.T) {
	c := openTestCatalog(t)
	col, err := c.CreateCollection("docs", testManifest())
	require.NoError(t, err)
	require.NotNil(t, col)

	got, err := c.Get("docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", got.Name())
}

func TestCreateDuplicateFails(t *testing.T) {
	c := openTestCatalog(t)
	_, err := c.CreateCollection("docs", testManifest())
	require.NoError(t, err)

	_, err = c.CreateCollection("docs", testManifest())
	require.Error(t, err)
	assert.Equal(t, vecerr.KindAlreadyExists, vecerr.KindOf(err))
}

func TestListCollections(t *testing.T) {
	c := openTestCatalog(t)
	_, err := c.CreateCollection("a", testManifest())
	require.NoError(t, err)
	_, err = c.CreateCollection("b", testManifest())
	require.NoError(t, err)

	names, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestDropCollectionRemovesFromIndex(t *testing.T) {
	c := openTestCatalog(t)
	_, err := c.CreateCollection("docs", testManifest())
	require.NoError(t, err)

	require.NoError(t, c.DropCollection("docs"))

	names, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = c.Get("docs")
	require.Error(t, err)
	assert.Equal(t, vecerr.KindNotFound, vecerr.KindOf(err))
}

func TestDropUnknownCollectionFails(t *testing.T) {
	c := openTestCatalog(t)
	err := c.DropCollection("nope")
	require.Error(t, err)
	assert.Equal(t, vecerr.KindNotFound, vecerr.KindOf(err))
}

func TestGetUnopenedCollectionReopensFromManifest(t *testing.T) {
	dir, err := os.MkdirTemp("", "vecdb-catalog-*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	c1, err := catalog.Open(dir)
	require.NoError(t, err)
	col, err := c1.CreateCollection("docs", testManifest())
	require.NoError(t, err)
	id := uuid.New()
	require.NoError(t, col.Insert(context.Background(), id, []float32{1, 2, 3}, nil))
	require.NoError(t, c1.Close())

	c2, err := catalog.Open(dir)
	require.NoError(t, err)
	defer c2.Close()

	reopened, err := c2.Get("docs")
	require.NoError(t, err)
	vec, _, err := reopened.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestSecondOpenOnSameDirFailsToLock(t *testing.T) {
	dir, err := os.MkdirTemp("", "vecdb-catalog-*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	c1, err := catalog.Open(dir)
	require.NoError(t, err)
	defer c1.Close()

	_, err = catalog.Open(dir)
	require.Error(t, err)
}
