// Package catalog is the daemon's top-level registry of collections:
// it tracks which collections exist, persists their manifests, and
// owns the single open *collection.Collection handle for each one.
// The registry itself is an in-memory index over each collection's own
// manifest.json — that file, not the index, is the authoritative
// record, so the index is rebuilt from a directory scan every time the
// catalog opens and never needs its own persistence or recovery path.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rdmurugan/d-vecDB/internal/cache"
	"github.com/rdmurugan/d-vecDB/internal/engine/collection"
	vecerr "github.com/rdmurugan/d-vecDB/pkg/errors"
	"github.com/rdmurugan/d-vecDB/pkg/metrics"
)

// defaultMaxOpenCollections bounds how many collections this process
// keeps open (mmap'd vector store + WAL file descriptors) at once.
// Beyond this, the least-recently-used collection is closed to free
// its handles; Get reopens it transparently from its manifest on the
// next access.
const defaultMaxOpenCollections = 256

// Catalog owns the in-memory registry plus every currently-open
// collection handle in this process.
type Catalog struct {
	mu       sync.Mutex
	dataDir  string
	manifest map[string]Manifest
	lock     *lockFile

	// open caches the handles for collections opened in this process,
	// bounded by defaultMaxOpenCollections; evicting an entry closes
	// its underlying collection.
	open *cache.LRUCache
}

func (c *Catalog) getOpen(name string) (*collection.Collection, bool) {
	v, ok := c.open.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*collection.Collection), true
}

// Open opens (creating if necessary) the catalog rooted at dataDir. A
// process-exclusive lock file under dataDir prevents two daemon
// processes from mutating the same registry concurrently.
func Open(dataDir string) (*Catalog, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, vecerr.Wrap(vecerr.KindStoreIoError, "catalog.Open", "failed to create data directory", err)
	}
	lock, err := acquireLock(filepath.Join(dataDir, "LOCK"))
	if err != nil {
		return nil, err
	}

	cat := &Catalog{
		dataDir:  dataDir,
		manifest: make(map[string]Manifest),
		lock:     lock,
	}
	cat.open = cache.NewLRUCacheWithEvict(defaultMaxOpenCollections, func(_ string, value interface{}) {
		if col, ok := value.(*collection.Collection); ok {
			col.Close()
		}
	})
	if err := cat.reconcileFromDisk(); err != nil {
		lock.release()
		return nil, err
	}
	return cat, nil
}

// reconcileFromDisk rebuilds the in-memory registry from each
// collection directory's manifest.json, the only authoritative record
// of a collection's existence and configuration. This runs once, at
// daemon startup, so a data directory copied in from elsewhere (or one
// whose process died without a clean Close) always comes up consistent
// without a separate repair step.
func (c *Catalog) reconcileFromDisk() error {
	entries, err := os.ReadDir(filepath.Join(c.dataDir, "collections"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return vecerr.Wrap(vecerr.KindStoreIoError, "catalog.reconcileFromDisk", "failed to scan collections directory", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifestPath := filepath.Join(c.dataDir, "collections", entry.Name(), "manifest.json")
		data, err := os.ReadFile(manifestPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return vecerr.Wrap(vecerr.KindStoreIoError, "catalog.reconcileFromDisk", "failed to read manifest.json", err)
		}
		m, err := unmarshalManifest(data)
		if err != nil {
			return vecerr.Wrap(vecerr.KindCorruptRecord, "catalog.reconcileFromDisk", "manifest.json is not valid JSON", err)
		}
		c.manifest[entry.Name()] = m
	}
	return nil
}

func (c *Catalog) collectionDir(name string) string {
	return filepath.Join(c.dataDir, "collections", name)
}

// sortedNames returns the registered collection names in sorted order,
// the natural substitute for a range scan now that the registry is a
// plain map rather than a single-key point-lookup store.
func (c *Catalog) sortedNames() []string {
	names := make([]string, 0, len(c.manifest))
	for name := range c.manifest {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateCollection registers a brand-new collection and opens it.
// Fails with AlreadyExists if name is already registered.
func (c *Catalog) CreateCollection(name string, m Manifest) (*collection.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.manifest[name]; exists {
		metrics.RegistryOperationsTotal.WithLabelValues("create", "error").Inc()
		return nil, vecerr.New(vecerr.KindAlreadyExists, "catalog.CreateCollection", "collection already exists")
	}

	m.Name = name
	m = stampCreation(m, time.Now())
	manifestJSON, err := m.marshal()
	if err != nil {
		return nil, vecerr.Wrap(vecerr.KindInvalidArgument, "catalog.CreateCollection", "failed to encode manifest", err)
	}

	dir := c.collectionDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, vecerr.Wrap(vecerr.KindStoreIoError, "catalog.CreateCollection", "failed to create collection directory", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), manifestJSON, 0644); err != nil {
		return nil, vecerr.Wrap(vecerr.KindStoreIoError, "catalog.CreateCollection", "failed to write manifest.json", err)
	}

	col, err := collection.Open(dir, name, manifestToConfig(m))
	if err != nil {
		return nil, err
	}
	c.manifest[name] = m
	c.open.Set(name, col)
	metrics.RegistryOperationsTotal.WithLabelValues("create", "ok").Inc()
	return col, nil
}

func manifestToConfig(m Manifest) collection.Config {
	return collection.Config{
		Dimension:               m.Dimension,
		Distance:                m.Distance,
		M:                       m.M,
		EfConstruction:          m.EfConstruction,
		EfSearchDefault:         m.EfSearchDefault,
		MaxLayer:                m.MaxLayer,
		SearchFilterOverfetch:   m.SearchFilterOverfetch,
		WalSyncMode:             m.WalSyncMode,
		WalFsyncIntervalMs:      m.WalFsyncIntervalMs,
		VectorStoreInitialSlots: m.VectorStoreInitialSlots,
	}
}

// Get returns the open handle for name, opening it from its persisted
// manifest if this is the first access since the daemon started.
func (c *Catalog) Get(name string) (*collection.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if col, ok := c.getOpen(name); ok {
		return col, nil
	}

	m, ok := c.manifest[name]
	if !ok {
		return nil, vecerr.New(vecerr.KindNotFound, "catalog.Get", "collection not found")
	}

	col, err := collection.Open(c.collectionDir(name), name, manifestToConfig(m))
	if err != nil {
		return nil, err
	}
	c.open.Set(name, col)
	return col, nil
}

// List returns the names of every registered collection, sorted.
func (c *Catalog) List() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortedNames(), nil
}

// DropCollection closes (if open) and permanently removes a
// collection: its registry entry and its on-disk directory.
func (c *Catalog) DropCollection(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.manifest[name]; !ok {
		metrics.RegistryOperationsTotal.WithLabelValues("drop", "error").Inc()
		return vecerr.New(vecerr.KindNotFound, "catalog.DropCollection", "collection not found")
	}

	// Remove triggers the cache's eviction callback, which closes the
	// collection if it was open; a no-op if it wasn't.
	c.open.Remove(name)
	delete(c.manifest, name)

	if err := os.RemoveAll(c.collectionDir(name)); err != nil {
		metrics.RegistryOperationsTotal.WithLabelValues("drop", "error").Inc()
		return vecerr.Wrap(vecerr.KindStoreIoError, "catalog.DropCollection", "failed to remove collection directory", err)
	}

	metrics.RegistryOperationsTotal.WithLabelValues("drop", "ok").Inc()
	return nil
}

// Close closes every open collection, then releases the process lock.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.open.Clear()
	c.lock.release()
	return nil
}
