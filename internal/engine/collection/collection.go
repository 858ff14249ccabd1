// Package collection implements the per-collection coordinator: the
// component that owns one vector store, one WAL, one metadata store
// and one HNSW graph, and enforces the atomicity and crash-recovery
// invariants across them. Every public method here corresponds
// directly to a collection operation exposed over the REST surface.
package collection

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rdmurugan/d-vecDB/internal/engine/distance"
	"github.com/rdmurugan/d-vecDB/internal/engine/hnsw"
	"github.com/rdmurugan/d-vecDB/internal/engine/metadata"
	"github.com/rdmurugan/d-vecDB/internal/engine/vectorstore"
	"github.com/rdmurugan/d-vecDB/internal/engine/wal"
	vecerr "github.com/rdmurugan/d-vecDB/pkg/errors"
	"github.com/rdmurugan/d-vecDB/pkg/metrics"
)

// Config carries the tunables a collection is created or reopened
// with. HNSW parameters are fixed at creation time — see §4.3 of the
// design — and must be reused unchanged on every later Open.
type Config struct {
	Dimension             int
	Distance              distance.Kind
	M                      int
	EfConstruction         int
	EfSearchDefault        int
	MaxLayer               int
	SearchFilterOverfetch  int
	WalSyncMode            string // "always" or "interval"
	WalFsyncIntervalMs     int
	VectorStoreInitialSlots int
	CheckpointEvery        int
}

func (c Config) withDefaults() Config {
	if c.EfSearchDefault <= 0 {
		c.EfSearchDefault = 64
	}
	if c.SearchFilterOverfetch <= 0 {
		c.SearchFilterOverfetch = 4
	}
	if c.WalSyncMode == "" {
		c.WalSyncMode = "interval"
	}
	if c.WalFsyncIntervalMs <= 0 {
		c.WalFsyncIntervalMs = 200
	}
	if c.VectorStoreInitialSlots <= 0 {
		c.VectorStoreInitialSlots = 4096
	}
	if c.CheckpointEvery <= 0 {
		c.CheckpointEvery = 10000
	}
	return c
}

// Collection coordinates durable mutation and in-memory search for a
// single named vector collection.
type Collection struct {
	name string
	dir  string
	cfg  Config

	mu sync.RWMutex

	vs    *vectorstore.Store
	w     *wal.Writer
	md    *metadata.Store
	graph *hnsw.Graph

	mutationsSinceCheckpoint int

	stopSync chan struct{}
	syncWg   sync.WaitGroup
	syncWake chan struct{}

	// syncMu/syncPending/syncDone/syncErr implement group commit for
	// "interval" mode: every caller appended since the last flush
	// shares the channel closed by the next flushPending, so none of
	// them observes success before its record is durable. syncWake
	// prompts the background loop to flush right away instead of
	// waiting out the rest of the ticker interval, so a lone caller
	// isn't held up by callers that never showed up to batch with.
	syncMu      sync.Mutex
	syncPending bool
	syncDone    chan struct{}
	syncErr     error
}

type vectorSourceAdapter struct{ vs *vectorstore.Store }

func (a vectorSourceAdapter) Vector(slot uint64) ([]float32, error) {
	v, ok, err := a.vs.Get(slot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, vecerr.New(vecerr.KindInvariantViolation, "collection.vectorSource", "slot has no live vector")
	}
	return v, nil
}

const (
	vectorsFile = "vectors.dat"
	walFile     = "wal.log"
)

// Open opens an existing collection directory or creates a new one,
// replaying its WAL to reconstruct the metadata store and HNSW graph
// (the graph's topology is never persisted — see §4.7 of the design).
func Open(dir, name string, cfg Config) (*Collection, error) {
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, vecerr.Wrap(vecerr.KindStoreIoError, "collection.Open", "failed to create collection directory", err)
	}

	vs, err := vectorstore.Open(filepath.Join(dir, vectorsFile), cfg.Dimension, cfg.VectorStoreInitialSlots)
	if err != nil {
		return nil, err
	}

	graph := hnsw.New(hnsw.Config{
		M:               cfg.M,
		EfConstruction:  cfg.EfConstruction,
		EfSearchDefault: cfg.EfSearchDefault,
		MaxLayer:        cfg.MaxLayer,
	}, cfg.Distance, vectorSourceAdapter{vs})

	md := metadata.New()

	walPath := filepath.Join(dir, walFile)
	start := time.Now()
	lastSeq, truncated, err := wal.Replay(walPath, func(rec wal.Record) error {
		return applyRecord(md, graph, rec)
	})
	if err != nil {
		vs.Close()
		return nil, err
	}
	metrics.RecoveryDurationSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
	_ = truncated // a torn tail is expected after a crash; wal.Replay already truncated the file

	w, err := wal.OpenWriter(walPath, lastSeq)
	if err != nil {
		vs.Close()
		return nil, err
	}

	c := &Collection{
		name:     name,
		dir:      dir,
		cfg:      cfg,
		vs:       vs,
		w:        w,
		md:       md,
		graph:    graph,
		stopSync: make(chan struct{}),
		syncWake: make(chan struct{}, 1),
	}

	if cfg.WalSyncMode == "interval" {
		c.syncWg.Add(1)
		go c.intervalSyncLoop()
	}

	metrics.CollectionsOpen.Inc()
	return c, nil
}

func applyRecord(md *metadata.Store, graph *hnsw.Graph, rec wal.Record) error {
	switch rec.Type {
	case wal.RecordInsert:
		m, err := decodeMutation(rec.Payload)
		if err != nil {
			return err
		}
		if err := md.Insert(m.ID, m.Slot, m.Attrs); err != nil {
			return err
		}
		return graph.Insert(context.Background(), m.Slot, m.Vector)
	case wal.RecordUpdate:
		m, err := decodeMutation(rec.Payload)
		if err != nil {
			return err
		}
		if _, ok := md.Slot(m.ID); ok {
			if _, err := md.Reassign(m.ID, m.Slot, m.Attrs); err != nil {
				return err
			}
		} else if err := md.Insert(m.ID, m.Slot, m.Attrs); err != nil {
			return err
		}
		if graph.Contains(m.Slot) {
			return graph.Update(context.Background(), m.Slot, m.Vector)
		}
		return graph.Insert(context.Background(), m.Slot, m.Vector)
	case wal.RecordDelete:
		id, err := decodeDelete(rec.Payload)
		if err != nil {
			return err
		}
		slot, err := md.Delete(id)
		if err != nil {
			return err
		}
		return graph.Delete(slot)
	case wal.RecordCheckpoint:
		return nil
	default:
		return vecerr.New(vecerr.KindCorruptRecord, "collection.applyRecord", "unknown WAL record type")
	}
}

func (c *Collection) intervalSyncLoop() {
	defer c.syncWg.Done()
	t := time.NewTicker(time.Duration(c.cfg.WalFsyncIntervalMs) * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-c.syncWake:
			c.flushPending()
		case <-t.C:
			// Periodic safety net: catches a pending append whose
			// waitForDurable call raced the wake signal, without
			// relying on the wake channel alone.
			c.flushPending()
		case <-c.stopSync:
			// Flush once more so a caller blocked in waitForDurable
			// on the final pending append isn't left hanging forever
			// while Close waits for this goroutine to exit.
			c.flushPending()
			return
		}
	}
}

// flushPending fsyncs the WAL once on behalf of every call currently
// blocked in waitForDurable and wakes them all. A no-op if nothing has
// appended since the last flush.
func (c *Collection) flushPending() {
	c.syncMu.Lock()
	if !c.syncPending {
		c.syncMu.Unlock()
		return
	}
	done := c.syncDone
	c.syncMu.Unlock()

	err := c.w.Sync()

	c.syncMu.Lock()
	c.syncErr = err
	c.syncPending = false
	c.syncDone = nil
	c.syncMu.Unlock()
	close(done)
}

func (c *Collection) checkDimension(vector []float32) error {
	if len(vector) != c.cfg.Dimension {
		return vecerr.New(vecerr.KindDimensionMismatch, "collection", "vector length does not match collection dimension")
	}
	return nil
}

// waitForDurable blocks until the record just appended (and everything
// before it) is fsynced, regardless of sync mode: in "always" mode it
// syncs immediately; in "interval" mode it waits for the background
// loop's next flushPending, which covers every caller waiting at that
// moment with a single fsync. Either way, the method does not return
// until the append it just made is observable after a crash.
func (c *Collection) waitForDurable() error {
	if c.cfg.WalSyncMode == "always" {
		return c.w.Sync()
	}

	c.syncMu.Lock()
	if c.syncDone == nil {
		c.syncDone = make(chan struct{})
		c.syncPending = true
	}
	done := c.syncDone
	c.syncMu.Unlock()

	select {
	case c.syncWake <- struct{}{}:
	default:
	}

	<-done

	c.syncMu.Lock()
	err := c.syncErr
	c.syncMu.Unlock()
	return err
}

// Insert adds a new vector under external_id. Fails with AlreadyExists
// if external_id is already live, DimensionMismatch if the vector's
// width does not match the collection.
func (c *Collection) Insert(ctx context.Context, id uuid.UUID, vector []float32, attrs map[string]any) error {
	if err := c.checkDimension(vector); err != nil {
		metrics.RequestsTotal.WithLabelValues("insert", "error").Inc()
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.md.Slot(id); ok {
		metrics.RequestsTotal.WithLabelValues("insert", "error").Inc()
		return vecerr.New(vecerr.KindAlreadyExists, "collection.Insert", "external id already exists")
	}

	slot, err := c.vs.Allocate()
	if err != nil {
		return err
	}
	payload, err := encodeMutation(id, slot, vector, attrs)
	if err != nil {
		return err
	}
	if _, err := c.w.Append(wal.RecordInsert, payload); err != nil {
		return err
	}
	if err := c.waitForDurable(); err != nil {
		return err
	}
	metrics.WalAppendsTotal.WithLabelValues(c.name, "ok").Inc()

	if err := c.vs.Put(slot, vector); err != nil {
		return err
	}
	if err := c.graph.Insert(ctx, slot, vector); err != nil {
		return vecerr.Wrap(vecerr.KindInvariantViolation, "collection.Insert", "graph insert failed after durable write", err)
	}
	if err := c.md.Insert(id, slot, attrs); err != nil {
		return err
	}

	c.mutationsSinceCheckpoint++
	metrics.RequestsTotal.WithLabelValues("insert", "ok").Inc()
	return nil
}

// BatchInsert inserts many vectors as a single durability unit: all
// records are appended before the single fsync that covers the whole
// batch, amortizing the fsync cost vs. one Insert call per item. The
// batch is all-or-nothing — if any item is invalid, nothing is applied.
type BatchItem struct {
	ID         uuid.UUID
	Vector     []float32
	Attributes map[string]any
}

func (c *Collection) BatchInsert(ctx context.Context, items []BatchItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		if err := c.checkDimension(it.Vector); err != nil {
			return err
		}
		if _, ok := c.md.Slot(it.ID); ok {
			return vecerr.New(vecerr.KindAlreadyExists, "collection.BatchInsert", "external id already exists")
		}
		if seen[it.ID] {
			return vecerr.New(vecerr.KindAlreadyExists, "collection.BatchInsert", "duplicate external id within batch")
		}
		seen[it.ID] = true
	}

	slots := make([]uint64, len(items))
	for i, it := range items {
		slot, err := c.vs.Allocate()
		if err != nil {
			return err
		}
		slots[i] = slot
		payload, err := encodeMutation(it.ID, slot, it.Vector, it.Attributes)
		if err != nil {
			return err
		}
		if _, err := c.w.Append(wal.RecordInsert, payload); err != nil {
			return err
		}
	}
	if err := c.waitForDurable(); err != nil {
		return err
	}
	metrics.WalAppendsTotal.WithLabelValues(c.name, "ok").Add(float64(len(items)))

	for i, it := range items {
		if err := c.vs.Put(slots[i], it.Vector); err != nil {
			return err
		}
		if err := c.graph.Insert(ctx, slots[i], it.Vector); err != nil {
			return vecerr.Wrap(vecerr.KindInvariantViolation, "collection.BatchInsert", "graph insert failed after durable write", err)
		}
		if err := c.md.Insert(it.ID, slots[i], it.Attributes); err != nil {
			return err
		}
	}
	c.mutationsSinceCheckpoint += len(items)
	metrics.RequestsTotal.WithLabelValues("batch_insert", "ok").Inc()
	return nil
}

// Update replaces the vector and attributes stored under external_id,
// reusing its existing slot. Fails with NotFound if external_id is
// unknown or tombstoned.
func (c *Collection) Update(ctx context.Context, id uuid.UUID, vector []float32, attrs map[string]any) error {
	if err := c.checkDimension(vector); err != nil {
		metrics.RequestsTotal.WithLabelValues("update", "error").Inc()
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.md.Slot(id)
	if !ok {
		metrics.RequestsTotal.WithLabelValues("update", "error").Inc()
		return vecerr.New(vecerr.KindNotFound, "collection.Update", "external id not found")
	}

	payload, err := encodeMutation(id, slot, vector, attrs)
	if err != nil {
		return err
	}
	if _, err := c.w.Append(wal.RecordUpdate, payload); err != nil {
		return err
	}
	if err := c.waitForDurable(); err != nil {
		return err
	}
	metrics.WalAppendsTotal.WithLabelValues(c.name, "ok").Inc()

	if err := c.vs.Put(slot, vector); err != nil {
		return err
	}
	if err := c.graph.Update(ctx, slot, vector); err != nil {
		return vecerr.Wrap(vecerr.KindInvariantViolation, "collection.Update", "graph update failed after durable write", err)
	}
	if err := c.md.SetAttributes(id, attrs); err != nil {
		return err
	}

	c.mutationsSinceCheckpoint++
	metrics.RequestsTotal.WithLabelValues("update", "ok").Inc()
	return nil
}

// Delete tombstones external_id. The underlying vector-store slot is
// not freed until a background Compact fully repairs the graph's
// in-edges to it.
func (c *Collection) Delete(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, err := c.md.Delete(id)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("delete", "error").Inc()
		return vecerr.New(vecerr.KindNotFound, "collection.Delete", "external id not found")
	}

	payload := encodeDelete(id)
	if _, err := c.w.Append(wal.RecordDelete, payload); err != nil {
		return err
	}
	if err := c.waitForDurable(); err != nil {
		return err
	}
	metrics.WalAppendsTotal.WithLabelValues(c.name, "ok").Inc()

	if err := c.graph.Delete(slot); err != nil {
		return vecerr.Wrap(vecerr.KindInvariantViolation, "collection.Delete", "graph delete failed after durable write", err)
	}

	c.mutationsSinceCheckpoint++
	metrics.RequestsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

// Get returns the live vector and attributes stored under external_id.
func (c *Collection) Get(id uuid.UUID) ([]float32, map[string]any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	slot, ok := c.md.Slot(id)
	if !ok {
		return nil, nil, vecerr.New(vecerr.KindNotFound, "collection.Get", "external id not found")
	}
	vector, ok, err := c.vs.Get(slot)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, vecerr.New(vecerr.KindNotFound, "collection.Get", "external id not found")
	}
	return vector, c.md.Attributes(slot), nil
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	ID         uuid.UUID
	Distance   float32
	Attributes map[string]any
}

// Search runs HNSW search for query and returns up to k live results,
// closest first. ef <= 0 uses the collection's default. filter is an
// equality map applied as a post-filter before truncation to k; when
// set, the underlying graph search is widened by
// SearchFilterOverfetch to reduce the chance of returning fewer than
// k results.
func (c *Collection) Search(ctx context.Context, query []float32, k, ef int, filter map[string]any) ([]SearchResult, error) {
	if err := c.checkDimension(query); err != nil {
		metrics.RequestsTotal.WithLabelValues("search", "error").Inc()
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if ef <= 0 {
		ef = c.cfg.EfSearchDefault
	}

	fetchK := k
	if len(filter) > 0 {
		ef *= c.cfg.SearchFilterOverfetch
		fetchK = k * c.cfg.SearchFilterOverfetch
		if fetchK > ef {
			fetchK = ef
		}
		if fetchK < k {
			fetchK = k
		}
	}

	raw, err := c.graph.Search(ctx, query, fetchK, ef)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("search", "error").Inc()
		return nil, err
	}
	metrics.HnswSearchNodesVisited.WithLabelValues(c.name).Observe(float64(len(raw)))

	out := make([]SearchResult, 0, k)
	for _, r := range raw {
		id, ok := c.md.ID(r.Slot)
		if !ok {
			continue // repaired/reclaimed between graph search and metadata lookup
		}
		attrs := c.md.Attributes(r.Slot)
		if len(filter) > 0 && !matchesFilter(attrs, filter) {
			continue
		}
		out = append(out, SearchResult{ID: id, Distance: r.Dist, Attributes: attrs})
		if len(out) == k {
			break
		}
	}
	metrics.RequestsTotal.WithLabelValues("search", "ok").Inc()
	return out, nil
}

func matchesFilter(attrs map[string]any, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := attrs[k]
		if !ok {
			return false
		}
		gotJSON, _ := json.Marshal(got)
		wantJSON, _ := json.Marshal(want)
		if string(gotJSON) != string(wantJSON) {
			return false
		}
	}
	return true
}

// Stats summarizes the collection for the stats() operation.
type Stats struct {
	LiveCount      int
	TombstoneCount int
	BytesResident  uint64
	LayerHistogram map[int]int
}

func (c *Collection) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	capacity, used := c.vs.Stats()
	metrics.VectorStoreCapacitySlots.WithLabelValues(c.name).Set(float64(capacity))
	metrics.VectorStoreUsedSlots.WithLabelValues(c.name).Set(float64(used))

	hstats := c.graph.Stats()
	metrics.HnswNodeCount.WithLabelValues(c.name).Set(float64(hstats.LiveCount))
	metrics.HnswTombstoneCount.WithLabelValues(c.name).Set(float64(hstats.TombstoneCount))

	return Stats{
		LiveCount:      hstats.LiveCount,
		TombstoneCount: hstats.TombstoneCount,
		BytesResident:  capacity * uint64(c.vs.Dimension()*4+8),
		LayerHistogram: hstats.LayerHistogram,
	}
}

// CompactResult reports what a Compact run reclaimed.
type CompactResult struct {
	ReclaimedSlots int
}

// Compact runs the HNSW background repair pass, frees the
// vector-store slots of any tombstones it fully reclaims, and writes
// a checkpoint record so a subsequent recovery can eventually skip
// the repaired history once the log is compacted.
func (c *Collection) Compact(ctx context.Context) (CompactResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	reclaimed, err := c.graph.Repair(ctx)
	if err != nil {
		metrics.CompactionsTotal.WithLabelValues(c.name, "error").Inc()
		return CompactResult{}, err
	}
	for _, slot := range reclaimed {
		if err := c.vs.Free(slot); err != nil {
			return CompactResult{}, err
		}
	}
	if _, err := c.w.Append(wal.RecordCheckpoint, nil); err != nil {
		return CompactResult{}, err
	}
	if err := c.w.Sync(); err != nil {
		return CompactResult{}, err
	}
	c.mutationsSinceCheckpoint = 0

	metrics.CompactionsTotal.WithLabelValues(c.name, "ok").Inc()
	metrics.CompactionDurationSeconds.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	return CompactResult{ReclaimedSlots: len(reclaimed)}, nil
}

// Close stops the background sync loop and releases the collection's
// file handles. Calling Close again after it has returned is a no-op.
func (c *Collection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.stopSync:
		return nil // already closed
	default:
	}
	close(c.stopSync)
	c.syncWg.Wait()
	metrics.CollectionsOpen.Dec()
	if err := c.w.Close(); err != nil {
		c.vs.Close()
		return err
	}
	return c.vs.Close()
}

// Name returns the collection's name.
func (c *Collection) Name() string { return c.name }

// Dimension returns the collection's fixed vector width.
func (c *Collection) Dimension() int { return c.cfg.Dimension }
