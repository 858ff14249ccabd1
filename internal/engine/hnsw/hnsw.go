// Package hnsw implements a hierarchical navigable small-world graph:
// a multi-layer proximity graph giving logarithmic-expected-time
// approximate K-NN search. The graph holds no vector data itself —
// nodes are addressed by vector-store slot id and distances are
// computed by fetching vectors through a VectorSource, so the graph
// can be thrown away and rebuilt from the vector store and WAL on
// recovery without a second durability path.
package hnsw

import (
	"container/heap"
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/rdmurugan/d-vecDB/internal/engine/distance"
	vecerr "github.com/rdmurugan/d-vecDB/pkg/errors"
)

// VectorSource resolves a slot id to its stored vector. Implementations
// are expected to be cheap, in-process reads (a vectorstore.Store).
type VectorSource interface {
	Vector(slot uint64) ([]float32, error)
}

// Config fixes a graph's construction and search parameters for its
// whole lifetime; changing M or MaxLayer after vectors exist would
// invalidate the existing topology.
type Config struct {
	M              int // max neighbors per node above layer 0
	EfConstruction int // candidate list width used while inserting
	EfSearchDefault int
	MaxLayer       int // hard cap on assigned layer, default 16
}

func (c Config) withDefaults() Config {
	if c.M <= 0 {
		c.M = 16
	}
	if c.EfConstruction <= 0 {
		c.EfConstruction = 200
	}
	if c.EfSearchDefault <= 0 {
		c.EfSearchDefault = 64
	}
	if c.MaxLayer <= 0 {
		c.MaxLayer = 16
	}
	return c
}

// node is the flat, cyclic-reference-free graph record: neighbors are
// slot ids, never pointers, so nodes never own each other.
type node struct {
	layer      int
	neighbors  [][]uint64 // neighbors[l] for l in [0, layer]
	tombstoned bool
}

// Graph is a per-collection HNSW index. All state is in-memory; it is
// protected by a single readers-writer lock: readers hold it shared for
// the duration of a search, and Insert, Update, Delete and Repair hold
// it exclusively for their whole run, edge construction included; no
// part of a write is staged outside the lock.
type Graph struct {
	mu   sync.RWMutex
	cfg  Config
	ml   float64
	dist distance.Func
	src  VectorSource

	nodes          map[uint64]*node
	entryPoint     *uint64
	maxActiveLayer int

	rnd *rand.Rand
}

// New creates an empty graph. kind selects the distance kernel used
// for every operation on this graph for its lifetime.
func New(cfg Config, kind distance.Kind, src VectorSource) *Graph {
	cfg = cfg.withDefaults()
	return &Graph{
		cfg:   cfg,
		ml:    1 / math.Log(float64(cfg.M)),
		dist:  distance.For(kind),
		src:   src,
		nodes: make(map[uint64]*node),
		rnd:   rand.New(rand.NewSource(1)),
	}
}

type candidate struct {
	slot uint64
	dist float32
}

func less(a, b candidate) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.slot < b.slot
}

// minHeap orders candidates closest-first; used for the exploration frontier.
type minHeap []candidate

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return less(h[i], h[j]) }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// maxHeap orders candidates farthest-first; used to track the current
// best-ef result set so the farthest can be evicted cheaply.
type maxHeap []candidate

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return less(h[j], h[i]) }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (g *Graph) distTo(query []float32, slot uint64) (float32, error) {
	v, err := g.src.Vector(slot)
	if err != nil {
		return 0, err
	}
	return g.dist(query, v)
}

func (g *Graph) randomLevel() int {
	u := g.rnd.Float64()
	for u == 0 {
		u = g.rnd.Float64()
	}
	level := int(math.Floor(-math.Log(u) * g.ml))
	if level > g.cfg.MaxLayer {
		level = g.cfg.MaxLayer
	}
	return level
}

// cancelCheckInterval is how often, in expanded candidates, a beam
// search checks ctx for cancellation — cheap enough not to matter, but
// frequent enough that a cancelled query returns promptly.
const cancelCheckInterval = 64

// greedyDescend performs 1-best search for query starting at (ep, epDist)
// confined to layer, returning the closest node found.
func (g *Graph) greedyDescend(ctx context.Context, query []float32, ep uint64, epDist float32, layer int) (uint64, float32, error) {
	improved := true
	expansions := 0
	for improved {
		improved = false
		n := g.nodes[ep]
		if layer > len(n.neighbors)-1 {
			break
		}
		for _, nb := range n.neighbors[layer] {
			expansions++
			if expansions%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return ep, epDist, err
				}
			}
			d, err := g.distTo(query, nb)
			if err != nil {
				return ep, epDist, err
			}
			if d < epDist || (d == epDist && nb < ep) {
				ep, epDist = nb, d
				improved = true
			}
		}
	}
	return ep, epDist, nil
}

// searchLayer runs a candidate-list beam search of width ef at layer,
// starting from entryPoints, and returns up to ef results sorted
// closest-first. Tombstoned nodes are traversed (they still
// participate in connectivity) but are never filtered here — callers
// filter tombstones out of the final, truncated result set.
func (g *Graph) searchLayer(ctx context.Context, query []float32, entryPoints []uint64, ef, layer int) ([]candidate, error) {
	visited := make(map[uint64]bool, ef*2)
	var frontier minHeap
	var results maxHeap

	for _, ep := range entryPoints {
		if visited[ep] {
			continue
		}
		visited[ep] = true
		d, err := g.distTo(query, ep)
		if err != nil {
			return nil, err
		}
		c := candidate{ep, d}
		frontier = append(frontier, c)
		results = append(results, c)
	}
	heap.Init(&frontier)
	heap.Init(&results)

	expansions := 0
	for frontier.Len() > 0 {
		cur := heap.Pop(&frontier).(candidate)
		if results.Len() >= ef {
			worst := results[0]
			if cur.dist > worst.dist || (cur.dist == worst.dist && cur.slot > worst.slot) {
				break
			}
		}

		n, ok := g.nodes[cur.slot]
		if !ok || layer > len(n.neighbors)-1 {
			continue
		}
		for _, nb := range n.neighbors[layer] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			expansions++
			if expansions%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			d, err := g.distTo(query, nb)
			if err != nil {
				return nil, err
			}
			nc := candidate{nb, d}
			if results.Len() < ef {
				heap.Push(&frontier, nc)
				heap.Push(&results, nc)
			} else if worst := results[0]; nc.dist < worst.dist || (nc.dist == worst.dist && nc.slot < worst.slot) {
				heap.Push(&frontier, nc)
				heap.Push(&results, nc)
				heap.Pop(&results)
			}
		}
	}

	out := make([]candidate, len(results))
	copy(out, results)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

// selectNeighborsHeuristic implements the heuristic selector from the
// design: walk candidates in increasing distance from query and admit
// c only if no already-admitted neighbor is strictly closer to c than
// query is, capping at m admissions.
func (g *Graph) selectNeighborsHeuristic(candidates []candidate, m int) ([]uint64, error) {
	sorted := make([]candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	selected := make([]candidate, 0, m)
	for _, c := range sorted {
		if len(selected) >= m {
			break
		}
		admit := true
		for _, s := range selected {
			cv, err := g.src.Vector(c.slot)
			if err != nil {
				return nil, err
			}
			sv, err := g.src.Vector(s.slot)
			if err != nil {
				return nil, err
			}
			dcs, err := g.dist(cv, sv)
			if err != nil {
				return nil, err
			}
			if dcs < c.dist {
				admit = false
				break
			}
		}
		if admit {
			selected = append(selected, c)
		}
	}
	out := make([]uint64, len(selected))
	for i, c := range selected {
		out[i] = c.slot
	}
	return out, nil
}

func (g *Graph) capFor(layer int) int {
	if layer == 0 {
		return g.cfg.M * 2
	}
	return g.cfg.M
}

// Insert adds a brand-new node at slot holding vector. Callers must
// have already written vector into the vector store at slot, since
// every distance computation resolves through VectorSource.
func (g *Graph) Insert(ctx context.Context, slot uint64, vector []float32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[slot]; exists {
		return vecerr.New(vecerr.KindInvariantViolation, "hnsw.Insert", "slot already present in graph")
	}

	level := g.randomLevel()
	n := &node{layer: level, neighbors: make([][]uint64, level+1)}
	g.nodes[slot] = n

	if g.entryPoint == nil {
		ep := slot
		g.entryPoint = &ep
		g.maxActiveLayer = level
		return nil
	}

	ep := *g.entryPoint
	epDist, err := g.distTo(vector, ep)
	if err != nil {
		return err
	}

	for l := g.maxActiveLayer; l > level; l-- {
		ep, epDist, err = g.greedyDescend(ctx, vector, ep, epDist, l)
		if err != nil {
			return err
		}
	}

	entrySet := []uint64{ep}
	top := g.maxActiveLayer
	if level < top {
		top = level
	}
	for l := top; l >= 0; l-- {
		cands, err := g.searchLayer(ctx, vector, entrySet, g.cfg.EfConstruction, l)
		if err != nil {
			return err
		}
		neighbors, err := g.selectNeighborsHeuristic(cands, g.capFor(l))
		if err != nil {
			return err
		}
		n.neighbors[l] = neighbors

		for _, nb := range neighbors {
			if err := g.addEdgeAndPrune(nb, slot, l); err != nil {
				return err
			}
		}

		entrySet = make([]uint64, len(cands))
		for i, c := range cands {
			entrySet[i] = c.slot
		}
	}

	if level > g.maxActiveLayer {
		ep := slot
		g.entryPoint = &ep
		g.maxActiveLayer = level
	}
	return nil
}

// addEdgeAndPrune adds a back-edge from -> to at layer, re-running the
// heuristic selector on from's neighbor list if it now exceeds its cap.
func (g *Graph) addEdgeAndPrune(from, to uint64, layer int) error {
	n, ok := g.nodes[from]
	if !ok || layer > len(n.neighbors)-1 {
		return vecerr.New(vecerr.KindInvariantViolation, "hnsw.addEdgeAndPrune", "neighbor missing expected layer")
	}
	n.neighbors[layer] = append(n.neighbors[layer], to)

	cap := g.capFor(layer)
	if len(n.neighbors[layer]) <= cap {
		return nil
	}

	fromVec, err := g.src.Vector(from)
	if err != nil {
		return err
	}
	cands := make([]candidate, 0, len(n.neighbors[layer]))
	for _, nb := range n.neighbors[layer] {
		d, err := g.distTo(fromVec, nb)
		if err != nil {
			return err
		}
		cands = append(cands, candidate{nb, d})
	}
	pruned, err := g.selectNeighborsHeuristic(cands, cap)
	if err != nil {
		return err
	}
	n.neighbors[layer] = pruned
	return nil
}

// Result is a single search hit.
type Result struct {
	Slot uint64
	Dist float32
}

// Search returns up to K live (non-tombstoned) nearest neighbors of
// query. ef widens the layer-0 candidate list beyond K for better
// recall; if ef < K, K is used instead.
func (g *Graph) Search(ctx context.Context, query []float32, k, ef int) ([]Result, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.entryPoint == nil {
		return nil, nil
	}
	if ef < k {
		ef = k
	}

	ep := *g.entryPoint
	epDist, err := g.distTo(query, ep)
	if err != nil {
		return nil, err
	}
	for l := g.maxActiveLayer; l >= 1; l-- {
		ep, epDist, err = g.greedyDescend(ctx, query, ep, epDist, l)
		if err != nil {
			return nil, err
		}
	}

	cands, err := g.searchLayer(ctx, query, []uint64{ep}, ef, 0)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, k)
	for _, c := range cands {
		if g.nodes[c.slot].tombstoned {
			continue
		}
		out = append(out, Result{Slot: c.slot, Dist: c.dist})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// Delete tombstones slot; its edges are retained so graph connectivity
// through it is preserved until Repair reclaims it.
func (g *Graph) Delete(slot uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[slot]
	if !ok {
		return vecerr.New(vecerr.KindInvariantViolation, "hnsw.Delete", "slot not present in graph")
	}
	n.tombstoned = true
	return nil
}

// Update rebuilds slot's edges in place for its new vector, reusing
// its existing layer assignment rather than drawing a fresh one.
func (g *Graph) Update(ctx context.Context, slot uint64, vector []float32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[slot]
	if !ok {
		return vecerr.New(vecerr.KindInvariantViolation, "hnsw.Update", "slot not present in graph")
	}

	for l, layerNeighbors := range n.neighbors {
		for _, nb := range layerNeighbors {
			if other, ok := g.nodes[nb]; ok && l <= len(other.neighbors)-1 {
				other.neighbors[l] = removeSlot(other.neighbors[l], slot)
			}
		}
	}
	level := n.layer
	n.neighbors = make([][]uint64, level+1)
	n.tombstoned = false

	if g.entryPoint == nil {
		ep := slot
		g.entryPoint = &ep
		g.maxActiveLayer = level
		return nil
	}

	ep := *g.entryPoint
	if ep == slot {
		if alt, ok := g.anyOtherLiveSlot(slot); ok {
			ep = alt
		} else {
			return nil // slot is the only node in the graph
		}
	}
	epDist, err := g.distTo(vector, ep)
	if err != nil {
		return err
	}
	for l := g.maxActiveLayer; l > level; l-- {
		ep, epDist, err = g.greedyDescend(ctx, vector, ep, epDist, l)
		if err != nil {
			return err
		}
	}

	entrySet := []uint64{ep}
	top := g.maxActiveLayer
	if level < top {
		top = level
	}
	for l := top; l >= 0; l-- {
		cands, err := g.searchLayer(ctx, vector, entrySet, g.cfg.EfConstruction, l)
		if err != nil {
			return err
		}
		neighbors, err := g.selectNeighborsHeuristic(cands, g.capFor(l))
		if err != nil {
			return err
		}
		n.neighbors[l] = neighbors
		for _, nb := range neighbors {
			if err := g.addEdgeAndPrune(nb, slot, l); err != nil {
				return err
			}
		}
		entrySet = make([]uint64, len(cands))
		for i, c := range cands {
			entrySet[i] = c.slot
		}
	}
	return nil
}

func (g *Graph) anyOtherLiveSlot(exclude uint64) (uint64, bool) {
	for slot, n := range g.nodes {
		if slot != exclude && !n.tombstoned {
			return slot, true
		}
	}
	return 0, false
}

func removeSlot(s []uint64, target uint64) []uint64 {
	out := s[:0]
	for _, v := range s {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// Repair scans tombstoned nodes and, for each in-edge pointing at one,
// tries to replace it with a live candidate drawn from a layer-0 beam
// search seeded at the referring node. A tombstoned slot is returned
// as reclaimed once every in-edge referencing it has been repaired.
func (g *Graph) Repair(ctx context.Context) ([]uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var reclaimed []uint64
	for slot, n := range g.nodes {
		if !n.tombstoned {
			continue
		}
		fullyRepaired := true
		for otherSlot, other := range g.nodes {
			if otherSlot == slot {
				continue
			}
			for l := range other.neighbors {
				for i, nb := range other.neighbors[l] {
					if nb != slot {
						continue
					}
					otherVec, err := g.src.Vector(otherSlot)
					if err != nil {
						return reclaimed, err
					}
					cands, err := g.searchLayer(ctx, otherVec, []uint64{otherSlot}, g.cfg.EfConstruction, 0)
					if err != nil {
						return reclaimed, err
					}
					replaced := false
					for _, c := range cands {
						if c.slot == otherSlot || c.slot == slot {
							continue
						}
						if cn, ok := g.nodes[c.slot]; ok && !cn.tombstoned {
							other.neighbors[l][i] = c.slot
							replaced = true
							break
						}
					}
					if !replaced {
						fullyRepaired = false
					}
				}
			}
		}
		if fullyRepaired {
			reclaimed = append(reclaimed, slot)
			delete(g.nodes, slot)
			if g.entryPoint != nil && *g.entryPoint == slot {
				if alt, ok := g.anyOtherLiveSlot(slot); ok {
					g.entryPoint = &alt
				} else {
					g.entryPoint = nil
					g.maxActiveLayer = 0
				}
			}
		}
	}
	return reclaimed, nil
}

// Stats summarizes the graph's current shape for the coordinator's
// stats() operation.
type Stats struct {
	LiveCount      int
	TombstoneCount int
	LayerHistogram map[int]int
}

func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := Stats{LayerHistogram: make(map[int]int)}
	for _, n := range g.nodes {
		if n.tombstoned {
			s.TombstoneCount++
		} else {
			s.LiveCount++
		}
		s.LayerHistogram[n.layer]++
	}
	return s
}

// Contains reports whether slot currently has a graph node, tombstoned
// or not — used by the coordinator to validate recovery invariants.
func (g *Graph) Contains(slot uint64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[slot]
	return ok
}
