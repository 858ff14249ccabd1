// Package vectorstore is the memory-mapped slab that holds a
// collection's raw vector data. Vectors live at a stable slot index
// for their whole lifetime; the HNSW graph and metadata store both
// address vectors by slot, never by byte offset, so the slab can grow
// underneath them.
//
// On-disk layout:
//
//	[header: 64 bytes][slot 0][slot 1]...[slot capacity-1]
//
// Each slot is an 8-byte prefix (a 1-byte occupancy flag and 7 bytes of
// padding) followed by dimension*4 bytes of float32 components. Slots
// carry no tail padding, so a slot starts on an 8-byte boundary only
// when dimension is even.
package vectorstore

import (
	"encoding/binary"
	"math"
	"os"
	"sync"

	vecerr "github.com/rdmurugan/d-vecDB/pkg/errors"
)

const (
	magic       uint32 = 0x56454342 // "VECB"
	formatVersion uint32 = 1
	headerSize  = 64
	minCapacity = 4096
	occupancyPrefix = 8 // 1 flag byte + 7 padding bytes before the vector data
)

// Store is a growable, memory-mapped array of fixed-width vector slots.
type Store struct {
	mu   sync.RWMutex
	f    *os.File
	path string

	dimension  int
	slotSize   int // occupancyPrefix + dimension*4
	data       []byte
	capacity   uint64
	used       uint64
	generation uint64
	freeList   []uint64
}

// Open opens or creates the vector slab at path. initialSlots is only
// used on creation; an existing file keeps its stored capacity and
// dimension, and dimension is validated against the caller's expectation.
func Open(path string, dimension, initialSlots int) (*Store, error) {
	if initialSlots < minCapacity {
		initialSlots = minCapacity
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, vecerr.Wrap(vecerr.KindStoreIoError, "vectorstore.Open", "failed to open vector store file", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, vecerr.Wrap(vecerr.KindStoreIoError, "vectorstore.Open", "failed to stat vector store file", err)
	}

	s := &Store{f: f, path: path, dimension: dimension, slotSize: occupancyPrefix + dimension*4}

	if info.Size() == 0 {
		if err := s.initEmpty(uint64(initialSlots)); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		if err := s.openExisting(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) initEmpty(capacity uint64) error {
	total := headerSize + int64(capacity)*int64(s.slotSize)
	if err := s.f.Truncate(total); err != nil {
		return vecerr.Wrap(vecerr.KindStoreIoError, "vectorstore.initEmpty", "failed to allocate vector store file", err)
	}
	s.capacity = capacity
	s.used = 0
	s.generation = 1

	data, err := mmapFile(s.f, int(total))
	if err != nil {
		return vecerr.Wrap(vecerr.KindStoreIoError, "vectorstore.initEmpty", "failed to mmap vector store file", err)
	}
	s.data = data
	s.writeHeader()

	s.freeList = make([]uint64, capacity)
	for i := uint64(0); i < capacity; i++ {
		s.freeList[i] = capacity - 1 - i // pop from the tail, so slot 0 is allocated first
	}
	return nil
}

func (s *Store) openExisting() error {
	info, err := s.f.Stat()
	if err != nil {
		return vecerr.Wrap(vecerr.KindStoreIoError, "vectorstore.openExisting", "failed to stat vector store file", err)
	}
	if info.Size() < headerSize {
		return vecerr.New(vecerr.KindCorruptRecord, "vectorstore.openExisting", "vector store file shorter than header")
	}

	data, err := mmapFile(s.f, int(info.Size()))
	if err != nil {
		return vecerr.Wrap(vecerr.KindStoreIoError, "vectorstore.openExisting", "failed to mmap vector store file", err)
	}
	s.data = data

	gotMagic := binary.LittleEndian.Uint32(data[0:4])
	if gotMagic != magic {
		return vecerr.New(vecerr.KindCorruptRecord, "vectorstore.openExisting", "vector store header magic mismatch")
	}
	gotDim := binary.LittleEndian.Uint32(data[8:12])
	if int(gotDim) != s.dimension {
		return vecerr.New(vecerr.KindDimensionMismatch, "vectorstore.openExisting", "vector store dimension does not match collection dimension")
	}
	s.capacity = binary.LittleEndian.Uint64(data[16:24])
	s.used = binary.LittleEndian.Uint64(data[24:32])
	s.generation = binary.LittleEndian.Uint64(data[32:40])

	s.freeList = make([]uint64, 0, s.capacity-s.used)
	for slot := uint64(0); slot < s.capacity; slot++ {
		if !s.occupied(slot) {
			s.freeList = append(s.freeList, slot)
		}
	}
	return nil
}

func (s *Store) writeHeader() {
	binary.LittleEndian.PutUint32(s.data[0:4], magic)
	binary.LittleEndian.PutUint32(s.data[4:8], formatVersion)
	binary.LittleEndian.PutUint32(s.data[8:12], uint32(s.dimension))
	binary.LittleEndian.PutUint32(s.data[12:16], uint32(s.slotSize))
	binary.LittleEndian.PutUint64(s.data[16:24], s.capacity)
	binary.LittleEndian.PutUint64(s.data[24:32], s.used)
	binary.LittleEndian.PutUint64(s.data[32:40], s.generation)
}

func (s *Store) slotOffset(slot uint64) int {
	return headerSize + int(slot)*s.slotSize
}

func (s *Store) occupied(slot uint64) bool {
	off := s.slotOffset(slot)
	return s.data[off] == 1
}

// Dimension returns the fixed vector width this store was opened with.
func (s *Store) Dimension() int { return s.dimension }

// Stats returns the slab's current capacity and occupied slot count.
func (s *Store) Stats() (capacity, used uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capacity, s.used
}

// Generation returns the current remap generation, which increments
// every time the slab grows and its mmap region is replaced.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Allocate reserves a free slot and returns its index. It does not
// write vector data; callers must follow with Put.
func (s *Store) Allocate() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.freeList) == 0 {
		if err := s.grow(); err != nil {
			return 0, err
		}
	}
	slot := s.freeList[len(s.freeList)-1]
	s.freeList = s.freeList[:len(s.freeList)-1]
	s.used++
	binary.LittleEndian.PutUint64(s.data[24:32], s.used)
	return slot, nil
}

// grow doubles the slab's slot capacity, remapping the underlying
// file. Callers must hold mu.
func (s *Store) grow() error {
	newCapacity := s.capacity * 2
	if newCapacity < minCapacity {
		newCapacity = minCapacity
	}

	total := headerSize + int64(newCapacity)*int64(s.slotSize)
	if err := s.f.Truncate(total); err != nil {
		return vecerr.Wrap(vecerr.KindStoreIoError, "vectorstore.grow", "failed to extend vector store file", err)
	}
	if err := munmapFile(s.data); err != nil {
		return vecerr.Wrap(vecerr.KindStoreIoError, "vectorstore.grow", "failed to unmap vector store before growth", err)
	}
	data, err := mmapFile(s.f, int(total))
	if err != nil {
		return vecerr.Wrap(vecerr.KindStoreIoError, "vectorstore.grow", "failed to remap grown vector store", err)
	}
	s.data = data

	start := len(s.freeList)
	for slot := s.capacity; slot < newCapacity; slot++ {
		s.freeList = append(s.freeList, slot)
	}
	// Reverse the newly appended range so Allocate still pops ascending
	// slot ids first, matching the initial layout's ordering.
	reverseTail(s.freeList, start)

	s.capacity = newCapacity
	s.generation++
	binary.LittleEndian.PutUint64(s.data[16:24], s.capacity)
	binary.LittleEndian.PutUint64(s.data[32:40], s.generation)
	return nil
}

func reverseTail(s []uint64, from int) {
	i, j := from, len(s)-1
	for i < j {
		s[i], s[j] = s[j], s[i]
		i++
		j--
	}
}

// Put writes vec into slot and marks it occupied. len(vec) must equal
// Dimension().
func (s *Store) Put(slot uint64, vec []float32) error {
	if len(vec) != s.dimension {
		return vecerr.New(vecerr.KindDimensionMismatch, "vectorstore.Put", "vector length does not match store dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot >= s.capacity {
		return vecerr.New(vecerr.KindInvariantViolation, "vectorstore.Put", "slot index out of range")
	}
	off := s.slotOffset(slot)
	s.data[off] = 1
	body := s.data[off+occupancyPrefix : off+s.slotSize]
	for i, v := range vec {
		binary.LittleEndian.PutUint32(body[i*4:i*4+4], math.Float32bits(v))
	}
	return nil
}

// Get copies the vector stored at slot. ok is false if the slot is
// free (either never allocated or previously freed).
func (s *Store) Get(slot uint64) (vec []float32, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if slot >= s.capacity {
		return nil, false, vecerr.New(vecerr.KindInvariantViolation, "vectorstore.Get", "slot index out of range")
	}
	if !s.occupied(slot) {
		return nil, false, nil
	}
	off := s.slotOffset(slot)
	body := s.data[off+occupancyPrefix : off+s.slotSize]
	out := make([]float32, s.dimension)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4 : i*4+4]))
	}
	return out, true, nil
}

// Free releases slot back to the pool. It clears only the occupancy
// flag, not the vector bytes themselves — the slot's old contents are
// simply unreachable once nothing references its slot index, and a
// reclaimed slot is always fully overwritten by the next Put before
// anything can read it.
func (s *Store) Free(slot uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot >= s.capacity {
		return vecerr.New(vecerr.KindInvariantViolation, "vectorstore.Free", "slot index out of range")
	}
	if !s.occupied(slot) {
		return nil
	}
	s.data[s.slotOffset(slot)] = 0
	s.freeList = append(s.freeList, slot)
	s.used--
	binary.LittleEndian.PutUint64(s.data[24:32], s.used)
	return nil
}

// Sync flushes the mapped region to disk.
func (s *Store) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := msyncFile(s.data); err != nil {
		return vecerr.Wrap(vecerr.KindStoreIoError, "vectorstore.Sync", "failed to msync vector store", err)
	}
	return nil
}

// Close unmaps and closes the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := munmapFile(s.data); err != nil {
		s.f.Close()
		return vecerr.Wrap(vecerr.KindStoreIoError, "vectorstore.Close", "failed to unmap vector store", err)
	}
	return s.f.Close()
}
