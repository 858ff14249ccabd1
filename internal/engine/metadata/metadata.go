// Package metadata holds the bidirectional mapping between a
// collection's caller-facing external ids and the internal vector-store
// slots they occupy, plus each vector's attribute payload. It is pure
// in-memory state: durability comes from the WAL, and a collection
// rebuilds a fresh Store by replaying Insert/Update/Delete records in
// order on open. Callers (internal/engine/collection) are responsible
// for serializing access — this type has no locking of its own.
package metadata

import (
	"github.com/google/uuid"

	vecerr "github.com/rdmurugan/d-vecDB/pkg/errors"
)

// Store is the in-memory external_id <-> slot index plus per-slot
// attributes.
type Store struct {
	idToSlot   map[uuid.UUID]uint64
	slotToID   map[uint64]uuid.UUID
	attributes map[uint64]map[string]any
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		idToSlot:   make(map[uuid.UUID]uint64),
		slotToID:   make(map[uint64]uuid.UUID),
		attributes: make(map[uint64]map[string]any),
	}
}

// Insert records a brand-new id -> slot mapping. It fails with
// AlreadyExists if id is already present.
func (s *Store) Insert(id uuid.UUID, slot uint64, attrs map[string]any) error {
	if _, exists := s.idToSlot[id]; exists {
		return vecerr.New(vecerr.KindAlreadyExists, "metadata.Insert", "external id already exists")
	}
	s.idToSlot[id] = slot
	s.slotToID[slot] = id
	s.attributes[slot] = attrs
	return nil
}

// Slot returns the slot an external id currently occupies.
func (s *Store) Slot(id uuid.UUID) (uint64, bool) {
	slot, ok := s.idToSlot[id]
	return slot, ok
}

// ID returns the external id occupying slot.
func (s *Store) ID(slot uint64) (uuid.UUID, bool) {
	id, ok := s.slotToID[slot]
	return id, ok
}

// Attributes returns the attribute payload stored for slot. The
// returned map must not be mutated by the caller; use SetAttributes.
func (s *Store) Attributes(slot uint64) map[string]any {
	return s.attributes[slot]
}

// SetAttributes replaces the attribute payload for an existing id
// without moving its slot.
func (s *Store) SetAttributes(id uuid.UUID, attrs map[string]any) error {
	slot, ok := s.idToSlot[id]
	if !ok {
		return vecerr.New(vecerr.KindNotFound, "metadata.SetAttributes", "external id not found")
	}
	s.attributes[slot] = attrs
	return nil
}

// Delete removes id's mapping and returns the slot it had occupied so
// the caller can free it in the vector store and tombstone it in the
// graph.
func (s *Store) Delete(id uuid.UUID) (uint64, error) {
	slot, ok := s.idToSlot[id]
	if !ok {
		return 0, vecerr.New(vecerr.KindNotFound, "metadata.Delete", "external id not found")
	}
	delete(s.idToSlot, id)
	delete(s.slotToID, slot)
	delete(s.attributes, slot)
	return slot, nil
}

// Reassign moves id from its current slot to newSlot and replaces its
// attributes. The collection calls it when replaying an Update record
// for an id that is already mapped; a live Update keeps the slot and
// calls SetAttributes instead (see internal/engine/collection).
func (s *Store) Reassign(id uuid.UUID, newSlot uint64, attrs map[string]any) (oldSlot uint64, err error) {
	oldSlot, ok := s.idToSlot[id]
	if !ok {
		return 0, vecerr.New(vecerr.KindNotFound, "metadata.Reassign", "external id not found")
	}
	delete(s.slotToID, oldSlot)
	delete(s.attributes, oldSlot)
	s.idToSlot[id] = newSlot
	s.slotToID[newSlot] = id
	s.attributes[newSlot] = attrs
	return oldSlot, nil
}

// Count returns the number of live external ids.
func (s *Store) Count() int { return len(s.idToSlot) }

// Range iterates every live (id, slot) pair in unspecified order,
// stopping early if fn returns false.
func (s *Store) Range(fn func(id uuid.UUID, slot uint64) bool) {
	for id, slot := range s.idToSlot {
		if !fn(id, slot) {
			return
		}
	}
}
