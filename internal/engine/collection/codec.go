package collection

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/google/uuid"

	vecerr "github.com/rdmurugan/d-vecDB/pkg/errors"
)

// mutationPayload is the WAL wire format shared by Insert and Update
// records: id(16) slot(8) dim(4) vector(dim*4) attrsLen(4) attrsJSON.
// Carrying the slot assignment in the record (rather than recomputing
// it) is what makes replay deterministic — the vector store's free
// list is advanced once, at original-write time, not again on recovery.
func encodeMutation(id uuid.UUID, slot uint64, vector []float32, attrs map[string]any) ([]byte, error) {
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return nil, vecerr.Wrap(vecerr.KindInvalidArgument, "collection.encodeMutation", "attributes are not JSON-encodable", err)
	}

	buf := make([]byte, 16+8+4+len(vector)*4+4+len(attrsJSON))
	off := 0
	copy(buf[off:], id[:])
	off += 16
	binary.LittleEndian.PutUint64(buf[off:], slot)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(vector)))
	off += 4
	for _, v := range vector {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(attrsJSON)))
	off += 4
	copy(buf[off:], attrsJSON)
	return buf, nil
}

type mutation struct {
	ID     uuid.UUID
	Slot   uint64
	Vector []float32
	Attrs  map[string]any
}

func decodeMutation(payload []byte) (mutation, error) {
	if len(payload) < 16+8+4 {
		return mutation{}, vecerr.New(vecerr.KindCorruptRecord, "collection.decodeMutation", "mutation record too short")
	}
	var m mutation
	off := 0
	copy(m.ID[:], payload[off:off+16])
	off += 16
	m.Slot = binary.LittleEndian.Uint64(payload[off:])
	off += 8
	dim := int(binary.LittleEndian.Uint32(payload[off:]))
	off += 4
	if len(payload) < off+dim*4+4 {
		return mutation{}, vecerr.New(vecerr.KindCorruptRecord, "collection.decodeMutation", "mutation record truncated in vector section")
	}
	m.Vector = make([]float32, dim)
	for i := 0; i < dim; i++ {
		m.Vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off:]))
		off += 4
	}
	attrsLen := int(binary.LittleEndian.Uint32(payload[off:]))
	off += 4
	if len(payload) < off+attrsLen {
		return mutation{}, vecerr.New(vecerr.KindCorruptRecord, "collection.decodeMutation", "mutation record truncated in attributes section")
	}
	if attrsLen > 0 {
		if err := json.Unmarshal(payload[off:off+attrsLen], &m.Attrs); err != nil {
			return mutation{}, vecerr.Wrap(vecerr.KindCorruptRecord, "collection.decodeMutation", "attributes are not valid JSON", err)
		}
	}
	return m, nil
}

func encodeDelete(id uuid.UUID) []byte {
	buf := make([]byte, 16)
	copy(buf, id[:])
	return buf
}

func decodeDelete(payload []byte) (uuid.UUID, error) {
	var id uuid.UUID
	if len(payload) < 16 {
		return id, vecerr.New(vecerr.KindCorruptRecord, "collection.decodeDelete", "delete record too short")
	}
	copy(id[:], payload[:16])
	return id, nil
}
