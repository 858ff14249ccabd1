package catalog

import (
	"encoding/json"
	"time"

	"github.com/rdmurugan/d-vecDB/internal/engine/distance"
)

// Manifest is the immutable-after-creation record of how a collection
// was configured. It is written once to the registry (and mirrored to
// a manifest.json inside the collection's own directory) and read back
// unchanged on every later Open — HNSW and distance parameters can
// never be changed for a collection's lifetime without invalidating
// its existing graph topology.
type Manifest struct {
	Name      string        `json:"name"`
	Dimension int           `json:"dimension"`
	Distance  distance.Kind `json:"distance"`

	M                      int `json:"m"`
	EfConstruction         int `json:"ef_construction"`
	EfSearchDefault        int `json:"ef_search_default"`
	MaxLayer               int `json:"max_layer"`
	SearchFilterOverfetch  int `json:"search_filter_overfetch"`
	VectorStoreInitialSlots int `json:"vector_store_initial_slots"`

	WalSyncMode        string `json:"wal_sync_mode"`
	WalFsyncIntervalMs int    `json:"wal_fsync_interval_ms"`

	CreatedAtUnix int64 `json:"created_at_unix"`
}

func (m Manifest) marshal() ([]byte, error) {
	return json.Marshal(m)
}

func unmarshalManifest(data []byte) (Manifest, error) {
	var m Manifest
	err := json.Unmarshal(data, &m)
	return m, err
}

// stampCreation fills CreatedAtUnix if unset. Split out from CreateCollection so
// tests can pass a fixed manifest without depending on wall-clock time.
func stampCreation(m Manifest, now time.Time) Manifest {
	if m.CreatedAtUnix == 0 {
		m.CreatedAtUnix = now.Unix()
	}
	return m
}
