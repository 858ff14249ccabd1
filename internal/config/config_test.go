package config

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	testConfigPath := path.Join(tmpDir, "test_config.yaml")

	testConfig := `
data_dir: ../../
wal_sync_mode: always
wal_fsync_interval_ms: 50
memory_map_initial_capacity: 8192
search_filter_overfetch: 8
worker_threads: 2
server_addr: ":9090"
log_level: debug
hnsw:
  m: 32
  ef_construction: 400
  ef_search: 128
`
	err := os.WriteFile(testConfigPath, []byte(testConfig), 0644)
	assert.NoError(t, err)

	cfg, err := FromFile(testConfigPath)
	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "../../", cfg.DataDir)
	assert.Equal(t, "always", cfg.WalSyncMode)
	assert.Equal(t, 50, cfg.WalFsyncIntervalMs)
	assert.Equal(t, 8192, cfg.VectorStoreInitialSlots)
	assert.Equal(t, 8, cfg.SearchFilterOverfetch)
	assert.Equal(t, 2, cfg.WorkerThreads)
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 32, cfg.HNSW.M)
	assert.Equal(t, 400, cfg.HNSW.EfConstruction)
	assert.Equal(t, 128, cfg.HNSW.EfSearch)

	cfg, err = FromFile("non_existent_file.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestNewConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewConfig(dir)
	assert.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "interval", cfg.WalSyncMode)
	assert.Equal(t, 200, cfg.WalFsyncIntervalMs)
	assert.Equal(t, 4096, cfg.VectorStoreInitialSlots)
}
