// Package config loads the daemon's configuration: the vector
// engine's storage, durability and index defaults, plus the HTTP
// server and logging settings layered over them. Values come from a
// YAML file (gopkg.in/yaml.v3) with sane defaults for anything the
// file omits.
package config

import (
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// HNSWConfig holds graph construction/search values read from the YAML
// file. cmd/vecdbd passes only DataDir to the catalog, so these and the
// other engine fields of Config are loaded but not applied: a
// collection takes its settings from its create request and otherwise
// from the built-in defaults of internal/engine/collection and
// internal/engine/hnsw, which hold the same numbers as defaultConfig.
type HNSWConfig struct {
	M              int `yaml:"m"`
	EfConstruction int `yaml:"ef_construction"`
	EfSearch       int `yaml:"ef_search"`
}

type Config struct {
	// Vector engine.
	DataDir                 string     `yaml:"data_dir"`
	WalSyncMode             string     `yaml:"wal_sync_mode"` // "always" or "interval"
	WalFsyncIntervalMs      int        `yaml:"wal_fsync_interval_ms"`
	VectorStoreInitialSlots int        `yaml:"memory_map_initial_capacity"`
	HNSW                    HNSWConfig `yaml:"hnsw"`
	SearchFilterOverfetch   int        `yaml:"search_filter_overfetch"`
	WorkerThreads           int        `yaml:"worker_threads"`

	// Server/CLI collaborators.
	ServerAddr string `yaml:"server_addr"`
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
}

type Option func(*Config)

func defaultConfig(dir string) *Config {
	return &Config{
		DataDir:                 dir,
		WalSyncMode:             "interval",
		WalFsyncIntervalMs:      200,
		VectorStoreInitialSlots: 4096,
		HNSW: HNSWConfig{
			M:              16,
			EfConstruction: 200,
			EfSearch:       64,
		},
		SearchFilterOverfetch: 4,
		WorkerThreads:         runtime.NumCPU(),

		ServerAddr: ":8080",
		LogLevel:   "info",
	}
}

// NewConfig builds a Config rooted at dir with the engine's defaults,
// applying any functional overrides, and ensures dir exists so the
// catalog can scan it immediately.
func NewConfig(dir string, opts ...Option) (*Config, error) {
	c := defaultConfig(dir)
	for _, opt := range opts {
		opt(c)
	}
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return nil, err
	}
	return c, nil
}

// FromFile loads a Config from a YAML file, layering it over the
// default values so a partial file only overrides what it mentions.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := defaultConfig(".")
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return nil, err
	}
	return c, nil
}
