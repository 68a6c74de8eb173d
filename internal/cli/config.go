package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/causalite/causalite/pkg/search"
)

// Config is the on-disk TOML configuration (causalite.toml). All fields are
// optional; command-line flags override file values.
//
//	[search]
//	algorithm = "boss"
//	penalty_discount = 2.0
//	num_starts = 4
//
//	[store]
//	backend = "file"
//
//	[store.redis]
//	addr = "localhost:6379"
type Config struct {
	Search SearchConfig `toml:"search"`
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
}

// SearchConfig supplies default search options.
type SearchConfig struct {
	Algorithm       string  `toml:"algorithm"`
	PenaltyDiscount float64 `toml:"penalty_discount"`
	NumStarts       int     `toml:"num_starts"`
	Seed            int64   `toml:"seed"`
	MaxParents      int     `toml:"max_parents"`
	MaxIterations   int     `toml:"max_iterations"`
	Alpha           float64 `toml:"alpha"`
	Depth           int     `toml:"depth"`
	MaxPathLength   int     `toml:"max_path_length"`
}

// StoreConfig selects the run-store backend.
type StoreConfig struct {
	Backend string      `toml:"backend"` // file (default), memory, redis, mongo
	Dir     string      `toml:"dir"`     // file backend directory
	Redis   RedisConfig `toml:"redis"`
	Mongo   MongoConfig `toml:"mongo"`
}

// RedisConfig configures the redis run store.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig configures the mongo run store.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// CacheConfig controls the search-result cache.
type CacheConfig struct {
	Disabled bool `toml:"disabled"`
}

// DefaultConfig returns the built-in defaults used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Algorithm: string(search.AlgorithmBOSS),
			NumStarts: 1,
		},
		Store: StoreConfig{Backend: "file"},
	}
}

// LoadConfig reads the TOML config file at path. An empty path tries the
// default location and silently falls back to DefaultConfig when the file
// does not exist; an explicit path that cannot be read is an error.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = filepath.Join(dir, "causalite.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}
