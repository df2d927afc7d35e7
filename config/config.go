// Package config contains kiwistand node configuration definitions.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/attestate/kiwistand/delegation"
	"github.com/attestate/kiwistand/gossip"
	"github.com/attestate/kiwistand/p2p"
	"github.com/attestate/kiwistand/store"
	"github.com/attestate/kiwistand/syncer"
)

const (
	defaultDataDirName = "kiwistand"
	defaultNetwork     = "mainnet"

	// LevelDBBackend keeps trie nodes in goleveldb.
	LevelDBBackend = "leveldb"
	// PebbleBackend keeps trie nodes in pebble.
	PebbleBackend = "pebble"
)

// Config defines the top level configuration for a kiwistand node.
type Config struct {
	BaseConfig  `mapstructure:"main"`
	P2P         p2p.Config         `mapstructure:"p2p"`
	Store       store.Config       `mapstructure:"store"`
	Sync        syncer.Config      `mapstructure:"sync"`
	Roots       gossip.RootsConfig `mapstructure:"roots"`
	Delegations delegation.Config  `mapstructure:"delegations"`
	LOGGING     LoggerConfig       `mapstructure:"logging"`
}

// DataDir returns the absolute path to use for the node's data. This is the tilde-expanded
// path given in the config with a subfolder named after the network.
func (cfg *Config) DataDir() string {
	return filepath.Join(canonicalPath(cfg.DataDirParent), cfg.Network)
}

// Validate checks values that can't be checked while decoding.
func (cfg *Config) Validate() error {
	switch cfg.DatabaseBackend {
	case LevelDBBackend, PebbleBackend:
	default:
		return fmt.Errorf("unknown database backend %q", cfg.DatabaseBackend)
	}
	if cfg.Network == "" {
		return fmt.Errorf("network name is empty")
	}
	if err := cfg.P2P.Validate(); err != nil {
		return fmt.Errorf("p2p: %w", err)
	}
	return nil
}

// BaseConfig defines the default configuration options for the node.
type BaseConfig struct {
	DataDirParent string `mapstructure:"data-folder"`
	FileLock      string `mapstructure:"filelock"`
	ConfigFile    string `mapstructure:"config"`
	Preset        string `mapstructure:"preset"`

	// Network separates the data of nodes that never sync with each other.
	Network string `mapstructure:"network"`

	DatabaseBackend string `mapstructure:"db-backend"`

	// DatabaseCache is the cache size of the node database in MiB.
	DatabaseCache   int `mapstructure:"db-cache"`
	DatabaseHandles int `mapstructure:"db-handles"`

	// TrieCacheSize is the number of decoded trie nodes kept in memory.
	TrieCacheSize int `mapstructure:"trie-cache-size"`

	// MetaConnections is the number of pooled connections to the posts index.
	MetaConnections int `mapstructure:"meta-connections"`

	CollectMetrics  bool   `mapstructure:"metrics"`
	MetricsListener string `mapstructure:"metrics-listener"`
}

// DefaultConfig returns the default configuration for a kiwistand node.
func DefaultConfig() Config {
	return Config{
		BaseConfig:  defaultBaseConfig(),
		P2P:         p2p.DefaultConfig(),
		Store:       store.DefaultConfig(),
		Sync:        syncer.DefaultConfig(),
		Roots:       gossip.DefaultRootsConfig(),
		Delegations: delegation.DefaultConfig(),
		LOGGING:     DefaultLoggingConfig(),
	}
}

func defaultBaseConfig() BaseConfig {
	dataDir := filepath.Join(userHomeDir(), defaultDataDirName)
	return BaseConfig{
		DataDirParent:   dataDir,
		FileLock:        filepath.Join(os.TempDir(), "kiwistand.lock"),
		Network:         defaultNetwork,
		DatabaseBackend: LevelDBBackend,
		DatabaseCache:   64,
		DatabaseHandles: 256,
		TrieCacheSize:   1 << 16,
		MetaConnections: 8,
		MetricsListener: "127.0.0.1:9090",
	}
}

// LoadConfig loads the config file into vip. A missing file is an error.
func LoadConfig(fileLocation string, vip *viper.Viper) error {
	if fileLocation == "" {
		return nil
	}
	vip.SetConfigFile(fileLocation)
	if err := vip.ReadInConfig(); err != nil {
		return fmt.Errorf("can't load config at %s: %w", fileLocation, err)
	}
	return nil
}

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// canonicalPath expands a leading ~ and environment variables.
func canonicalPath(p string) string {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		p = filepath.Join(userHomeDir(), p[2:])
	}
	return filepath.Clean(os.ExpandEnv(p))
}
