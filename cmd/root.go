package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/attestate/kiwistand/config"
	"github.com/attestate/kiwistand/config/presets"
)

// AddFlags adds node flags to the flag set and returns the path of the config file.
func AddFlags(flagSet *pflag.FlagSet, cfg *config.Config) (configPath *string) {
	flagSet.StringVarP(&cfg.Preset, "preset", "p", cfg.Preset,
		fmt.Sprintf("preset overwrites default values of the config. options %+s", presets.Options()))

	/** ======================== BaseConfig Flags ========================== **/
	configPath = flagSet.StringP("config", "c", "", "load configuration from file")
	flagSet.StringVarP(&cfg.DataDirParent, "data-folder", "d",
		cfg.DataDirParent, "specify data directory for kiwistand")
	flagSet.StringVar(&cfg.FileLock, "filelock",
		cfg.FileLock, "filesystem lock to prevent running more than one instance")
	flagSet.StringVar(&cfg.Network, "network",
		cfg.Network, "name of the network, data of different networks is kept apart")
	flagSet.StringVar(&cfg.DatabaseBackend, "db-backend",
		cfg.DatabaseBackend, fmt.Sprintf("storage engine of the trie (%s or %s)", config.LevelDBBackend, config.PebbleBackend))
	flagSet.IntVar(&cfg.DatabaseCache, "db-cache",
		cfg.DatabaseCache, "cache size of the trie database in MiB")
	flagSet.IntVar(&cfg.TrieCacheSize, "trie-cache-size",
		cfg.TrieCacheSize, "number of decoded trie nodes kept in memory")
	flagSet.StringVar(&cfg.LOGGING.Encoder, "log-encoder",
		cfg.LOGGING.Encoder, "log as json instead of plain text")
	flagSet.BoolVar(&cfg.CollectMetrics, "metrics",
		cfg.CollectMetrics, "collect node metrics")
	flagSet.StringVar(&cfg.MetricsListener, "metrics-listener",
		cfg.MetricsListener, "address of the prometheus metrics endpoint")

	/** ======================== P2P Flags ========================== **/
	flagSet.StringSliceVar(&cfg.P2P.Listen, "listen",
		cfg.P2P.Listen, "multiaddresses to listen on")
	flagSet.StringSliceVar(&cfg.P2P.Bootnodes, "bootnodes",
		cfg.P2P.Bootnodes, "multiaddresses with peer ids of nodes to connect on start")
	flagSet.IntVar(&cfg.P2P.LowPeers, "low-peers",
		cfg.P2P.LowPeers, "low watermark for the number of connections")
	flagSet.IntVar(&cfg.P2P.HighPeers, "high-peers",
		cfg.P2P.HighPeers, "high watermark for the number of connections, once reached connections are pruned until low watermark remains")
	flagSet.IntVar(&cfg.P2P.MaxPeers, "max-peers",
		cfg.P2P.MaxPeers, "new connections are refused above this number of peers, 0 disables the limit")
	flagSet.BoolVar(&cfg.P2P.DisableNatPort, "disable-natport",
		cfg.P2P.DisableNatPort, "disable nat port-mapping (if enabled upnp protocol is used to negotiate external port with router)")
	flagSet.BoolVar(&cfg.P2P.DisableReusePort, "disable-reuseport",
		cfg.P2P.DisableReusePort, "disables SO_REUSEPORT for tcp sockets")

	/** ======================== Store Flags ========================== **/
	flagSet.DurationVar(&cfg.Store.MaxTimestampDelta, "max-timestamp-delta",
		cfg.Store.MaxTimestampDelta, "how far ahead of the local clock a record may be dated")
	flagSet.Int64Var(&cfg.Store.MinTimestamp, "min-timestamp",
		cfg.Store.MinTimestamp, "records dated before this unix time are rejected")
	flagSet.StringVar(&cfg.Delegations.Path, "delegations",
		cfg.Delegations.Path, "json file with the allowlist and delegations crawled from chain")
	flagSet.StringVar(&cfg.Delegations.URL, "delegations-url",
		cfg.Delegations.URL, "url serving the delegations document, preferred over the file")
	flagSet.DurationVar(&cfg.Delegations.Interval, "delegations-interval",
		cfg.Delegations.Interval, "how often delegations are reloaded")

	/** ======================== Sync Flags ========================== **/
	flagSet.DurationVar(&cfg.Sync.SessionTimeout, "session-timeout",
		cfg.Sync.SessionTimeout, "a sync session older than this can be taken over by another peer")
	flagSet.DurationVar(&cfg.Sync.RequestTimeout, "sync-request-timeout",
		cfg.Sync.RequestTimeout, "timeout of a single levels or leaves request")
	flagSet.IntVar(&cfg.Sync.MaxBatch, "sync-max-batch",
		cfg.Sync.MaxBatch, "maximum number of nodes in a single request")
	flagSet.DurationVar(&cfg.Roots.AnnounceInterval, "announce-interval",
		cfg.Roots.AnnounceInterval, "period of local root announcements, 0 disables them")
	flagSet.BoolVar(&cfg.Roots.AutoSync, "auto-sync",
		cfg.Roots.AutoSync, "sync with peers that announce a different root")
	flagSet.DurationVar(&cfg.Roots.Debounce, "sync-debounce",
		cfg.Roots.Debounce, "minimal delay between sessions started by the same announcement")

	return configPath
}
