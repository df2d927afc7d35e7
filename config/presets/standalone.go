package presets

import (
	"os"
	"path/filepath"
	"time"

	"github.com/attestate/kiwistand/config"
)

func init() {
	register("standalone", standalone())
	register("testnet", testnet())
}

// standalone runs a single node on loopback without a chain crawler.
func standalone() config.Config {
	conf := config.DefaultConfig()
	conf.Network = "standalone"
	conf.DataDirParent = filepath.Join(os.TempDir(), "kiwistand")
	conf.FileLock = filepath.Join(conf.DataDirParent, "LOCK")
	conf.DatabaseBackend = config.PebbleBackend

	conf.P2P.Listen = []string{"/ip4/127.0.0.1/tcp/0"}
	conf.P2P.DisableNatPort = true
	conf.P2P.Bootnodes = nil

	conf.Roots.AnnounceInterval = 5 * time.Second
	conf.Roots.Debounce = 10 * time.Second

	conf.LOGGING.SyncLoggerLevel = "debug"
	conf.LOGGING.GossipLoggerLevel = "debug"
	return conf
}

func testnet() config.Config {
	conf := config.DefaultConfig()
	conf.Network = "testnet"
	conf.P2P.Listen = []string{"/ip4/0.0.0.0/tcp/53463"}
	conf.Roots.AnnounceInterval = 10 * time.Second
	conf.Sync.SessionTimeout = time.Minute
	return conf
}
