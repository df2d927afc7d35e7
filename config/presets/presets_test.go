package presets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresetsValid(t *testing.T) {
	require.Equal(t, []string{"standalone", "testnet"}, Options())
	for _, name := range Options() {
		t.Run(name, func(t *testing.T) {
			conf, err := Get(name)
			require.NoError(t, err)
			require.NoError(t, conf.Validate())
			require.Equal(t, name, conf.Network)
		})
	}
}

func TestPresetIsCopied(t *testing.T) {
	conf, err := Get("standalone")
	require.NoError(t, err)
	conf.P2P.Listen[0] = "/ip4/10.0.0.1/tcp/1"

	again, err := Get("standalone")
	require.NoError(t, err)
	require.Equal(t, "/ip4/127.0.0.1/tcp/0", again.P2P.Listen[0])
}

func TestUnknownPreset(t *testing.T) {
	_, err := Get("mainnet")
	require.ErrorContains(t, err, "standalone, testnet")
}
