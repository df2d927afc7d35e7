package delegation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/attestate/kiwistand/delegation"
	"github.com/attestate/kiwistand/log/logtest"
)

var (
	identity = common.HexToAddress("0x1111111111111111111111111111111111111111")
	delegate = common.HexToAddress("0x2222222222222222222222222222222222222222")
	revoked  = common.HexToAddress("0x3333333333333333333333333333333333333333")
	orphan   = common.HexToAddress("0x4444444444444444444444444444444444444444")
	stranger = common.HexToAddress("0x5555555555555555555555555555555555555555")
)

const content = `{
  "allowlist": ["0x1111111111111111111111111111111111111111"],
  "delegations": [
    {"delegate": "0x2222222222222222222222222222222222222222", "identity": "0x1111111111111111111111111111111111111111"},
    {"delegate": "0x3333333333333333333333333333333333333333", "identity": "0x1111111111111111111111111111111111111111", "revoked": true},
    {"delegate": "0x4444444444444444444444444444444444444444", "identity": "0x5555555555555555555555555555555555555555"}
  ]
}`

func TestEligible(t *testing.T) {
	snap := delegation.NewSnapshot([]common.Address{identity}, []delegation.Delegation{
		{Delegate: delegate, Identity: identity},
		{Delegate: revoked, Identity: identity, Revoked: true},
		{Delegate: orphan, Identity: stranger},
	})
	for _, tc := range []struct {
		desc     string
		signer   common.Address
		mode     delegation.Mode
		identity common.Address
		eligible bool
	}{
		{"allow-listed", identity, delegation.Admission, identity, true},
		{"delegate", delegate, delegation.Admission, identity, true},
		{"revoked on admission", revoked, delegation.Admission, common.Address{}, false},
		{"revoked on replay", revoked, delegation.Replay, identity, true},
		{"identity not allow-listed", orphan, delegation.Replay, common.Address{}, false},
		{"unknown", stranger, delegation.Admission, common.Address{}, false},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			id, ok := snap.Eligible(tc.signer, tc.mode)
			require.Equal(t, tc.eligible, ok)
			require.Equal(t, tc.identity, id)
		})
	}

	_, ok := delegation.Empty.Eligible(identity, delegation.Replay)
	require.False(t, ok)
}

func TestSourceLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := delegation.DefaultConfig()
	cfg.Path = "/data/delegations.json"

	// not written yet
	src, err := delegation.New(delegation.WithConfig(cfg), delegation.WithFilesystem(fs))
	require.NoError(t, err)
	_, ok := src.Snapshot().Eligible(identity, delegation.Admission)
	require.False(t, ok)

	require.NoError(t, afero.WriteFile(fs, cfg.Path, []byte(content), 0o600))
	src, err = delegation.New(delegation.WithConfig(cfg), delegation.WithFilesystem(fs))
	require.NoError(t, err)
	id, ok := src.Snapshot().Eligible(delegate, delegation.Admission)
	require.True(t, ok)
	require.Equal(t, identity, id)
	identities, delegations := src.Snapshot().Size()
	require.Equal(t, 1, identities)
	require.Equal(t, 3, delegations)
}

func TestSourceInvalid(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		content string
	}{
		{"not json", "{"},
		{"bad address", `{"allowlist": ["0x11"], "delegations": []}`},
		{"extra field", `{"allowlist": [], "delegations": [], "other": 1}`},
		{"missing identity", `{"allowlist": [], "delegations": [{"delegate": "0x2222222222222222222222222222222222222222"}]}`},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			cfg := delegation.Config{Path: "delegations.json"}
			require.NoError(t, afero.WriteFile(fs, cfg.Path, []byte(tc.content), 0o600))
			_, err := delegation.New(delegation.WithConfig(cfg), delegation.WithFilesystem(fs))
			require.ErrorIs(t, err, delegation.ErrInvalidFile)
		})
	}
}

func TestSourceRefresh(t *testing.T) {
	fs := afero.NewMemMapFs()
	clock := clockwork.NewFakeClock()
	cfg := delegation.Config{Path: "delegations.json", Interval: time.Minute}
	require.NoError(t, afero.WriteFile(fs, cfg.Path, []byte(`{"allowlist": [], "delegations": []}`), 0o600))

	src, err := delegation.New(
		delegation.WithConfig(cfg),
		delegation.WithFilesystem(fs),
		delegation.WithClock(clock),
		delegation.WithLogger(logtest.New(t)),
	)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		src.Close()
	})
	src.Start(ctx)
	clock.BlockUntil(1)

	require.NoError(t, afero.WriteFile(fs, cfg.Path, []byte(content), 0o600))
	clock.Advance(time.Minute)
	require.Eventually(t, func() bool {
		_, ok := src.Snapshot().Eligible(identity, delegation.Admission)
		return ok
	}, time.Second, 10*time.Millisecond)

	// a broken file keeps the previous snapshot
	require.NoError(t, afero.WriteFile(fs, cfg.Path, []byte("{"), 0o600))
	clock.Advance(time.Minute)
	require.Never(t, func() bool {
		_, ok := src.Snapshot().Eligible(identity, delegation.Admission)
		return !ok
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestSourceURL(t *testing.T) {
	var (
		requests atomic.Int32
		status   atomic.Int32
	)
	status.Store(http.StatusServiceUnavailable)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// the first attempt of every fetch fails with status
		if requests.Add(1)%2 == 1 {
			w.WriteHeader(int(status.Load()))
			return
		}
		w.Write([]byte(content))
	}))
	t.Cleanup(srv.Close)

	cfg := delegation.Config{URL: srv.URL, MaxRetries: 1, RetryDelay: time.Millisecond}
	src, err := delegation.New(delegation.WithConfig(cfg), delegation.WithLogger(logtest.New(t)))
	require.NoError(t, err)
	require.EqualValues(t, 2, requests.Load())
	id, ok := src.Snapshot().Eligible(delegate, delegation.Admission)
	require.True(t, ok)
	require.Equal(t, identity, id)

	// client errors are not retried and keep the previous snapshot
	status.Store(http.StatusNotFound)
	require.ErrorIs(t, src.Reload(context.Background()), delegation.ErrUnavailable)
	require.EqualValues(t, 3, requests.Load())
	_, ok = src.Snapshot().Eligible(delegate, delegation.Admission)
	require.True(t, ok)
}

func TestSourceURLUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	cfg := delegation.Config{URL: srv.URL, MaxRetries: 2, RetryDelay: time.Millisecond}
	src, err := delegation.New(delegation.WithConfig(cfg), delegation.WithLogger(logtest.New(t)))
	require.NoError(t, err)
	require.Same(t, delegation.Empty, src.Snapshot())
	require.ErrorIs(t, src.Reload(context.Background()), delegation.ErrUnavailable)
}

func TestSourceURLInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"allowlist": ["0x11"], "delegations": []}`))
	}))
	t.Cleanup(srv.Close)

	_, err := delegation.New(delegation.WithConfig(delegation.Config{URL: srv.URL}))
	require.ErrorIs(t, err, delegation.ErrInvalidFile)
}
