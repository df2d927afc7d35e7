package delegation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/jonboulle/clockwork"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidFile is returned for delegation files that don't match the schema.
	ErrInvalidFile = errors.New("invalid delegation file")
	// ErrUnavailable is returned when the delegation url can't be fetched.
	ErrUnavailable = errors.New("delegations unavailable")
)

// maxResponseSize bounds the delegation document read from the url.
const maxResponseSize = 64 << 20

var schema = jsonschema.MustCompileString("delegations.json", `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["allowlist", "delegations"],
  "additionalProperties": false,
  "properties": {
    "allowlist": {
      "type": "array",
      "items": {"$ref": "#/definitions/address"}
    },
    "delegations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["delegate", "identity"],
        "additionalProperties": false,
        "properties": {
          "delegate": {"$ref": "#/definitions/address"},
          "identity": {"$ref": "#/definitions/address"},
          "revoked": {"type": "boolean"}
        }
      }
    }
  },
  "definitions": {
    "address": {"type": "string", "pattern": "^0x[a-fA-F0-9]{40}$"}
  }
}`)

type file struct {
	Allowlist   []common.Address `json:"allowlist"`
	Delegations []struct {
		Delegate common.Address `json:"delegate"`
		Identity common.Address `json:"identity"`
		Revoked  bool           `json:"revoked"`
	} `json:"delegations"`
}

// Config selects where delegations are loaded from and how often.
type Config struct {
	// Path of the JSON file written by the chain crawler.
	Path string `mapstructure:"path"`
	// URL serving the same document. Takes precedence over Path. Eligibility is
	// disabled when both are empty.
	URL      string        `mapstructure:"url"`
	Interval time.Duration `mapstructure:"interval"`
	// MaxRetries and RetryDelay apply to fetching URL.
	MaxRetries int           `mapstructure:"max-retries"`
	RetryDelay time.Duration `mapstructure:"retry-delay"`
}

// DefaultConfig returns the default delegation configuration.
func DefaultConfig() Config {
	return Config{
		Interval:   30 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Provider returns the current snapshot.
type Provider interface {
	Snapshot() *Snapshot
}

// Static always provides the same snapshot.
type Static struct {
	S *Snapshot
}

// Snapshot returns S.
func (s Static) Snapshot() *Snapshot {
	return s.S
}

// Source reloads the delegation file, or the document served at the url, periodically.
type Source struct {
	cfg    Config
	logger *zap.Logger
	fs     afero.Fs
	clock  clockwork.Clock
	client *retryablehttp.Client

	current atomic.Pointer[Snapshot]
	once    sync.Once
	eg      errgroup.Group
}

// Opt configures a Source.
type Opt func(*Source)

// WithConfig sets the configuration.
func WithConfig(cfg Config) Opt {
	return func(s *Source) {
		s.cfg = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(s *Source) {
		s.logger = logger
	}
}

// WithFilesystem replaces the os filesystem the file is read from.
func WithFilesystem(fs afero.Fs) Opt {
	return func(s *Source) {
		s.fs = fs
	}
}

// WithClock sets the clock driving periodic reloads.
func WithClock(clock clockwork.Clock) Opt {
	return func(s *Source) {
		s.clock = clock
	}
}

// New loads delegations. A missing file or an unreachable url gives an empty snapshot,
// the crawler may not have produced it yet.
func New(opts ...Opt) (*Source, error) {
	s := &Source{
		cfg:    DefaultConfig(),
		logger: zap.NewNop(),
		fs:     afero.NewOsFs(),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.client = retryablehttp.NewClient()
	s.client.RetryMax = s.cfg.MaxRetries
	s.client.RetryWaitMin = s.cfg.RetryDelay
	s.client.RetryWaitMax = 2 * s.cfg.RetryDelay
	s.client.Backoff = retryablehttp.LinearJitterBackoff
	s.client.Logger = retryableHTTPLogger{inner: s.logger}

	s.current.Store(Empty)
	err := s.Reload(context.Background())
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case errors.Is(err, ErrUnavailable):
		s.logger.Warn("delegations not loaded", zap.Error(err))
	case err != nil:
		return nil, err
	}
	return s, nil
}

// Snapshot returns the latest successfully loaded snapshot.
func (s *Source) Snapshot() *Snapshot {
	return s.current.Load()
}

func (s *Source) location() string {
	if s.cfg.URL != "" {
		return s.cfg.URL
	}
	return s.cfg.Path
}

// Reload reads delegations and replaces the snapshot. On error the previous snapshot
// stays in place.
func (s *Source) Reload(ctx context.Context) error {
	var (
		snap *Snapshot
		err  error
	)
	switch {
	case s.cfg.URL != "":
		snap, err = s.fetch(ctx)
	case s.cfg.Path != "":
		snap, err = load(s.fs, s.cfg.Path)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	s.current.Store(snap)
	identities, delegations := snap.Size()
	s.logger.Debug("loaded delegations",
		zap.String("from", s.location()),
		zap.Int("identities", identities),
		zap.Int("delegations", delegations),
	)
	return nil
}

// Start reloads the file every interval until ctx is canceled.
func (s *Source) Start(ctx context.Context) {
	if s.location() == "" || s.cfg.Interval <= 0 {
		return
	}
	s.once.Do(func() {
		s.eg.Go(func() error {
			ticker := s.clock.NewTicker(s.cfg.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.Chan():
					if err := s.Reload(ctx); err != nil {
						s.logger.Warn("failed to reload delegations",
							zap.String("from", s.location()),
							zap.Error(err),
						)
					}
				}
			}
		})
	})
}

// Close waits for the reload loop to exit.
func (s *Source) Close() {
	s.eg.Wait()
}

func (s *Source) fetch(ctx context.Context) (*Snapshot, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrUnavailable, s.cfg.URL, res.Status)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}
	return parse(data)
}

// retryableHTTPLogger adapts zap to retryablehttp.LeveledLogger.
type retryableHTTPLogger struct {
	inner *zap.Logger
}

func (r retryableHTTPLogger) Error(msg string, kv ...any) { r.inner.Sugar().Errorw(msg, kv...) }
func (r retryableHTTPLogger) Info(msg string, kv ...any)  { r.inner.Sugar().Infow(msg, kv...) }
func (r retryableHTTPLogger) Warn(msg string, kv ...any)  { r.inner.Sugar().Warnw(msg, kv...) }
func (r retryableHTTPLogger) Debug(msg string, kv ...any) { r.inner.Sugar().Debugw(msg, kv...) }

func load(fs afero.Fs, path string) (*Snapshot, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Snapshot, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	delegations := make([]Delegation, 0, len(f.Delegations))
	for _, d := range f.Delegations {
		delegations = append(delegations, Delegation{
			Delegate: d.Delegate,
			Identity: d.Identity,
			Revoked:  d.Revoked,
		})
	}
	return NewSnapshot(f.Allowlist, delegations), nil
}
