package session

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/textloom/internal/engine/clock"
)

// Default configuration values.
const (
	// DefaultReconcileGranularity is the digest range width below which
	// Reconcile fetches raw operations instead of probing further.
	DefaultReconcileGranularity = 16

	// DefaultMaxDeferredOps is the deferred-queue depth above which the
	// session logs a warning; the queue itself is unbounded.
	DefaultMaxDeferredOps = 1024
)

// Option configures a Session during creation.
type Option func(*Session)

// WithReplica sets the replica ID local edits are stamped with. Every
// replica of a document must use a distinct ID.
func WithReplica(id clock.ReplicaID) Option {
	return func(s *Session) {
		s.replica = id
	}
}

// WithContent sets the initial document text. All replicas of a
// document must start from the same text.
func WithContent(text string) Option {
	return func(s *Session) {
		s.initContent = text
	}
}

// WithDocumentID sets the document identity. Defaults to a random UUID;
// replicas joining an existing document must pass its ID.
func WithDocumentID(id uuid.UUID) Option {
	return func(s *Session) {
		s.docID = id
	}
}

// WithLogger sets the session logger.
func WithLogger(log *Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithLogOutput creates a logger at the given level writing to w.
func WithLogOutput(level LogLevel, w io.Writer) Option {
	return func(s *Session) {
		s.log = NewLogger(level, w)
	}
}

// WithReconcileGranularity sets the digest probe width for Reconcile.
func WithReconcileGranularity(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.granularity = n
		}
	}
}

// WithMaxDeferredOps sets the deferred-queue warning threshold.
func WithMaxDeferredOps(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxDeferred = n
		}
	}
}

// Config is the TOML-loadable session configuration.
type Config struct {
	Replica              uint16 `toml:"replica"`
	DocumentID           string `toml:"document_id"`
	LogLevel             string `toml:"log_level"`
	ReconcileGranularity int    `toml:"reconcile_granularity"`
	MaxDeferredOps       int    `toml:"max_deferred_ops"`
}

// LoadConfig reads a TOML config file. A missing file is not an error;
// it returns the zero Config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig reads a TOML config from raw bytes.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Options converts a loaded config into session options. Zero-value
// fields produce no option, so defaults apply.
func (c Config) Options() ([]Option, error) {
	var opts []Option
	if c.Replica != 0 {
		opts = append(opts, WithReplica(clock.ReplicaID(c.Replica)))
	}
	if c.DocumentID != "" {
		id, err := uuid.Parse(c.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("parsing document_id: %w", err)
		}
		opts = append(opts, WithDocumentID(id))
	}
	if c.LogLevel != "" {
		opts = append(opts, WithLogOutput(ParseLogLevel(c.LogLevel), nil))
	}
	if c.ReconcileGranularity > 0 {
		opts = append(opts, WithReconcileGranularity(c.ReconcileGranularity))
	}
	if c.MaxDeferredOps > 0 {
		opts = append(opts, WithMaxDeferredOps(c.MaxDeferredOps))
	}
	return opts, nil
}
