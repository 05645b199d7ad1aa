package regressor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/okian/marathon/pkg/logger"
	"github.com/okian/marathon/pkg/metrics"
)

// Load reads, validates and compiles the artifact at path.
func Load(ctx context.Context, path string) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	start := time.Now()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w: %s", ErrLoad, ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoad, path, err)
	}

	a, err := decodeArtifact(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %s: %w", ErrLoad, ErrInvalidArtifact, path, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w: %s: %w", ErrLoad, ErrInvalidArtifact, path, err)
	}

	sum := sha256.Sum256(raw)
	m := newModel(a, Info{
		Path:     path,
		Kind:     a.Kind,
		Version:  a.Version,
		Checksum: hex.EncodeToString(sum[:]),
		LoadedAt: time.Now(),
		Metadata: a.Metadata,
	})

	metrics.RecordModelLoad(float64(time.Since(start).Microseconds()) / 1000)
	metrics.SetModelInfo(m.info.Kind, strconv.Itoa(m.info.Version), m.info.Checksum)
	return m, nil
}

// Loader deserializes an artifact once and hands out the same Model afterwards.
type Loader struct {
	path   string
	logger logger.Logger

	once  sync.Once
	model *Model
	err   error
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithLogger sets a custom logger for the loader.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader creates a loader for the artifact at path. Nothing is read until Load.
func NewLoader(path string, opts ...Option) *Loader {
	l := &Loader{path: path}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Get().Named("regressor")
	}
	return l
}

// Load returns the model, reading the artifact on the first call only. A failed
// first load is not retried: later calls return the same error.
func (l *Loader) Load(ctx context.Context) (*Model, error) {
	l.once.Do(func() {
		l.model, l.err = Load(ctx, l.path)
		if l.err != nil {
			l.logger.Error(ctx, "model artifact load failed", logger.String("path", l.path), logger.Error(l.err))
			return
		}
		info := l.model.Info()
		l.logger.Info(ctx, "model artifact loaded",
			logger.String("path", info.Path),
			logger.String("kind", info.Kind),
			logger.String("sha256", info.Checksum),
		)
	})
	return l.model, l.err
}

// Path returns the artifact path the loader reads.
func (l *Loader) Path() string { return l.path }
