// Package persistence selects the storage backend once at startup and hands
// the business layer one collection per entity, without revealing which
// backend serves them.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/finanza/finanza-api/internal/storage"
	"github.com/finanza/finanza-api/internal/storage/memory"
	"github.com/finanza/finanza-api/internal/storage/mongodb"
	"github.com/finanza/finanza-api/internal/storage/sqlite"
)

// Backend names, reported by Facade.Backend for logging.
const (
	BackendMongo  = "mongodb"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultProbeTimeout bounds how long startup waits for the durable backend.
const DefaultProbeTimeout = 2 * time.Second

// ErrBackendUnavailable wraps every reason the durable backend could not be used.
var ErrBackendUnavailable = errors.New("durable backend unavailable")

// Options configures backend selection.
type Options struct {
	// URL is the durable backend connection string:
	// mongodb://..., mongodb+srv://... or sqlite://<path>.
	// Empty selects the in-memory backend.
	URL string

	// Database is the MongoDB database name.
	Database string

	// ProbeTimeout bounds the reachability check. Zero means DefaultProbeTimeout.
	ProbeTimeout time.Duration
}

// Facade exposes the selected backend as per-entity collections.
type Facade struct {
	store   storage.Store
	backend string
}

// New wraps an already constructed store.
func New(store storage.Store, backend string) *Facade {
	return &Facade{store: store, backend: backend}
}

// Open tries the durable backend described by opts and falls back to the
// in-memory backend on any failure. The choice is final for the life of the
// returned Facade; there is no retry and no later promotion.
func Open(ctx context.Context, opts Options, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = slog.Default()
	}

	store, backend, err := openDurable(ctx, opts)
	if err != nil {
		logger.Warn("Durable storage unavailable, using in-memory storage; data will not survive a restart",
			"error", err,
		)
		return New(memory.New(), BackendMemory)
	}

	logger.Info("Storage initialized", "backend", backend)
	return New(store, backend)
}

func openDurable(ctx context.Context, opts Options) (storage.Store, string, error) {
	if opts.URL == "" {
		return nil, "", fmt.Errorf("%w: no database URL configured", ErrBackendUnavailable)
	}

	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch {
	case strings.HasPrefix(opts.URL, "mongodb://"), strings.HasPrefix(opts.URL, "mongodb+srv://"):
		store, err := mongodb.Open(ctx, opts.URL, opts.Database, timeout)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return store, BackendMongo, nil

	case strings.HasPrefix(opts.URL, "sqlite://"):
		store, err := sqlite.New(strings.TrimPrefix(opts.URL, "sqlite://"))
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return store, BackendSQLite, nil

	default:
		return nil, "", fmt.Errorf("%w: unsupported database URL scheme", ErrBackendUnavailable)
	}
}

// Users returns the user collection.
func (f *Facade) Users() storage.Users { return f.store }

// Transactions returns the transaction collection.
func (f *Facade) Transactions() storage.Transactions { return f.store }

// Budgets returns the budget collection.
func (f *Facade) Budgets() storage.Budgets { return f.store }

// ResetCodes returns the reset code collection.
func (f *Facade) ResetCodes() storage.ResetCodes { return f.store }

// Backend names the selected backend. It is meant for logs and health
// output only; request handling never branches on it.
func (f *Facade) Backend() string { return f.backend }

// Ping checks that the selected backend still answers.
func (f *Facade) Ping(ctx context.Context) error { return f.store.Ping(ctx) }

// Close releases the backend.
func (f *Facade) Close() error { return f.store.Close() }
