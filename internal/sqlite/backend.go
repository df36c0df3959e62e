// Package sqlite implements the contact store on SQLite.
//
// contacts.jsonl in the data directory is the source of truth. SQLite
// (modernc.org/sqlite, in memory) is the query engine: it is rebuilt from
// the JSONL file on every Attach and every committed mutation is written
// back according to the configured sync strategy.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/contactbook/internal/live"
	"github.com/mesh-intelligence/contactbook/pkg/types"
)

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	log      *zap.Logger

	// changes counts committed mutations. Live queries observe it and
	// re-run on every increment. Replaced on each Attach, closed on Detach.
	changes *live.Cell[uint64]
	queries atomic.Int64

	// lastDigest is the hash of contacts.jsonl as last written or loaded
	// by this backend. Guarded by mu.
	lastDigest [32]byte

	// Sync strategy state.
	syncStrategy  string
	batchSize     int
	batchInterval time.Duration
	pendingWrites int         // mutations not yet written to JSONL
	batchTimer    *time.Timer // timer for interval-based batch flush
	batchMu       sync.Mutex  // protects pendingWrites and batchTimer

	watchMu   sync.Mutex
	watcher   *fsnotify.Watcher
	watchDone chan struct{}
}

// NewBackend creates a detached backend. A nil logger discards logs.
func NewBackend(logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{log: logger.Named("sqlite")}
}

// Attach opens the store in config.DataDir, creating the directory and an
// empty contacts.jsonl when missing, and loads the data file into SQLite.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	if config.DataDir == "" {
		config.DataDir = "."
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	path := filepath.Join(config.DataDir, contactsJSONL)
	if err := ensureJSONL(path); err != nil {
		return err
	}

	// One connection: an in-memory database lives and dies with it.
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	records, err := readJSONL(path)
	if err != nil {
		db.Close()
		return err
	}
	loaded, err := loadContacts(context.Background(), db, records)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}
	digest, err := fileDigest(path)
	if err != nil {
		db.Close()
		return fmt.Errorf("hashing %s: %w", contactsJSONL, err)
	}

	b.db = db
	b.config = config
	b.lastDigest = digest
	b.changes = live.NewCell[uint64](0, live.Equal[uint64])

	b.syncStrategy = config.SQLiteConfig.GetSyncStrategy()
	b.batchSize = config.SQLiteConfig.GetBatchSize()
	b.batchInterval = time.Duration(config.SQLiteConfig.GetBatchInterval()) * time.Second
	b.pendingWrites = 0
	if b.syncStrategy == types.SyncBatch && b.batchInterval > 0 {
		b.startBatchTimer()
	}

	if config.Watch {
		if err := b.startWatcher(config.DataDir); err != nil {
			b.stopBatchTimer()
			db.Close()
			b.db = nil
			return fmt.Errorf("watching %s: %w", config.DataDir, err)
		}
	}

	b.attached = true
	b.log.Debug("attached",
		zap.String("data_dir", config.DataDir),
		zap.String("sync_strategy", b.syncStrategy),
		zap.Int("contacts", loaded),
		zap.Bool("watch", config.Watch),
	)
	return nil
}

// Detach flushes pending writes, ends every live query and closes SQLite.
// Idempotent. After Detach, operations return ErrDetached.
func (b *Backend) Detach() error {
	// The watcher takes b.mu when reloading, so stop it first.
	b.stopWatcher()

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.stopBatchTimer()
	flushErr := b.flushPendingWritesLocked()

	b.changes.Close()
	b.attached = false

	if b.db != nil {
		if err := b.db.Close(); err != nil && flushErr == nil {
			flushErr = err
		}
		b.db = nil
	}

	b.log.Debug("detached", zap.String("data_dir", b.config.DataDir))
	if flushErr != nil {
		return fmt.Errorf("flush pending writes: %w", flushErr)
	}
	return nil
}

// ActiveQueries returns the number of live queries currently running.
func (b *Backend) ActiveQueries() int {
	return int(b.queries.Load())
}

// DataPath returns the path of the data file, or "" when detached.
func (b *Backend) DataPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return ""
	}
	return filepath.Join(b.config.DataDir, contactsJSONL)
}

// notifyLocked wakes every live query. The caller must hold b.mu.
func (b *Backend) notifyLocked() {
	b.changes.Update(func(v uint64) uint64 { return v + 1 })
}

// Sync strategy methods.

// persistLocked records a committed mutation in contacts.jsonl according
// to the sync strategy. The caller must hold the b.mu write lock.
func (b *Backend) persistLocked() error {
	if b.shouldPersistImmediately() {
		return b.writeContactsJSONLLocked()
	}
	return b.queueWrite()
}

// shouldPersistImmediately reports whether JSONL writes happen on every
// mutation.
func (b *Backend) shouldPersistImmediately() bool {
	return b.syncStrategy == types.SyncImmediate || b.syncStrategy == ""
}

// queueWrite counts a deferred write. For the batch strategy it flushes
// once batchSize writes are pending. The caller must hold the b.mu write
// lock.
func (b *Backend) queueWrite() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	b.pendingWrites++
	if b.syncStrategy == types.SyncBatch && b.batchSize > 0 && b.pendingWrites >= b.batchSize {
		return b.flushPendingWritesBatchLocked()
	}
	return nil
}

// flushPendingWritesLocked writes contacts.jsonl if any write is pending.
// The caller must hold the b.mu write lock.
func (b *Backend) flushPendingWritesLocked() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	return b.flushPendingWritesBatchLocked()
}

// flushPendingWritesBatchLocked does the flush. The caller must hold
// b.mu and b.batchMu.
func (b *Backend) flushPendingWritesBatchLocked() error {
	if b.pendingWrites == 0 {
		return nil
	}
	if err := b.writeContactsJSONLLocked(); err != nil {
		return err
	}
	b.log.Debug("flushed pending writes", zap.Int("writes", b.pendingWrites))
	b.pendingWrites = 0
	return nil
}

// pendingWriteCount returns the number of deferred writes.
func (b *Backend) pendingWriteCount() int {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()
	return b.pendingWrites
}

// startBatchTimer starts the interval timer for periodic batch flushes.
func (b *Backend) startBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		return
	}

	b.batchTimer = time.AfterFunc(b.batchInterval, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if !b.attached {
			return
		}
		if err := b.flushPendingWritesLocked(); err != nil {
			b.log.Warn("batch flush failed", zap.Error(err))
		}

		b.batchMu.Lock()
		if b.batchTimer != nil {
			b.batchTimer.Reset(b.batchInterval)
		}
		b.batchMu.Unlock()
	})
}

// stopBatchTimer stops the interval timer if running.
func (b *Backend) stopBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		b.batchTimer.Stop()
		b.batchTimer = nil
	}
}
