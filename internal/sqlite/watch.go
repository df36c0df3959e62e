// This file implements the data directory watcher. When another process
// rewrites contacts.jsonl, the backend reloads it and wakes live queries.
package sqlite

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// startWatcher watches dir for changes to contacts.jsonl. The directory is
// watched rather than the file because writeJSONL replaces the file by
// rename.
func (b *Backend) startWatcher(dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}

	done := make(chan struct{})
	b.watchMu.Lock()
	b.watcher = w
	b.watchDone = done
	b.watchMu.Unlock()

	go b.watchLoop(w, done)
	return nil
}

// stopWatcher closes the watcher and waits for its loop to exit.
func (b *Backend) stopWatcher() {
	b.watchMu.Lock()
	w, done := b.watcher, b.watchDone
	b.watcher, b.watchDone = nil, nil
	b.watchMu.Unlock()

	if w == nil {
		return
	}
	w.Close()
	<-done
}

func (b *Backend) watchLoop(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != contactsJSONL {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := b.reloadIfChanged(); err != nil {
				b.log.Warn("reloading contacts failed", zap.String("path", ev.Name), zap.Error(err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			b.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// reloadIfChanged reloads contacts.jsonl when its content differs from
// what this backend last wrote or loaded. Writes still queued by a
// deferred sync strategy are dropped in favour of the file.
func (b *Backend) reloadIfChanged() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	path := filepath.Join(b.config.DataDir, contactsJSONL)
	digest, err := fileDigest(path)
	if err != nil {
		// Mid-rename or removed; the next event retries.
		return nil
	}
	if digest == b.lastDigest {
		return nil
	}

	records, err := readJSONL(path)
	if err != nil {
		return err
	}
	n, err := loadContacts(context.Background(), b.db, records)
	if err != nil {
		return fmt.Errorf("load JSONL: %w", err)
	}
	b.lastDigest = digest

	b.batchMu.Lock()
	if b.pendingWrites > 0 {
		b.log.Warn("external change discarded pending writes", zap.Int("writes", b.pendingWrites))
		b.pendingWrites = 0
	}
	b.batchMu.Unlock()

	b.log.Info("reloaded contacts from disk", zap.Int("contacts", n))
	b.notifyLocked()
	return nil
}
