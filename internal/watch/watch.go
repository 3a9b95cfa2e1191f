// Package watch reports changes of a stored record made by any process
// sharing the database file.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/rcliao/tako/internal/logging"
	"github.com/rcliao/tako/internal/store"
)

// RevisionSource reads record revisions.
type RevisionSource interface {
	Revision(ctx context.Context, key string) (string, error)
}

// Change is emitted when the watched record was written.
type Change struct {
	Key      string
	Revision string
}

// Watcher follows the revision of one record key.
type Watcher struct {
	dbPath string
	key    string
	src    RevisionSource
	log    *logging.Logger

	mu   sync.Mutex
	last string
}

// New returns a watcher for key in the database at dbPath.
func New(dbPath, key string, src RevisionSource, log *logging.Logger) *Watcher {
	return &Watcher{dbPath: dbPath, key: key, src: src, log: log}
}

// Prime records the current revision as already seen.
func (w *Watcher) Prime(ctx context.Context) error {
	rev, err := w.revision(ctx)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.last = rev
	w.mu.Unlock()
	return nil
}

// Check compares the stored revision with the last one seen.
func (w *Watcher) Check(ctx context.Context) (*Change, error) {
	rev, err := w.revision(ctx)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if rev == w.last {
		return nil, nil
	}
	w.last = rev
	return &Change{Key: w.key, Revision: rev}, nil
}

func (w *Watcher) revision(ctx context.Context) (string, error) {
	rev, err := w.src.Revision(ctx, w.key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	return rev, err
}

// Run watches the database directory and sends a Change for every new
// revision until ctx is done.
func (w *Watcher) Run(ctx context.Context, changes chan<- Change) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.dbPath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.dbPath), err)
	}
	if err := w.Prime(ctx); err != nil {
		return fmt.Errorf("read initial revision: %w", err)
	}

	base := filepath.Base(w.dbPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watching database", err)
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(ev.Name), base) || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c, err := w.Check(ctx)
			if err != nil {
				w.log.Error("reading revision", err, "key", w.key)
				continue
			}
			if c == nil {
				continue
			}
			w.log.Debug("stored record changed", "key", c.Key, "revision", c.Revision)
			select {
			case changes <- *c:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
