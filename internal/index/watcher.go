package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/raido/internal/snapshot"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, canvasID string)

// Watch starts an fsnotify watcher on the flat snapshot directory and
// processes change events until ctx is cancelled. It calls cb (if
// non-nil) after each successful index mutation.
//
// Rename events trigger a debounced reconciliation pass that removes
// stale index entries whose snapshots no longer exist on disk.
func Watch(ctx context.Context, db *DB, store snapshot.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			base := filepath.Base(ev.Name)
			if !strings.HasSuffix(base, ".json") {
				continue // temp files from atomic writes, editor droppings
			}
			canvasID := strings.TrimSuffix(base, ".json")

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(canvasID)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("canvas", canvasID), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := indexSnapshot(db, canvasID, data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("canvas", canvasID), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("canvas", canvasID), slog.String("op", kind))
				if cb != nil {
					cb(kind, canvasID)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteCanvas(canvasID); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("canvas", canvasID), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("canvas", canvasID))
				if cb != nil {
					cb("deleted", canvasID)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path arrives as a separate Create event. Delete the
				// old entry immediately and schedule a reconciliation
				// pass to catch any stragglers.
				if delErr := db.DeleteCanvas(canvasID); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("canvas", canvasID), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("canvas", canvasID))
					if cb != nil {
						cb("deleted", canvasID)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile does a lightweight sync using batch lookups: removes index
// entries without a snapshot on disk and indexes snapshots that are
// missing or changed in the index.
func reconcile(db *DB, store snapshot.Provider, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List()
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.CanvasID] = m.Checksum
	}

	for id := range checksums {
		if _, ok := disk[id]; !ok {
			if delErr := db.DeleteCanvas(id); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("canvas", id))
				if cb != nil {
					cb("deleted", id)
				}
			}
		}
	}

	for id, cs := range disk {
		if checksums[id] == cs {
			continue
		}
		data, readErr := store.Read(id)
		if readErr != nil {
			continue
		}
		if idxErr := indexSnapshot(db, id, data); idxErr == nil {
			logger.Debug("reconcile: indexed", slog.String("canvas", id))
			if cb != nil {
				cb("created", id)
			}
		}
	}
}
