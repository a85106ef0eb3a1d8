package index

import (
	"log/slog"
	"time"

	"github.com/starford/raido/internal/snapshot"
)

// Sync walks the snapshot store and brings the index up to date:
//   - new/changed snapshots are decoded and upserted
//   - canvases whose snapshot is gone are deleted from the index
func Sync(db *DB, store snapshot.Provider, logger *slog.Logger) error {
	metas, err := store.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.CanvasID] = struct{}{}

		if checksums[m.CanvasID] == m.Checksum {
			continue
		}

		data, err := store.Read(m.CanvasID)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("canvas", m.CanvasID), slog.String("error", err.Error()))
			continue
		}
		if err := indexSnapshot(db, m.CanvasID, data); err != nil {
			logger.Warn("sync: index failed", slog.String("canvas", m.CanvasID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("canvas", m.CanvasID))
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := disk[id]; !ok {
			if err := db.DeleteCanvas(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("canvas", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("canvas", id))
			}
		}
	}

	return nil
}

// indexSnapshot decodes a snapshot document and upserts it into the DB.
// The store's canvas id is authoritative for the row id so a renamed
// snapshot file cannot resurrect an entry under its embedded id.
func indexSnapshot(db *DB, canvasID string, data []byte) error {
	doc, err := snapshot.Decode(data)
	if err != nil {
		return err
	}
	row := CanvasRow{
		ID:        canvasID,
		Name:      doc.Canvas.Name,
		Checksum:  snapshot.Checksum(data),
		UpdatedAt: time.Now().UTC(),
	}
	return db.UpsertCanvas(row, doc.Widgets)
}
