package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/widget"
)

// CanvasRow represents a row in the canvases table.
type CanvasRow struct {
	ID        string
	Name      string
	Checksum  string
	UpdatedAt time.Time
}

// UpsertCanvas inserts or replaces a canvas and all of its widget rows
// within a transaction. The widget records are stored verbatim; geometry
// columns are denormalized from the normalized form.
func (db *DB) UpsertCanvas(c CanvasRow, records []map[string]any) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO canvases (id, name, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name       = excluded.name,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, c.ID, c.Name, c.Checksum, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert canvas: %w", err)
	}

	// Replace widgets: delete old then bulk insert in snapshot order.
	_, _ = tx.Exec(`DELETE FROM widgets WHERE canvas_id = ?`, c.ID)
	if len(records) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO widgets
				(canvas_id, id, type, parent_id, x, y, z, has_loc, ord, record)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare widget insert: %w", err)
		}
		defer stmt.Close()

		for ord, rec := range records {
			w := widget.Normalize(rec)
			if w.ID == "" {
				continue
			}
			raw, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("index: marshal widget %s: %w", w.ID, err)
			}
			var x, y, z float64
			hasLoc := 0
			if w.Location != nil {
				x, y, z = w.Location.X, w.Location.Y, w.Location.Z
				hasLoc = 1
			}
			if _, err := stmt.Exec(c.ID, w.ID, w.Type, w.ParentID, x, y, z, hasLoc, ord, string(raw)); err != nil {
				return fmt.Errorf("index: insert widget %s: %w", w.ID, err)
			}
		}
	}

	return tx.Commit()
}

// DeleteCanvas removes a canvas and all of its widget rows.
func (db *DB) DeleteCanvas(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM widgets WHERE canvas_id = ?`, id)
	_, _ = tx.Exec(`DELETE FROM canvases WHERE id = ?`, id)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a canvas, or empty string
// if the canvas is not indexed.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM canvases WHERE id = ?`, id).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed canvas keyed by id.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM canvases`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// GetCanvas returns the metadata of one indexed canvas.
// Returns apperr.ErrNotFound when the canvas is not indexed.
func (db *DB) GetCanvas(id string) (models.CanvasMeta, error) {
	var m models.CanvasMeta
	err := db.conn.QueryRow(`SELECT id, name FROM canvases WHERE id = ?`, id).Scan(&m.ID, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CanvasMeta{}, fmt.Errorf("index: canvas %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.CanvasMeta{}, fmt.Errorf("index: get canvas: %w", err)
	}
	return m, nil
}

// ListCanvases returns metadata for every indexed canvas, ordered by name.
func (db *DB) ListCanvases() ([]models.CanvasMeta, error) {
	rows, err := db.conn.Query(`SELECT id, name FROM canvases ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("index: list canvases: %w", err)
	}
	defer rows.Close()

	var out []models.CanvasMeta
	for rows.Next() {
		var m models.CanvasMeta
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListWidgets returns every widget of a canvas in snapshot order.
// Returns apperr.ErrNotFound when the canvas is not indexed.
func (db *DB) ListWidgets(canvasID string) ([]models.Widget, error) {
	var exists int
	err := db.conn.QueryRow(`SELECT 1 FROM canvases WHERE id = ?`, canvasID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: canvas %s: %w", canvasID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: lookup canvas: %w", err)
	}

	rows, err := db.conn.Query(`SELECT record FROM widgets WHERE canvas_id = ? ORDER BY ord`, canvasID)
	if err != nil {
		return nil, fmt.Errorf("index: list widgets: %w", err)
	}
	defer rows.Close()

	var out []models.Widget
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("index: decode widget record: %w", err)
		}
		out = append(out, widget.Normalize(rec))
	}
	return out, rows.Err()
}

// WidgetLocation returns the stored location of a widget by id.
// Returns apperr.ErrNotFound for unknown widgets and a GeometryError for
// widgets indexed without a location.
func (db *DB) WidgetLocation(widgetID string) (models.Location, error) {
	var x, y, z float64
	var hasLoc int
	err := db.conn.QueryRow(`SELECT x, y, z, has_loc FROM widgets WHERE id = ? LIMIT 1`, widgetID).
		Scan(&x, &y, &z, &hasLoc)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Location{}, fmt.Errorf("index: widget %s: %w", widgetID, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Location{}, fmt.Errorf("index: widget location: %w", err)
	}
	if hasLoc == 0 {
		return models.Location{}, &apperr.GeometryError{WidgetID: widgetID, Msg: "widget has no location"}
	}
	return models.Location{X: x, Y: y, Z: z}, nil
}

// ParentChain returns the ancestor ids of a widget from its immediate
// parent upward to the root. The walk is bounded by a visited set so a
// corrupt hierarchy with a parent loop still terminates.
func (db *DB) ParentChain(widgetID string) ([]string, error) {
	var canvasID, parentID string
	err := db.conn.QueryRow(`SELECT canvas_id, parent_id FROM widgets WHERE id = ? LIMIT 1`, widgetID).
		Scan(&canvasID, &parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: widget %s: %w", widgetID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: parent chain: %w", err)
	}

	var chain []string
	visited := map[string]struct{}{widgetID: {}}
	for parentID != models.RootParent {
		if _, seen := visited[parentID]; seen {
			break
		}
		visited[parentID] = struct{}{}
		chain = append(chain, parentID)

		err := db.conn.QueryRow(`SELECT parent_id FROM widgets WHERE canvas_id = ? AND id = ?`, canvasID, parentID).
			Scan(&parentID)
		if errors.Is(err, sql.ErrNoRows) {
			break // dangling parent reference, treat as root
		}
		if err != nil {
			return nil, fmt.Errorf("index: parent chain: %w", err)
		}
	}
	return chain, nil
}
