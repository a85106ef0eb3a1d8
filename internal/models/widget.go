// Package models defines the domain types for Raido.
package models

import "github.com/starford/raido/internal/geometry"

// RootParent is the sentinel parent id meaning "attached to the canvas
// background" rather than to another widget.
const RootParent = ""

// Location is a widget position. Z is stacking order and plays no part
// in geometry.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Widget is the normalized view of a canvas widget record. Size is nil
// for zero-extent types (connectors, anchors), which degrade to point
// semantics in geometry operations. Properties holds every type-specific
// field the normalization did not lift into a dedicated column.
type Widget struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Location   *Location      `json:"location,omitempty"`
	Size       *geometry.Size `json:"size,omitempty"`
	ParentID   string         `json:"parent_id,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// CanvasMeta is a lightweight canvas descriptor.
type CanvasMeta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Transform op kinds.
const (
	OpMove     = "move"
	OpResize   = "resize"
	OpReparent = "reparent"
)

// TransformOp is a declarative, unapplied instruction produced by the
// engine. Applying it (issuing the server update) is the caller's job.
type TransformOp struct {
	WidgetID string `json:"widget_id"`
	Op       string `json:"op"`

	// Move / reparent target position.
	Location *Location `json:"location,omitempty"`
	// Resize target extent.
	Size *geometry.Size `json:"size,omitempty"`
	// Reparent target parent.
	ParentID *string `json:"parent_id,omitempty"`
}

// Record flattens the widget back into the JSON-shaped view the filter
// engine matches against: normalized columns at the top level plus the
// open-ended properties map.
func (w Widget) Record() map[string]any {
	rec := map[string]any{
		"id":   w.ID,
		"type": w.Type,
	}
	if w.Location != nil {
		rec["location"] = map[string]any{"x": w.Location.X, "y": w.Location.Y, "z": w.Location.Z}
	}
	if w.Size != nil {
		rec["size"] = map[string]any{"width": w.Size.Width, "height": w.Size.Height}
	}
	if w.ParentID != RootParent {
		rec["parent_id"] = w.ParentID
	}
	if len(w.Properties) > 0 {
		props := make(map[string]any, len(w.Properties))
		for k, v := range w.Properties {
			props[k] = v
		}
		rec["properties"] = props
	}
	return rec
}
