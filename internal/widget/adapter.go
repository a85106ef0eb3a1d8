// Package widget normalizes heterogeneous canvas widget records and
// derives their bounding geometry.
package widget

import (
	"encoding/json"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/geometry"
	"github.com/starford/raido/internal/models"
)

// connectorPadding widens a connector's endpoint bounding box so the
// drawn line itself falls inside it.
const connectorPadding = 10.0

// normalized record keys lifted out of the raw record; everything else
// stays in Properties.
var liftedKeys = map[string]struct{}{
	"id":          {},
	"type":        {},
	"widget_type": {},
	"location":    {},
	"size":        {},
	"parent_id":   {},
}

// Normalize extracts the {id, type, location, size, parent_id,
// properties} view from a raw widget record. Both "type" and the server's
// "widget_type" spelling are accepted. Missing location or size simply
// yield nil fields; geometry operations decide how to degrade.
func Normalize(record map[string]any) models.Widget {
	w := models.Widget{
		ID:       asString(record["id"]),
		Type:     asString(record["type"]),
		ParentID: asString(record["parent_id"]),
	}
	if w.Type == "" {
		w.Type = asString(record["widget_type"])
	}
	if loc, ok := record["location"].(map[string]any); ok {
		x, okX := asFloat(loc["x"])
		y, okY := asFloat(loc["y"])
		if okX && okY {
			z, _ := asFloat(loc["z"])
			w.Location = &models.Location{X: x, Y: y, Z: z}
		}
	}
	if sz, ok := record["size"].(map[string]any); ok {
		width, okW := asFloat(sz["width"])
		height, okH := asFloat(sz["height"])
		if okW && okH && width >= 0 && height >= 0 {
			w.Size = &geometry.Size{Width: width, Height: height}
		}
	}
	for k, v := range record {
		if _, lifted := liftedKeys[k]; lifted {
			continue
		}
		if w.Properties == nil {
			w.Properties = make(map[string]any)
		}
		w.Properties[k] = v
	}
	return w
}

// BoundingBox derives the widget's bounding rectangle.
//
// Connectors are boxed by their endpoints (padded so the line fits);
// other zero-extent widgets degrade to a point rect at their location.
// A widget with neither endpoints nor a location yields a GeometryError.
func BoundingBox(w models.Widget) (geometry.Rect, error) {
	if w.Type == "connector" {
		if r, ok := connectorBox(w); ok {
			return r, nil
		}
	}
	if w.Location == nil {
		return geometry.Rect{}, &apperr.GeometryError{WidgetID: w.ID, Msg: "missing location"}
	}
	if w.Size == nil {
		return geometry.Rect{X: w.Location.X, Y: w.Location.Y}, nil
	}
	return geometry.Rect{
		X:      w.Location.X,
		Y:      w.Location.Y,
		Width:  w.Size.Width,
		Height: w.Size.Height,
	}, nil
}

// connectorBox computes the padded endpoint box for a connector, when
// both endpoints carry a rel_location.
func connectorBox(w models.Widget) (geometry.Rect, bool) {
	src, okSrc := endpointLocation(w.Properties["src"])
	dst, okDst := endpointLocation(w.Properties["dst"])
	if !okSrc || !okDst {
		return geometry.Rect{}, false
	}
	box := geometry.Union(
		geometry.Rect{X: src.X, Y: src.Y},
		geometry.Rect{X: dst.X, Y: dst.Y},
	)
	return geometry.Rect{
		X:      box.X - connectorPadding,
		Y:      box.Y - connectorPadding,
		Width:  box.Width + 2*connectorPadding,
		Height: box.Height + 2*connectorPadding,
	}, true
}

func endpointLocation(v any) (geometry.Point, bool) {
	ep, ok := v.(map[string]any)
	if !ok {
		return geometry.Point{}, false
	}
	rel, ok := ep["rel_location"].(map[string]any)
	if !ok {
		return geometry.Point{}, false
	}
	x, okX := asFloat(rel["x"])
	y, okY := asFloat(rel["y"])
	if !okX || !okY {
		return geometry.Point{}, false
	}
	return geometry.Point{X: x, Y: y}, true
}

// InArea returns the widgets whose bounding box intersects area.
// Widgets without usable geometry are skipped, not fatal.
func InArea(widgets []models.Widget, area geometry.Rect) []models.Widget {
	var out []models.Widget
	for _, w := range widgets {
		box, err := BoundingBox(w)
		if err != nil {
			continue
		}
		if geometry.Intersects(box, area) {
			out = append(out, w)
		}
	}
	return out
}

// AtPoint returns the widgets whose bounding box contains p, edges
// inclusive.
func AtPoint(widgets []models.Widget, p geometry.Point) []models.Widget {
	var out []models.Widget
	for _, w := range widgets {
		box, err := BoundingBox(w)
		if err != nil {
			continue
		}
		if box.ContainsPoint(p) {
			out = append(out, w)
		}
	}
	return out
}

// CanvasBounds returns the union bounding box of every widget with
// usable geometry, and false when none have any.
func CanvasBounds(widgets []models.Widget) (geometry.Rect, bool) {
	var bounds geometry.Rect
	found := false
	for _, w := range widgets {
		box, err := BoundingBox(w)
		if err != nil {
			continue
		}
		if !found {
			bounds = box
			found = true
			continue
		}
		bounds = geometry.Union(bounds, box)
	}
	return bounds, found
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
