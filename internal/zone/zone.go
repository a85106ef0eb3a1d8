// Package zone groups widgets spatially and computes batch transform
// plans. Zones are derived snapshots: they do not track live widget
// mutation, recomputation after member changes is the caller's job.
package zone

import (
	"fmt"
	"hash/fnv"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/geometry"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/widget"
)

// Tolerance configures the spatial slack used by grouping operations.
type Tolerance struct {
	// Distance is the default clustering distance when FindClusters is
	// called with a non-positive tolerance.
	Distance float64
	// Padding is added around a created zone's bounding box. Zero keeps
	// the zone bounds exactly the union of member boxes.
	Padding float64
}

// DefaultTolerance mirrors the spacing observed on real canvases.
func DefaultTolerance() Tolerance {
	return Tolerance{Distance: 20}
}

// Zone is a named spatial grouping with a derived bounding box and the
// ordered set of member widget ids.
type Zone struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Bounds      geometry.Rect `json:"bounds"`
	MemberIDs   []string      `json:"member_ids"`
}

// Manager performs zone and clustering operations. All methods are pure
// computations over the widgets passed in; nothing is fetched or cached.
type Manager struct {
	tol Tolerance
}

// NewManager creates a Manager with the given tolerance.
func NewManager(tol Tolerance) *Manager {
	if tol.Distance <= 0 {
		tol.Distance = DefaultTolerance().Distance
	}
	return &Manager{tol: tol}
}

// CreateZoneFromWidgets computes the union bounding box over the member
// widgets and records their ids. Widgets without usable geometry are
// skipped; an error is returned only when no widget contributes a box.
func (m *Manager) CreateZoneFromWidgets(widgets []models.Widget, name, description string) (*Zone, error) {
	if len(widgets) == 0 {
		return nil, fmt.Errorf("zone: %w: no widgets given", apperr.ErrNotFound)
	}

	var bounds geometry.Rect
	seen := make(map[string]struct{}, len(widgets))
	members := make([]string, 0, len(widgets))
	found := false
	for _, w := range widgets {
		box, err := widget.BoundingBox(w)
		if err != nil {
			continue
		}
		if _, dup := seen[w.ID]; dup {
			continue
		}
		seen[w.ID] = struct{}{}
		members = append(members, w.ID)
		if !found {
			bounds = box
			found = true
		} else {
			bounds = geometry.Union(bounds, box)
		}
	}
	if !found {
		return nil, fmt.Errorf("zone: no widget had usable geometry")
	}

	if p := m.tol.Padding; p > 0 {
		bounds = geometry.Rect{
			X:      bounds.X - p,
			Y:      bounds.Y - p,
			Width:  bounds.Width + 2*p,
			Height: bounds.Height + 2*p,
		}
	}

	return &Zone{
		ID:          zoneID(name, len(members)),
		Name:        name,
		Description: description,
		Bounds:      bounds,
		MemberIDs:   members,
	}, nil
}

// WidgetsInZone returns the subset of widgets whose bounding box is
// fully contained in the zone's bounds. Containment, not intersection,
// is the defining relation for zone membership.
func (m *Manager) WidgetsInZone(widgets []models.Widget, z *Zone) []models.Widget {
	var out []models.Widget
	for _, w := range widgets {
		box, err := widget.BoundingBox(w)
		if err != nil {
			continue
		}
		if geometry.Contains(z.Bounds, box) {
			out = append(out, w)
		}
	}
	return out
}

// WidgetsTouchingZone returns the widgets that overlap the zone bounds
// or share an edge with them.
func (m *Manager) WidgetsTouchingZone(widgets []models.Widget, z *Zone) []models.Widget {
	var out []models.Widget
	for _, w := range widgets {
		box, err := widget.BoundingBox(w)
		if err != nil {
			continue
		}
		if geometry.Touches(z.Bounds, box) {
			out = append(out, w)
		}
	}
	return out
}

// FindClusters greedily groups widgets whose bounding boxes lie within
// tolerance distance (corner to corner) of any widget already in the
// growing cluster. Clusters smaller than minSize are discarded and their
// widgets stay ungrouped. A non-positive tolerance uses the manager
// default.
func (m *Manager) FindClusters(widgets []models.Widget, minSize int, tolerance float64) [][]models.Widget {
	if tolerance <= 0 {
		tolerance = m.tol.Distance
	}
	if minSize < 1 {
		minSize = 1
	}

	type boxed struct {
		w   models.Widget
		box geometry.Rect
	}
	pool := make([]boxed, 0, len(widgets))
	for _, w := range widgets {
		box, err := widget.BoundingBox(w)
		if err != nil {
			continue
		}
		pool = append(pool, boxed{w: w, box: box})
	}

	assigned := make([]bool, len(pool))
	var clusters [][]models.Widget

	for seed := range pool {
		if assigned[seed] {
			continue
		}
		cluster := []int{seed}
		assigned[seed] = true

		// Grow until no unassigned widget is close to the cluster.
		for grew := true; grew; {
			grew = false
			for i := range pool {
				if assigned[i] {
					continue
				}
				for _, member := range cluster {
					if geometry.Distance(pool[i].box, pool[member].box) <= tolerance {
						cluster = append(cluster, i)
						assigned[i] = true
						grew = true
						break
					}
				}
			}
		}

		if len(cluster) < minSize {
			continue
		}
		group := make([]models.Widget, len(cluster))
		for i, idx := range cluster {
			group[i] = pool[idx].w
		}
		clusters = append(clusters, group)
	}
	return clusters
}

// MoveWidgets returns move ops shifting every widget by (dx, dy).
// Pure: inputs are not mutated and nothing is applied. Widgets without a
// location are skipped.
func MoveWidgets(widgets []models.Widget, dx, dy float64) []models.TransformOp {
	var ops []models.TransformOp
	for _, w := range widgets {
		if w.Location == nil {
			continue
		}
		ops = append(ops, models.TransformOp{
			WidgetID: w.ID,
			Op:       models.OpMove,
			Location: &models.Location{
				X: w.Location.X + dx,
				Y: w.Location.Y + dy,
				Z: w.Location.Z,
			},
		})
	}
	return ops
}

// ResizeWidgets returns resize ops scaling every widget's extent by
// scale. Widgets without a size are skipped.
func ResizeWidgets(widgets []models.Widget, scale float64) []models.TransformOp {
	var ops []models.TransformOp
	for _, w := range widgets {
		if w.Size == nil {
			continue
		}
		ops = append(ops, models.TransformOp{
			WidgetID: w.ID,
			Op:       models.OpResize,
			Size: &geometry.Size{
				Width:  w.Size.Width * scale,
				Height: w.Size.Height * scale,
			},
		})
	}
	return ops
}

// Density returns widgets-per-square-unit for the widgets intersecting
// area. Zero-area rectangles have zero density.
func Density(widgets []models.Widget, area geometry.Rect) float64 {
	if area.Area() <= 0 {
		return 0
	}
	return float64(len(widget.InArea(widgets, area))) / area.Area()
}

func zoneID(name string, members int) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprintf("zone-%d-%08x", members, h.Sum32())
}
