// Package spatialservice coordinates the snapshot store, the canvas
// index, and the spatial engine behind one service type. The HTTP and
// MCP surfaces both sit on top of it.
package spatialservice

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/filter"
	"github.com/starford/raido/internal/geometry"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/reparent"
	"github.com/starford/raido/internal/search"
	"github.com/starford/raido/internal/snapshot"
	"github.com/starford/raido/internal/zone"
)

// Options tunes the engine components the service assembles.
type Options struct {
	// SearchConcurrency bounds parallel canvas scans during Search.
	SearchConcurrency int
	// ReparentMargin overrides the reparent offset when positive.
	ReparentMargin float64
	// Tolerance configures clustering distance and zone padding.
	Tolerance zone.Tolerance
}

// Service coordinates snapshot, index, and engine operations.
type Service struct {
	store    snapshot.Provider
	db       *index.DB
	zones    *zone.Manager
	searcher *search.Searcher
	planner  *reparent.Planner
}

// NewService creates a new spatial service over a snapshot store and its
// index.
func NewService(store snapshot.Provider, db *index.DB, opts Options) *Service {
	if opts.SearchConcurrency < 1 {
		opts.SearchConcurrency = 4
	}
	lister := &indexLister{db: db}
	planner := reparent.NewPlanner(
		func(_ context.Context, id string) ([]string, error) { return db.ParentChain(id) },
		func(_ context.Context, id string) (models.Location, error) { return db.WidgetLocation(id) },
	)
	if opts.ReparentMargin > 0 {
		planner.Margin = opts.ReparentMargin
	}
	return &Service{
		store:    store,
		db:       db,
		zones:    zone.NewManager(opts.Tolerance),
		searcher: search.NewSearcher(lister, opts.SearchConcurrency),
		planner:  planner,
	}
}

// indexLister adapts the index to the search collaborator interface.
type indexLister struct {
	db *index.DB
}

func (l *indexLister) ListCanvases(_ context.Context) ([]models.CanvasMeta, error) {
	return l.db.ListCanvases()
}

func (l *indexLister) ListWidgets(_ context.Context, canvasID string) ([]models.Widget, error) {
	return l.db.ListWidgets(canvasID)
}

// ListCanvases returns every indexed canvas.
func (s *Service) ListCanvases(_ context.Context) ([]models.CanvasMeta, error) {
	return s.db.ListCanvases()
}

// GetCanvas returns the metadata of one indexed canvas.
func (s *Service) GetCanvas(_ context.Context, canvasID string) (models.CanvasMeta, error) {
	return s.db.GetCanvas(canvasID)
}

// ListWidgets returns every widget of a canvas in snapshot order.
func (s *Service) ListWidgets(_ context.Context, canvasID string) ([]models.Widget, error) {
	return s.db.ListWidgets(canvasID)
}

// Search compiles criteria and evaluates it across every canvas. A nil
// or empty criteria matches all widgets. Area, when set, additionally
// requires spatial intersection.
func (s *Service) Search(ctx context.Context, criteria map[string]any, area *geometry.Rect, maxResults int) (*search.Report, error) {
	var f *filter.Filter
	if len(criteria) > 0 {
		var err error
		f, err = filter.Compile(criteria)
		if err != nil {
			return nil, err
		}
	}
	return s.searcher.Find(ctx, search.Query{Filter: f, Area: area, MaxResults: maxResults})
}

// CreateZone builds a zone from the named widgets of one canvas. An
// empty widgetIDs takes every widget on the canvas.
func (s *Service) CreateZone(ctx context.Context, canvasID, name, description string, widgetIDs []string) (*zone.Zone, error) {
	if name == "" {
		return nil, apperr.Validationf("name", "required")
	}
	widgets, err := s.selectWidgets(ctx, canvasID, widgetIDs)
	if err != nil {
		return nil, err
	}
	return s.zones.CreateZoneFromWidgets(widgets, name, description)
}

// ZoneWidgets returns the widgets of a canvas whose bounding box is
// fully contained in the zone bounds.
func (s *Service) ZoneWidgets(_ context.Context, canvasID string, z *zone.Zone) ([]models.Widget, error) {
	widgets, err := s.db.ListWidgets(canvasID)
	if err != nil {
		return nil, err
	}
	return s.zones.WidgetsInZone(widgets, z), nil
}

// Clusters finds spatial clusters among a canvas's widgets. A
// non-positive tolerance uses the configured default.
func (s *Service) Clusters(_ context.Context, canvasID string, minSize int, tolerance float64) ([][]models.Widget, error) {
	widgets, err := s.db.ListWidgets(canvasID)
	if err != nil {
		return nil, err
	}
	return s.zones.FindClusters(widgets, minSize, tolerance), nil
}

// PlanMove returns move ops shifting the named widgets by (dx, dy).
// Nothing is applied; the ops are a plan for the caller to execute.
func (s *Service) PlanMove(ctx context.Context, canvasID string, widgetIDs []string, dx, dy float64) ([]models.TransformOp, error) {
	widgets, err := s.selectWidgets(ctx, canvasID, widgetIDs)
	if err != nil {
		return nil, err
	}
	return zone.MoveWidgets(widgets, dx, dy), nil
}

// PlanResize returns resize ops scaling the named widgets. The scale
// factor must be positive.
func (s *Service) PlanResize(ctx context.Context, canvasID string, widgetIDs []string, scale float64) ([]models.TransformOp, error) {
	if scale <= 0 {
		return nil, apperr.Validationf("scale", "must be positive, got %v", scale)
	}
	widgets, err := s.selectWidgets(ctx, canvasID, widgetIDs)
	if err != nil {
		return nil, err
	}
	return zone.ResizeWidgets(widgets, scale), nil
}

// PlanReparent validates moving a widget under a new parent and returns
// the reparent op with its adjusted location. The hierarchy is read
// fresh from the index on every call.
func (s *Service) PlanReparent(ctx context.Context, widgetID, newParentID string) (*models.TransformOp, error) {
	loc, err := s.db.WidgetLocation(widgetID)
	if err != nil {
		return nil, err
	}
	chain, err := s.db.ParentChain(widgetID)
	if err != nil {
		return nil, err
	}
	currentParent := models.RootParent
	if len(chain) > 0 {
		currentParent = chain[0]
	}
	return s.planner.Plan(ctx, reparent.Request{
		WidgetID:        widgetID,
		CurrentParentID: currentParent,
		NewParentID:     newParentID,
		CurrentLocation: loc,
	})
}

// Density returns widgets-per-square-unit for the part of a canvas
// intersecting area.
func (s *Service) Density(_ context.Context, canvasID string, area geometry.Rect) (float64, error) {
	widgets, err := s.db.ListWidgets(canvasID)
	if err != nil {
		return 0, err
	}
	return zone.Density(widgets, area), nil
}

// ImportSnapshot validates, stores, and indexes a snapshot document.
// The embedded canvas id must match canvasID; nothing is written on a
// mismatch.
func (s *Service) ImportSnapshot(_ context.Context, canvasID string, data []byte) (models.CanvasMeta, error) {
	doc, err := snapshot.Decode(data)
	if err != nil {
		return models.CanvasMeta{}, apperr.Validationf("snapshot", "%v", err)
	}
	if doc.Canvas.ID != canvasID {
		return models.CanvasMeta{}, apperr.Validationf("canvas.id", "document names canvas %q, expected %q", doc.Canvas.ID, canvasID)
	}
	if err := s.store.Write(doc.Canvas.ID, data); err != nil {
		return models.CanvasMeta{}, err
	}
	row := index.CanvasRow{
		ID:        doc.Canvas.ID,
		Name:      doc.Canvas.Name,
		Checksum:  snapshot.Checksum(data),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.db.UpsertCanvas(row, doc.Widgets); err != nil {
		return models.CanvasMeta{}, err
	}
	return doc.Canvas, nil
}

// DeleteSnapshot removes a canvas from both the store and the index.
func (s *Service) DeleteSnapshot(_ context.Context, canvasID string) error {
	if err := s.store.Delete(canvasID); err != nil {
		return err
	}
	return s.db.DeleteCanvas(canvasID)
}

// selectWidgets lists a canvas and filters to the requested ids,
// preserving canvas order. Empty ids selects the whole canvas. A
// requested id absent from the canvas is an error.
func (s *Service) selectWidgets(_ context.Context, canvasID string, widgetIDs []string) ([]models.Widget, error) {
	widgets, err := s.db.ListWidgets(canvasID)
	if err != nil {
		return nil, err
	}
	if len(widgetIDs) == 0 {
		return widgets, nil
	}
	want := make(map[string]struct{}, len(widgetIDs))
	for _, id := range widgetIDs {
		want[id] = struct{}{}
	}
	out := make([]models.Widget, 0, len(widgetIDs))
	for _, w := range widgets {
		if _, ok := want[w.ID]; ok {
			out = append(out, w)
			delete(want, w.ID)
		}
	}
	for id := range want {
		return nil, fmt.Errorf("spatialservice: widget %s not on canvas %s: %w", id, canvasID, apperr.ErrNotFound)
	}
	return out, nil
}
