// Package search applies a compiled filter across every canvas known to
// a collaborator and collects fully qualified matches.
package search

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/filter"
	"github.com/starford/raido/internal/geometry"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/widget"
)

// Lister is the external collaborator providing canvas and widget
// listings. Implementations own transport, auth, and retry policy.
type Lister interface {
	ListCanvases(ctx context.Context) ([]models.CanvasMeta, error)
	ListWidgets(ctx context.Context, canvasID string) ([]models.Widget, error)
}

// Result is one matched widget, tagged with its canvas.
type Result struct {
	CanvasID   string        `json:"canvas_id"`
	CanvasName string        `json:"canvas_name,omitempty"`
	WidgetID   string        `json:"widget_id"`
	Widget     models.Widget `json:"widget"`
}

// Failure records a canvas whose widget listing failed. Failures do not
// abort the search; partial success is an expected outcome.
type Failure struct {
	CanvasID string `json:"canvas_id"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}

// Report carries both the matches and the per-canvas failures.
type Report struct {
	Results  []Result  `json:"results"`
	Failures []Failure `json:"failures,omitempty"`
}

// Query describes one cross-canvas search. A nil Filter matches every
// widget. Area, when set, additionally requires the widget's bounding
// box to intersect it. MaxResults of 0 means unlimited.
type Query struct {
	Filter     *filter.Filter
	Area       *geometry.Rect
	MaxResults int
}

// Searcher fans a query out over canvases with bounded concurrency.
type Searcher struct {
	lister Lister
	limit  int
}

// NewSearcher creates a Searcher issuing at most limit concurrent canvas
// fetches (minimum 1).
func NewSearcher(lister Lister, limit int) *Searcher {
	if limit < 1 {
		limit = 1
	}
	return &Searcher{lister: lister, limit: limit}
}

// Find evaluates q against every canvas. One fetch failure is recorded
// in the report and does not stop the remaining canvases. Result order
// across canvases is unspecified; within one canvas the listing order is
// preserved. On context cancellation no new fetches are issued and the
// partial report accumulated so far is returned together with ctx.Err().
func (s *Searcher) Find(ctx context.Context, q Query) (*Report, error) {
	canvases, err := s.lister.ListCanvases(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var mu sync.Mutex

	g := &errgroup.Group{}
	g.SetLimit(s.limit)

	for _, canvas := range canvases {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			mu.Lock()
			full := q.MaxResults > 0 && len(report.Results) >= q.MaxResults
			mu.Unlock()
			if full || ctx.Err() != nil {
				return nil
			}

			widgets, err := s.lister.ListWidgets(ctx, canvas.ID)
			if err != nil {
				mu.Lock()
				report.Failures = append(report.Failures, Failure{
					CanvasID: canvas.ID,
					Err:      err,
					Message:  err.Error(),
				})
				mu.Unlock()
				return nil
			}

			var matches []Result
			for _, w := range widgets {
				if !s.matches(q, w) {
					continue
				}
				matches = append(matches, Result{
					CanvasID:   canvas.ID,
					CanvasName: canvas.Name,
					WidgetID:   w.ID,
					Widget:     w,
				})
			}
			if len(matches) == 0 {
				return nil
			}

			mu.Lock()
			if q.MaxResults > 0 && len(report.Results)+len(matches) > q.MaxResults {
				matches = matches[:q.MaxResults-len(report.Results)]
			}
			report.Results = append(report.Results, matches...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // per-canvas errors are recorded, never returned

	return report, ctx.Err()
}

func (s *Searcher) matches(q Query, w models.Widget) bool {
	if q.Area != nil {
		box, err := widget.BoundingBox(w)
		if err != nil || !geometry.Intersects(box, *q.Area) {
			return false
		}
	}
	if q.Filter == nil {
		return true
	}
	return q.Filter.Matches(w.Record())
}

// TextCriteria builds criteria matching widgets whose title or text
// contains text.
func TextCriteria(text string) map[string]any {
	pattern := "*" + text + "*"
	return map[string]any{
		"$or": []any{
			map[string]any{"properties.text": pattern},
			map[string]any{"properties.title": pattern},
		},
	}
}

// TypeCriteria builds criteria matching widgets of the given type.
func TypeCriteria(widgetType string) map[string]any {
	return map[string]any{"type": widgetType}
}
