// Package reparent computes the coordinate adjustment needed when a
// widget's parent changes, and rejects changes that would create a cycle
// in the parent/child graph.
package reparent

import (
	"context"
	"fmt"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// DefaultMargin is the offset subtracted from the adjusted location so
// the widget does not land exactly on its new parent's origin. The value
// was observed against real server behavior; verify it against the
// target server and override via Planner.Margin if it differs.
const DefaultMargin = 30.0

// ChainResolver returns the ordered ancestor ids of a widget, nearest
// first, ending at the root. Supplied by the caller; its blocking
// behavior is outside this package's control.
type ChainResolver func(ctx context.Context, widgetID string) ([]string, error)

// LocationResolver returns a widget's current location.
type LocationResolver func(ctx context.Context, widgetID string) (models.Location, error)

// Request describes a single prospective parent change.
type Request struct {
	WidgetID        string
	CurrentParentID string
	NewParentID     string
	// CurrentLocation is the widget's absolute rendered position.
	CurrentLocation models.Location
}

// Planner computes reparent transform plans. It performs no I/O of its
// own beyond the caller-supplied resolvers and never applies anything.
type Planner struct {
	// Margin is subtracted from the adjusted location. Defaults to
	// DefaultMargin in NewPlanner.
	Margin float64

	chain ChainResolver
	loc   LocationResolver
}

// NewPlanner creates a Planner using the given resolvers.
func NewPlanner(chain ChainResolver, loc LocationResolver) *Planner {
	return &Planner{Margin: DefaultMargin, chain: chain, loc: loc}
}

// Plan validates the parent change and returns the single reparent op
// carrying both the new parent id and the adjusted location.
//
// The hierarchy may have changed by the time the op is applied: re-run
// Plan against a fresh snapshot immediately before applying. No locking
// or transaction is provided here; the caller owns consistency.
func (p *Planner) Plan(ctx context.Context, req Request) (*models.TransformOp, error) {
	if req.WidgetID == "" {
		return nil, apperr.Validationf("widget_id", "required")
	}
	if req.NewParentID == req.WidgetID {
		return nil, &apperr.CircularReferenceError{WidgetID: req.WidgetID, NewParentID: req.NewParentID}
	}

	if err := p.checkCycle(ctx, req.WidgetID, req.NewParentID); err != nil {
		return nil, err
	}

	parentLoc := models.Location{} // root sentinel parents sit at the origin
	if req.NewParentID != models.RootParent {
		loc, err := p.loc(ctx, req.NewParentID)
		if err != nil {
			return nil, fmt.Errorf("reparent: resolve parent %s location: %w", req.NewParentID, err)
		}
		parentLoc = loc
	}

	newLoc := models.Location{
		X: req.CurrentLocation.X - parentLoc.X - p.Margin,
		Y: req.CurrentLocation.Y - parentLoc.Y - p.Margin,
		Z: req.CurrentLocation.Z,
	}
	parentID := req.NewParentID
	return &models.TransformOp{
		WidgetID: req.WidgetID,
		Op:       models.OpReparent,
		ParentID: &parentID,
		Location: &newLoc,
	}, nil
}

// checkCycle walks the new parent's ancestor chain looking for the
// widget. The walk carries its own visited set: the hierarchy is never
// assumed acyclic, whatever the collaborator's store enforces.
func (p *Planner) checkCycle(ctx context.Context, widgetID, newParentID string) error {
	if newParentID == models.RootParent {
		return nil
	}
	chain, err := p.chain(ctx, newParentID)
	if err != nil {
		return fmt.Errorf("reparent: resolve parent chain of %s: %w", newParentID, err)
	}
	visited := map[string]struct{}{newParentID: {}}
	for _, ancestor := range chain {
		if ancestor == widgetID {
			return &apperr.CircularReferenceError{WidgetID: widgetID, NewParentID: newParentID}
		}
		if _, seen := visited[ancestor]; seen {
			// The chain itself loops without reaching the widget; stop
			// walking rather than trusting it to terminate.
			return nil
		}
		visited[ancestor] = struct{}{}
	}
	return nil
}
