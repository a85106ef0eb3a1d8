package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/geometry"
	"github.com/starford/raido/internal/search"
	"github.com/starford/raido/internal/zone"
)

// AreaDTO is an axis-aligned rectangle in request payloads.
type AreaDTO struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width" example:"800"`
	Height float64 `json:"height" example:"600"`
}

// Validate implements request validation for AreaDTO.
func (a AreaDTO) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Width, validation.Min(0.0)),
		validation.Field(&a.Height, validation.Min(0.0)),
	)
}

// Rect converts the DTO into engine geometry.
func (a AreaDTO) Rect() geometry.Rect {
	return geometry.NewRect(a.X, a.Y, a.Width, a.Height)
}

// SearchRequest is the request body for POST /search.
type SearchRequest struct {
	Criteria   map[string]any `json:"criteria"`
	Area       *AreaDTO       `json:"area,omitempty"`
	MaxResults int            `json:"max_results" example:"100"`
}

// Validate implements request validation for SearchRequest.
func (r SearchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxResults, validation.Min(0)),
		validation.Field(&r.Area),
	)
}

// SearchResponse wraps search results and per-canvas failures.
type SearchResponse = search.Report

// CreateZoneRequest is the request body for creating a zone.
type CreateZoneRequest struct {
	Name        string   `json:"name" example:"sprint backlog" validate:"required"`
	Description string   `json:"description,omitempty"`
	WidgetIDs   []string `json:"widget_ids,omitempty"`
}

// Validate implements request validation for CreateZoneRequest.
func (r CreateZoneRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

// ZoneResponse is the created zone (aliased from the domain layer).
type ZoneResponse = zone.Zone

// ClustersRequest is the request body for cluster detection.
type ClustersRequest struct {
	MinSize   int     `json:"min_size" example:"2"`
	Tolerance float64 `json:"tolerance" example:"20"`
}

// Validate implements request validation for ClustersRequest.
func (r ClustersRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MinSize, validation.Min(0)),
		validation.Field(&r.Tolerance, validation.Min(0.0)),
	)
}

// MoveRequest is the request body for a batch move plan.
type MoveRequest struct {
	WidgetIDs []string `json:"widget_ids,omitempty"`
	DX        float64  `json:"dx"`
	DY        float64  `json:"dy"`
}

// ResizeRequest is the request body for a batch resize plan.
type ResizeRequest struct {
	WidgetIDs []string `json:"widget_ids,omitempty"`
	Scale     float64  `json:"scale" example:"1.5" validate:"required"`
}

// Validate implements request validation for ResizeRequest.
func (r ResizeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Scale, validation.Required, validation.Min(0.0).Exclusive()),
	)
}

// ReparentRequest is the request body for a reparent plan. An empty
// new_parent_id moves the widget to the canvas root.
type ReparentRequest struct {
	NewParentID string `json:"new_parent_id"`
}
