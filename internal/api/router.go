package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/starford/raido/internal/spatialservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *spatialservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Canvas listings.
	r.Get("/canvases", h.ListCanvases)
	r.Get("/canvases/{canvasID}/widgets", h.ListWidgets)

	// Cross-canvas search.
	r.Post("/search", h.Search)

	// Zones and clustering.
	r.Post("/canvases/{canvasID}/zones", h.CreateZone)
	r.Post("/canvases/{canvasID}/clusters", h.Clusters)

	// Transform planning.
	r.Post("/canvases/{canvasID}/transforms/move", h.PlanMove)
	r.Post("/canvases/{canvasID}/transforms/resize", h.PlanResize)
	r.Post("/widgets/{widgetID}/reparent", h.PlanReparent)

	// Snapshot management.
	r.Put("/canvases/{canvasID}/snapshot", h.ImportSnapshot)
	r.Delete("/canvases/{canvasID}/snapshot", h.DeleteSnapshot)

	return r
}
