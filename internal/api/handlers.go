package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/geometry"
	"github.com/starford/raido/internal/spatialservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *spatialservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *spatialservice.Service) *Handler {
	return &Handler{svc: svc}
}

// decodeBody decodes a JSON request body into v with a size cap.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// writeServiceErr maps domain errors onto HTTP statuses.
func writeServiceErr(w http.ResponseWriter, action string, err error) {
	var verr *apperr.ValidationError
	var cerr *apperr.CircularReferenceError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody(verr.Error()))
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusConflict, errorBody(cerr.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error(action+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListCanvases handles GET /api/canvases.
//
//	@Summary		List indexed canvases
//	@Tags			canvases
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/canvases [get]
func (h *Handler) ListCanvases(w http.ResponseWriter, r *http.Request) {
	canvases, err := h.svc.ListCanvases(r.Context())
	if err != nil {
		writeServiceErr(w, "list canvases", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"canvases": canvases,
		"total":    len(canvases),
	})
}

// ListWidgets handles GET /api/canvases/{canvasID}/widgets.
//
//	@Summary		List the widgets of one canvas
//	@Tags			canvases
//	@Produce		json
//	@Param			canvasID	path		string	true	"Canvas id"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{canvasID}/widgets [get]
func (h *Handler) ListWidgets(w http.ResponseWriter, r *http.Request) {
	canvasID := chi.URLParam(r, "canvasID")
	widgets, err := h.svc.ListWidgets(r.Context(), canvasID)
	if err != nil {
		writeServiceErr(w, "list widgets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"widgets": widgets,
		"total":   len(widgets),
	})
}

// Search handles POST /api/search.
//
//	@Summary		Search widgets across every canvas
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SearchRequest	true	"Criteria and optional area"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [post]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	var area *geometry.Rect
	if req.Area != nil {
		rect := req.Area.Rect()
		area = &rect
	}
	report, err := h.svc.Search(r.Context(), req.Criteria, area, req.MaxResults)
	if err != nil {
		writeServiceErr(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CreateZone handles POST /api/canvases/{canvasID}/zones.
//
//	@Summary		Create a zone from a canvas's widgets
//	@Tags			zones
//	@Accept			json
//	@Produce		json
//	@Param			canvasID	path		string				true	"Canvas id"
//	@Param			body		body		CreateZoneRequest	true	"Zone definition"
//	@Success		201			{object}	ZoneResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{canvasID}/zones [post]
func (h *Handler) CreateZone(w http.ResponseWriter, r *http.Request) {
	canvasID := chi.URLParam(r, "canvasID")
	var req CreateZoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	z, err := h.svc.CreateZone(r.Context(), canvasID, req.Name, req.Description, req.WidgetIDs)
	if err != nil {
		writeServiceErr(w, "create zone", err)
		return
	}
	writeJSON(w, http.StatusCreated, z)
}

// Clusters handles POST /api/canvases/{canvasID}/clusters.
//
//	@Summary		Detect spatial clusters on a canvas
//	@Tags			zones
//	@Accept			json
//	@Produce		json
//	@Param			canvasID	path		string			true	"Canvas id"
//	@Param			body		body		ClustersRequest	true	"Cluster parameters"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{canvasID}/clusters [post]
func (h *Handler) Clusters(w http.ResponseWriter, r *http.Request) {
	canvasID := chi.URLParam(r, "canvasID")
	var req ClustersRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	clusters, err := h.svc.Clusters(r.Context(), canvasID, req.MinSize, req.Tolerance)
	if err != nil {
		writeServiceErr(w, "clusters", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"clusters": clusters,
		"total":    len(clusters),
	})
}

// PlanMove handles POST /api/canvases/{canvasID}/transforms/move.
//
//	@Summary		Plan a batch move of widgets
//	@Tags			transforms
//	@Accept			json
//	@Produce		json
//	@Param			canvasID	path		string		true	"Canvas id"
//	@Param			body		body		MoveRequest	true	"Widgets and offset"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{canvasID}/transforms/move [post]
func (h *Handler) PlanMove(w http.ResponseWriter, r *http.Request) {
	canvasID := chi.URLParam(r, "canvasID")
	var req MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ops, err := h.svc.PlanMove(r.Context(), canvasID, req.WidgetIDs, req.DX, req.DY)
	if err != nil {
		writeServiceErr(w, "plan move", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ops": ops})
}

// PlanResize handles POST /api/canvases/{canvasID}/transforms/resize.
//
//	@Summary		Plan a batch resize of widgets
//	@Tags			transforms
//	@Accept			json
//	@Produce		json
//	@Param			canvasID	path		string			true	"Canvas id"
//	@Param			body		body		ResizeRequest	true	"Widgets and scale factor"
//	@Success		200			{object}	map[string]any
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{canvasID}/transforms/resize [post]
func (h *Handler) PlanResize(w http.ResponseWriter, r *http.Request) {
	canvasID := chi.URLParam(r, "canvasID")
	var req ResizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	ops, err := h.svc.PlanResize(r.Context(), canvasID, req.WidgetIDs, req.Scale)
	if err != nil {
		writeServiceErr(w, "plan resize", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ops": ops})
}

// PlanReparent handles POST /api/widgets/{widgetID}/reparent.
//
//	@Summary		Plan moving a widget under a new parent
//	@Tags			transforms
//	@Accept			json
//	@Produce		json
//	@Param			widgetID	path		string			true	"Widget id"
//	@Param			body		body		ReparentRequest	true	"New parent"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/widgets/{widgetID}/reparent [post]
func (h *Handler) PlanReparent(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetID")
	var req ReparentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	op, err := h.svc.PlanReparent(r.Context(), widgetID, req.NewParentID)
	if err != nil {
		writeServiceErr(w, "plan reparent", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"op": op})
}

// ImportSnapshot handles PUT /api/canvases/{canvasID}/snapshot.
//
//	@Summary		Import a canvas snapshot document
//	@Tags			snapshots
//	@Accept			json
//	@Produce		json
//	@Param			canvasID	path		string	true	"Canvas id"
//	@Success		200			{object}	map[string]any
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{canvasID}/snapshot [put]
func (h *Handler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	canvasID := chi.URLParam(r, "canvasID")
	r.Body = http.MaxBytesReader(w, r.Body, 50<<20)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	meta, err := h.svc.ImportSnapshot(r.Context(), canvasID, data)
	if err != nil {
		writeServiceErr(w, "import snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"canvas": meta})
}

// DeleteSnapshot handles DELETE /api/canvases/{canvasID}/snapshot.
//
//	@Summary		Delete a canvas snapshot
//	@Tags			snapshots
//	@Param			canvasID	path	string	true	"Canvas id"
//	@Success		204			"Snapshot deleted"
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{canvasID}/snapshot [delete]
func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	canvasID := chi.URLParam(r, "canvasID")
	if err := h.svc.DeleteSnapshot(r.Context(), canvasID); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
