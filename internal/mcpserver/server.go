// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Raido's spatial query tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/search"
	"github.com/starford/raido/internal/spatialservice"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp *server.MCPServer
	svc *spatialservice.Service
}

// New creates a new MCP server with all Raido tools registered.
func New(svc *spatialservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_canvases",
		mcp.WithDescription("List every canvas known to the local snapshot index."),
	), s.listCanvases)

	s.mcp.AddTool(mcp.NewTool("list_widgets",
		mcp.WithDescription("List the widgets of one canvas in snapshot order."),
		mcp.WithString("canvas_id", mcp.Required(), mcp.Description("Canvas id")),
	), s.listWidgets)

	s.mcp.AddTool(mcp.NewTool("search_widgets",
		mcp.WithDescription("Search widgets across every canvas using JSON criteria. "+
			"Criteria MUST follow the filter language; read it first via the "+
			"get_filter_contract tool or the raido://filter-language resource. "+
			"An optional area restricts matches to widgets intersecting it."),
		mcp.WithString("criteria", mcp.Description("Criteria as a JSON object string (empty matches everything)")),
		mcp.WithString("text", mcp.Description("Shorthand: match widgets whose text or title contains this")),
		mcp.WithNumber("max_results", mcp.Description("Stop after this many matches (0 for unlimited)")),
	), s.searchWidgets)

	s.mcp.AddTool(mcp.NewTool("create_zone",
		mcp.WithDescription("Create a named zone from widgets of one canvas. The zone bounds "+
			"are the union of the member bounding boxes."),
		mcp.WithString("canvas_id", mcp.Required(), mcp.Description("Canvas id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Zone name")),
		mcp.WithString("description", mcp.Description("Optional zone description")),
		mcp.WithString("widget_ids", mcp.Description("Comma-separated widget ids (empty takes the whole canvas)")),
	), s.createZone)

	s.mcp.AddTool(mcp.NewTool("find_clusters",
		mcp.WithDescription("Detect spatial clusters of widgets on a canvas."),
		mcp.WithString("canvas_id", mcp.Required(), mcp.Description("Canvas id")),
		mcp.WithNumber("min_size", mcp.Description("Discard clusters smaller than this (default 2)")),
		mcp.WithNumber("tolerance", mcp.Description("Grouping distance between boxes (0 uses the default)")),
	), s.findClusters)

	s.mcp.AddTool(mcp.NewTool("plan_move",
		mcp.WithDescription("Plan moving widgets by an offset. Returns transform ops; nothing is applied."),
		mcp.WithString("canvas_id", mcp.Required(), mcp.Description("Canvas id")),
		mcp.WithString("widget_ids", mcp.Description("Comma-separated widget ids (empty takes the whole canvas)")),
		mcp.WithNumber("dx", mcp.Description("Horizontal offset")),
		mcp.WithNumber("dy", mcp.Description("Vertical offset")),
	), s.planMove)

	s.mcp.AddTool(mcp.NewTool("plan_resize",
		mcp.WithDescription("Plan scaling widget sizes by a positive factor. Returns transform ops; nothing is applied."),
		mcp.WithString("canvas_id", mcp.Required(), mcp.Description("Canvas id")),
		mcp.WithString("widget_ids", mcp.Description("Comma-separated widget ids (empty takes the whole canvas)")),
		mcp.WithNumber("scale", mcp.Required(), mcp.Description("Scale factor, must be positive")),
	), s.planResize)

	s.mcp.AddTool(mcp.NewTool("plan_reparent",
		mcp.WithDescription("Plan moving a widget under a new parent. Rejects changes that would "+
			"create a cycle and returns the op with its adjusted location."),
		mcp.WithString("widget_id", mcp.Required(), mcp.Description("Widget to reparent")),
		mcp.WithString("new_parent_id", mcp.Description("New parent widget id (empty for the canvas root)")),
	), s.planReparent)

	s.mcp.AddTool(mcp.NewTool("get_filter_contract",
		mcp.WithDescription("Returns the filter criteria language contract. "+
			"Call this before building search criteria."),
	), s.getFilterContract)

	// Resource: filter criteria language.
	s.mcp.AddResource(
		mcp.NewResource("raido://filter-language", "Filter Criteria Contract",
			mcp.WithResourceDescription("The JSON criteria language accepted by search_widgets."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFilterResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listCanvases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	canvases, err := s.svc.ListCanvases(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(canvases, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listWidgets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	canvasID, err := req.RequireString("canvas_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	widgets, err := s.svc.ListWidgets(ctx, canvasID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(widgets, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchWidgets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	criteria := map[string]any{}
	if raw := req.GetString("criteria", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &criteria); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("criteria is not a JSON object: %v", err)), nil
		}
	}
	if text := req.GetString("text", ""); text != "" {
		if len(criteria) > 0 {
			return mcp.NewToolResultError("pass either criteria or text, not both"), nil
		}
		criteria = search.TextCriteria(text)
	}
	maxResults := req.GetInt("max_results", 0)

	report, err := s.svc.Search(ctx, criteria, nil, maxResults)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createZone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	canvasID, err := req.RequireString("canvas_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description := req.GetString("description", "")

	z, err := s.svc.CreateZone(ctx, canvasID, name, description, splitIDs(req.GetString("widget_ids", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(z, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findClusters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	canvasID, err := req.RequireString("canvas_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	minSize := req.GetInt("min_size", 2)
	tolerance := req.GetFloat("tolerance", 0)

	clusters, err := s.svc.Clusters(ctx, canvasID, minSize, tolerance)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(clusters, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) planMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	canvasID, err := req.RequireString("canvas_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ops, err := s.svc.PlanMove(ctx, canvasID, splitIDs(req.GetString("widget_ids", "")),
		req.GetFloat("dx", 0), req.GetFloat("dy", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(ops, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) planResize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	canvasID, err := req.RequireString("canvas_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	scale, err := req.RequireFloat("scale")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ops, err := s.svc.PlanResize(ctx, canvasID, splitIDs(req.GetString("widget_ids", "")), scale)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(ops, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) planReparent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	widgetID, err := req.RequireString("widget_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	op, err := s.svc.PlanReparent(ctx, widgetID, req.GetString("new_parent_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(op, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getFilterContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FilterContract), nil
}

func (s *Server) readFilterResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://filter-language",
			MIMEType: "text/markdown",
			Text:     FilterContract,
		},
	}, nil
}

// splitIDs parses a comma-separated id list, dropping empty entries.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
