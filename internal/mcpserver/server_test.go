package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/spatialservice"
	"github.com/starford/raido/internal/testutil"
)

func testServer(t *testing.T) (*Server, *index.DB) {
	t.Helper()
	_, store := testutil.TestSnapshots(t)
	db := testutil.TestDB(t)
	svc := spatialservice.NewService(store, db, spatialservice.Options{})
	return New(svc), db
}

func seedCanvas(t *testing.T, db *index.DB, canvasID, name string, records ...map[string]any) {
	t.Helper()
	row := index.CanvasRow{ID: canvasID, Name: name, Checksum: canvasID + "-cs", UpdatedAt: time.Now()}
	if err := db.UpsertCanvas(row, records); err != nil {
		t.Fatal(err)
	}
}

func noteRec(id, text string, x, y float64) map[string]any {
	return map[string]any{
		"id":          id,
		"widget_type": "note",
		"location":    map[string]any{"x": x, "y": y},
		"size":        map[string]any{"width": 100.0, "height": 100.0},
		"text":        text,
	}
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go does not expose a direct "call tool" test helper, so the
	// handler functions are exercised directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_canvases":
		result, err = srv.listCanvases(ctx, req)
	case "list_widgets":
		result, err = srv.listWidgets(ctx, req)
	case "search_widgets":
		result, err = srv.searchWidgets(ctx, req)
	case "create_zone":
		result, err = srv.createZone(ctx, req)
	case "find_clusters":
		result, err = srv.findClusters(ctx, req)
	case "plan_move":
		result, err = srv.planMove(ctx, req)
	case "plan_resize":
		result, err = srv.planResize(ctx, req)
	case "plan_reparent":
		result, err = srv.planReparent(ctx, req)
	case "get_filter_contract":
		result, err = srv.getFilterContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListCanvasesAndWidgets(t *testing.T) {
	srv, db := testServer(t)
	seedCanvas(t, db, "c1", "Alpha", noteRec("w1", "hello", 0, 0))

	r := callTool(t, srv, "list_canvases", map[string]interface{}{})
	if !strings.Contains(resultText(r), "Alpha") {
		t.Errorf("list_canvases = %q", resultText(r))
	}

	r = callTool(t, srv, "list_widgets", map[string]interface{}{"canvas_id": "c1"})
	if !strings.Contains(resultText(r), "w1") {
		t.Errorf("list_widgets = %q", resultText(r))
	}

	r = callTool(t, srv, "list_widgets", map[string]interface{}{"canvas_id": "ghost"})
	if !r.IsError {
		t.Error("expected error for unknown canvas")
	}
}

func TestSearchWidgets(t *testing.T) {
	srv, db := testServer(t)
	seedCanvas(t, db, "c1", "Alpha",
		noteRec("w1", "roadmap q3", 0, 0),
		noteRec("w2", "retro notes", 300, 0),
	)

	r := callTool(t, srv, "search_widgets", map[string]interface{}{
		"criteria": `{"properties.text": "roadmap*"}`,
	})
	text := resultText(r)
	if !strings.Contains(text, "w1") || strings.Contains(text, `"w2"`) {
		t.Errorf("search result = %q, want only w1", text)
	}

	// Text shorthand.
	r = callTool(t, srv, "search_widgets", map[string]interface{}{"text": "retro"})
	if !strings.Contains(resultText(r), "w2") {
		t.Errorf("text search = %q, want w2", resultText(r))
	}

	// Malformed criteria string is a tool error, not a crash.
	r = callTool(t, srv, "search_widgets", map[string]interface{}{"criteria": "{nope"})
	if !r.IsError {
		t.Error("expected error for malformed criteria")
	}
}

func TestCreateZoneTool(t *testing.T) {
	srv, db := testServer(t)
	seedCanvas(t, db, "c1", "Alpha",
		noteRec("a", "", 0, 0),
		noteRec("b", "", 200, 0),
	)

	r := callTool(t, srv, "create_zone", map[string]interface{}{
		"canvas_id":  "c1",
		"name":       "block",
		"widget_ids": "a, b",
	})
	if r.IsError {
		t.Fatalf("create_zone error: %s", resultText(r))
	}
	var z map[string]any
	if err := json.Unmarshal([]byte(resultText(r)), &z); err != nil {
		t.Fatalf("zone not JSON: %v", err)
	}
	if z["name"] != "block" {
		t.Errorf("zone = %v", z)
	}
}

func TestFindClustersTool(t *testing.T) {
	srv, db := testServer(t)
	seedCanvas(t, db, "c1", "Alpha",
		noteRec("a1", "", 0, 0),
		noteRec("a2", "", 110, 0),
		noteRec("lone", "", 9000, 9000),
	)

	r := callTool(t, srv, "find_clusters", map[string]interface{}{
		"canvas_id": "c1",
		"min_size":  float64(2),
		"tolerance": float64(15),
	})
	if r.IsError {
		t.Fatalf("find_clusters error: %s", resultText(r))
	}
	var clusters []any
	if err := json.Unmarshal([]byte(resultText(r)), &clusters); err != nil {
		t.Fatalf("clusters not JSON: %v", err)
	}
	if len(clusters) != 1 {
		t.Errorf("clusters = %d, want 1", len(clusters))
	}
}

func TestPlanTools(t *testing.T) {
	srv, db := testServer(t)
	seedCanvas(t, db, "c1", "Alpha",
		noteRec("parent1", "", 40, 40),
		noteRec("free1", "", 100, 100),
	)

	r := callTool(t, srv, "plan_move", map[string]interface{}{
		"canvas_id":  "c1",
		"widget_ids": "free1",
		"dx":         float64(10),
		"dy":         float64(-10),
	})
	if r.IsError || !strings.Contains(resultText(r), "free1") {
		t.Errorf("plan_move = %q", resultText(r))
	}

	r = callTool(t, srv, "plan_resize", map[string]interface{}{
		"canvas_id": "c1",
		"scale":     float64(2),
	})
	if r.IsError {
		t.Errorf("plan_resize error: %s", resultText(r))
	}

	r = callTool(t, srv, "plan_resize", map[string]interface{}{
		"canvas_id": "c1",
		"scale":     float64(0),
	})
	if !r.IsError {
		t.Error("expected error for zero scale")
	}

	r = callTool(t, srv, "plan_reparent", map[string]interface{}{
		"widget_id":     "free1",
		"new_parent_id": "parent1",
	})
	if r.IsError {
		t.Fatalf("plan_reparent error: %s", resultText(r))
	}
	var op map[string]any
	if err := json.Unmarshal([]byte(resultText(r)), &op); err != nil {
		t.Fatalf("op not JSON: %v", err)
	}
	loc := op["location"].(map[string]any)
	if loc["x"].(float64) != 30 || loc["y"].(float64) != 30 {
		t.Errorf("adjusted location = %v, want (30, 30)", loc)
	}
}

func TestFilterContractTool(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_filter_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "$gt") {
		t.Error("contract should document comparison operators")
	}
}
