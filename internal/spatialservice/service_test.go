package spatialservice

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/geometry"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/snapshot"
)

func testService(t *testing.T) (*Service, *index.DB) {
	t.Helper()
	store, err := snapshot.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.CreateTemp("", "raido-svc-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	db, err := index.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(store, db, Options{}), db
}

func rec(id, typ, parent string, x, y, w, h float64, extra map[string]any) map[string]any {
	m := map[string]any{
		"id":          id,
		"widget_type": typ,
		"parent_id":   parent,
		"location":    map[string]any{"x": x, "y": y},
		"size":        map[string]any{"width": w, "height": h},
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func seedCanvas(t *testing.T, db *index.DB, id, name string, records ...map[string]any) {
	t.Helper()
	row := index.CanvasRow{ID: id, Name: name, Checksum: id + "-cs", UpdatedAt: time.Now()}
	if err := db.UpsertCanvas(row, records); err != nil {
		t.Fatal(err)
	}
}

func TestSearch_CriteriaAndArea(t *testing.T) {
	svc, db := testService(t)
	seedCanvas(t, db, "c1", "Alpha",
		rec("n1", "note", "", 0, 0, 100, 100, map[string]any{"text": "budget draft"}),
		rec("n2", "note", "", 500, 500, 100, 100, map[string]any{"text": "budget final"}),
		rec("i1", "image", "", 10, 10, 50, 50, nil),
	)
	seedCanvas(t, db, "c2", "Beta",
		rec("n3", "note", "", 5, 5, 40, 40, map[string]any{"text": "unrelated"}),
	)

	report, err := svc.Search(context.Background(), map[string]any{"type": "note", "properties.text": "budget*"}, nil, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(report.Results) != 2 || len(report.Failures) != 0 {
		t.Fatalf("report = %+v, want 2 results", report)
	}

	// Restrict to the area around the origin.
	area := geometry.NewRect(0, 0, 200, 200)
	report, err = svc.Search(context.Background(), map[string]any{"type": "note"}, &area, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(report.Results) != 2 {
		t.Errorf("area results = %+v, want n1 and n3", report.Results)
	}
	for _, r := range report.Results {
		if r.WidgetID == "n2" {
			t.Errorf("n2 lies outside the area, results = %+v", report.Results)
		}
	}
}

func TestSearch_EmptyCriteriaMatchesAll(t *testing.T) {
	svc, db := testService(t)
	seedCanvas(t, db, "c1", "Alpha",
		rec("n1", "note", "", 0, 0, 10, 10, nil),
		rec("i1", "image", "", 20, 20, 10, 10, nil),
	)

	report, err := svc.Search(context.Background(), nil, nil, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(report.Results) != 2 {
		t.Errorf("results = %+v, want all widgets", report.Results)
	}
}

func TestSearch_InvalidCriteria(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.Search(context.Background(), map[string]any{"x": map[string]any{"$gt": "high"}}, nil, 0)
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestCreateZone(t *testing.T) {
	svc, db := testService(t)
	seedCanvas(t, db, "c1", "Alpha",
		rec("a", "note", "", 0, 0, 100, 100, nil),
		rec("b", "note", "", 200, 0, 100, 100, nil),
		rec("far", "note", "", 900, 900, 10, 10, nil),
	)

	z, err := svc.CreateZone(context.Background(), "c1", "left block", "", []string{"a", "b"})
	if err != nil {
		t.Fatalf("CreateZone: %v", err)
	}
	if len(z.MemberIDs) != 2 {
		t.Errorf("members = %v, want [a b]", z.MemberIDs)
	}
	want := geometry.NewRect(0, 0, 300, 100)
	if z.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", z.Bounds, want)
	}

	if _, err := svc.CreateZone(context.Background(), "c1", "", "", nil); err == nil {
		t.Error("expected validation error for empty name")
	}
	if _, err := svc.CreateZone(context.Background(), "c1", "z", "", []string{"ghost"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for unknown member", err)
	}
}

func TestGetCanvas(t *testing.T) {
	svc, db := testService(t)
	seedCanvas(t, db, "c1", "Alpha")

	meta, err := svc.GetCanvas(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetCanvas: %v", err)
	}
	if meta.ID != "c1" || meta.Name != "Alpha" {
		t.Errorf("meta = %+v", meta)
	}

	if _, err := svc.GetCanvas(context.Background(), "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestZoneWidgets(t *testing.T) {
	svc, db := testService(t)
	seedCanvas(t, db, "c1", "Alpha",
		rec("a", "note", "", 10, 10, 50, 50, nil),
		rec("b", "note", "", 400, 400, 50, 50, nil),
	)

	z, err := svc.CreateZone(context.Background(), "c1", "corner", "", []string{"a"})
	if err != nil {
		t.Fatalf("CreateZone: %v", err)
	}
	widgets, err := svc.ZoneWidgets(context.Background(), "c1", z)
	if err != nil {
		t.Fatalf("ZoneWidgets: %v", err)
	}
	if len(widgets) != 1 || widgets[0].ID != "a" {
		t.Errorf("widgets = %+v, want only a", widgets)
	}
}

func TestClusters(t *testing.T) {
	svc, db := testService(t)
	// Two tight pairs far apart plus one straggler.
	seedCanvas(t, db, "c1", "Alpha",
		rec("a1", "note", "", 0, 0, 50, 50, nil),
		rec("a2", "note", "", 60, 0, 50, 50, nil),
		rec("b1", "note", "", 1000, 1000, 50, 50, nil),
		rec("b2", "note", "", 1060, 1000, 50, 50, nil),
		rec("lone", "note", "", 5000, 5000, 50, 50, nil),
	)

	clusters, err := svc.Clusters(context.Background(), "c1", 2, 15)
	if err != nil {
		t.Fatalf("Clusters: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	for _, c := range clusters {
		if len(c) != 2 {
			t.Errorf("cluster size = %d, want 2", len(c))
		}
	}
}

func TestPlanMoveAndResize(t *testing.T) {
	svc, db := testService(t)
	seedCanvas(t, db, "c1", "Alpha",
		rec("a", "note", "", 10, 10, 100, 50, nil),
		rec("b", "note", "", 20, 20, 100, 50, nil),
	)

	ops, err := svc.PlanMove(context.Background(), "c1", []string{"a"}, 5, -5)
	if err != nil {
		t.Fatalf("PlanMove: %v", err)
	}
	if len(ops) != 1 || ops[0].Op != models.OpMove || ops[0].Location.X != 15 || ops[0].Location.Y != 5 {
		t.Errorf("ops = %+v", ops)
	}

	ops, err = svc.PlanResize(context.Background(), "c1", nil, 2)
	if err != nil {
		t.Fatalf("PlanResize: %v", err)
	}
	if len(ops) != 2 || ops[0].Size.Width != 200 || ops[0].Size.Height != 100 {
		t.Errorf("ops = %+v", ops)
	}

	if _, err := svc.PlanResize(context.Background(), "c1", nil, 0); err == nil {
		t.Error("expected validation error for zero scale")
	}
}

func TestPlanReparent(t *testing.T) {
	svc, db := testService(t)
	seedCanvas(t, db, "c1", "Alpha",
		rec("parent1", "note", "", 40, 40, 400, 400, nil),
		rec("child1", "note", "parent1", 100, 100, 50, 50, nil),
		rec("free1", "note", "", 100, 100, 50, 50, nil),
	)

	op, err := svc.PlanReparent(context.Background(), "free1", "parent1")
	if err != nil {
		t.Fatalf("PlanReparent: %v", err)
	}
	if op.Op != models.OpReparent || *op.ParentID != "parent1" {
		t.Errorf("op = %+v", op)
	}
	if op.Location.X != 100-40-30 || op.Location.Y != 100-40-30 {
		t.Errorf("location = %+v, want (30, 30)", op.Location)
	}

	// parent1 under its own descendant is a cycle.
	var cerr *apperr.CircularReferenceError
	if _, err := svc.PlanReparent(context.Background(), "parent1", "child1"); !errors.As(err, &cerr) {
		t.Errorf("err = %v, want CircularReferenceError", err)
	}

	if _, err := svc.PlanReparent(context.Background(), "ghost", "parent1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestImportAndDeleteSnapshot(t *testing.T) {
	svc, db := testService(t)

	data, err := snapshot.Encode(&snapshot.Document{
		Canvas:  models.CanvasMeta{ID: "c9", Name: "Imported"},
		Widgets: []map[string]any{rec("w1", "note", "", 0, 0, 10, 10, nil)},
	})
	if err != nil {
		t.Fatal(err)
	}

	meta, err := svc.ImportSnapshot(context.Background(), "c9", data)
	if err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	if meta.ID != "c9" || meta.Name != "Imported" {
		t.Errorf("meta = %+v", meta)
	}
	widgets, err := db.ListWidgets("c9")
	if err != nil || len(widgets) != 1 {
		t.Fatalf("ListWidgets after import: %v, %v", widgets, err)
	}

	if err := svc.DeleteSnapshot(context.Background(), "c9"); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
	if _, err := db.ListWidgets("c9"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}

	var verr *apperr.ValidationError
	if _, err := svc.ImportSnapshot(context.Background(), "c9", []byte("nope")); !errors.As(err, &verr) {
		t.Errorf("err = %v, want ValidationError for bad document", err)
	}
	if _, err := svc.ImportSnapshot(context.Background(), "other", data); !errors.As(err, &verr) {
		t.Errorf("err = %v, want ValidationError for id mismatch", err)
	}
}

func TestDensity(t *testing.T) {
	svc, db := testService(t)
	seedCanvas(t, db, "c1", "Alpha",
		rec("a", "note", "", 0, 0, 10, 10, nil),
		rec("b", "note", "", 50, 50, 10, 10, nil),
	)

	d, err := svc.Density(context.Background(), "c1", geometry.NewRect(0, 0, 100, 100))
	if err != nil {
		t.Fatalf("Density: %v", err)
	}
	if d != 2.0/10000 {
		t.Errorf("density = %v, want %v", d, 2.0/10000)
	}
}
