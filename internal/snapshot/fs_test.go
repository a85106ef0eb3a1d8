package snapshot

import (
	"testing"

	"github.com/starford/raido/internal/models"
)

func newFS(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestWriteReadList(t *testing.T) {
	fs := newFS(t)

	data, err := Encode(&Document{
		Canvas:  models.CanvasMeta{ID: "c1", Name: "Planning"},
		Widgets: []map[string]any{{"id": "w1", "widget_type": "note"}},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := fs.Write("c1", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read("c1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	doc, err := Decode(got)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Canvas.Name != "Planning" || len(doc.Widgets) != 1 {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Version != FormatVersion {
		t.Errorf("version = %q, want %q", doc.Version, FormatVersion)
	}

	metas, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 1 || metas[0].CanvasID != "c1" || metas[0].Checksum == "" {
		t.Errorf("metas = %+v", metas)
	}
}

func TestDelete(t *testing.T) {
	fs := newFS(t)
	if err := fs.Write("c1", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	if err := fs.Delete("c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := fs.Read("c1"); err == nil {
		t.Errorf("expected read error after delete")
	}
}

func TestSafeNameRejectsTraversal(t *testing.T) {
	fs := newFS(t)
	for _, id := range []string{"", "../evil", "a/b", ".."} {
		if err := fs.Write(id, []byte(`{}`)); err == nil {
			t.Errorf("Write(%q) should have been rejected", id)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Errorf("expected decode error")
	}
	if _, err := Decode([]byte(`{"canvas":{"name":"x"}}`)); err == nil {
		t.Errorf("expected missing canvas id error")
	}
}
