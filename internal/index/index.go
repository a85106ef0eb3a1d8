package index

import "github.com/starford/raido/internal/models"

// CanvasIndex defines the interface for canvas index operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type CanvasIndex interface {
	UpsertCanvas(c CanvasRow, records []map[string]any) error
	DeleteCanvas(id string) error
	GetChecksum(id string) (string, error)
	AllChecksums() (map[string]string, error)
	GetCanvas(id string) (models.CanvasMeta, error)
	ListCanvases() ([]models.CanvasMeta, error)
	ListWidgets(canvasID string) ([]models.Widget, error)
	WidgetLocation(widgetID string) (models.Location, error)
	ParentChain(widgetID string) ([]string, error)
	Close() error
}

// Verify *DB satisfies CanvasIndex at compile time.
var _ CanvasIndex = (*DB)(nil)
