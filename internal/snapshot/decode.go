package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/starford/raido/internal/models"
)

// FormatVersion is written into every snapshot document.
const FormatVersion = "1.0"

// Document is the on-disk snapshot format: canvas metadata plus the raw
// widget records exactly as the server returned them.
type Document struct {
	Version string           `json:"version"`
	Canvas  models.CanvasMeta `json:"canvas"`
	Widgets []map[string]any `json:"widgets"`
}

// Decode parses a snapshot document. The canvas id is required; widgets
// may be empty.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if doc.Canvas.ID == "" {
		return nil, fmt.Errorf("snapshot: decode: missing canvas id")
	}
	return &doc, nil
}

// Encode serializes a snapshot document, stamping the current format
// version.
func Encode(doc *Document) ([]byte, error) {
	doc.Version = FormatVersion
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return data, nil
}
