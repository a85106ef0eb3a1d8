// Package snapshot defines the canvas snapshot store abstraction.
//
// A snapshot is the exported state of one canvas (metadata plus raw
// widget records) serialized as a single JSON document. Snapshots are
// what the index and the offline search collaborators operate on.
package snapshot

// Meta is a lightweight description of one stored snapshot.
type Meta struct {
	CanvasID string
	Checksum string
}

// Provider is the interface for snapshot file operations.
type Provider interface {
	// List returns metadata for every stored snapshot.
	List() ([]Meta, error)
	// Read returns the raw bytes of the snapshot for canvasID.
	Read(canvasID string) ([]byte, error)
	// Write atomically writes the snapshot for canvasID.
	Write(canvasID string, data []byte) error
	// Delete removes the snapshot for canvasID.
	Delete(canvasID string) error
}
