package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS implements Provider backed by a flat directory of
// <canvas-id>.json files.
type FS struct {
	root string // absolute path to the snapshot directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("snapshot: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("snapshot: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("snapshot: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// safeName validates that canvasID is a plain name (no separators, no
// traversal) and returns the absolute snapshot path.
func (f *FS) safeName(canvasID string) (string, error) {
	if canvasID == "" {
		return "", fmt.Errorf("snapshot: canvas id is required")
	}
	cleaned := filepath.Clean(canvasID)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("snapshot: invalid canvas id: %s", canvasID)
	}
	return filepath.Join(f.root, cleaned+".json"), nil
}

// List returns metadata for every .json snapshot in the directory.
func (f *FS) List() ([]Meta, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list: %w", err)
	}
	var out []Meta
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("snapshot: read %s: %w", e.Name(), err)
		}
		out = append(out, Meta{
			CanvasID: strings.TrimSuffix(e.Name(), ".json"),
			Checksum: Checksum(data),
		})
	}
	return out, nil
}

// Read returns the raw snapshot bytes for canvasID.
func (f *FS) Read(canvasID string) ([]byte, error) {
	abs, err := f.safeName(canvasID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", canvasID, err)
	}
	return data, nil
}

// Write atomically writes a snapshot: tmp file → fsync → rename.
func (f *FS) Write(canvasID string, data []byte) error {
	abs, err := f.safeName(canvasID)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".raido-tmp-*")
	if err != nil {
		return fmt.Errorf("snapshot: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("snapshot: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("snapshot: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a snapshot file.
func (f *FS) Delete(canvasID string) error {
	abs, err := f.safeName(canvasID)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("snapshot: delete %s: %w", canvasID, err)
	}
	return nil
}

// Checksum returns the hex-encoded SHA-256 of a snapshot document.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
