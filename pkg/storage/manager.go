package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"kcdl/pkg/models"
)

// Manager writes downloaded media under the output root, either flattened
// or partitioned into year/month directories by record date.
type Manager struct {
	root    string
	flatten bool
}

// NewManager creates a storage manager rooted at the output directory
func NewManager(root string, flatten bool) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{root: root, flatten: flatten}, nil
}

// Root returns the output root directory
func (m *Manager) Root() string {
	return m.root
}

// DestinationPath returns where the given record will be written
func (m *Manager) DestinationPath(img models.Image) string {
	return img.DestinationPath(m.root, m.flatten)
}

// Save streams the payload to the record's destination path, silently
// overwriting any file already there, then sets both access and
// modification times to the record's date so the archive sorts like the
// original feed. Data goes through a temp file and an atomic rename, so
// concurrent workers never expose a half-written file.
func (m *Manager) Save(r io.Reader, img models.Image) error {
	dest := m.DestinationPath(img)

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	tempFile := dest + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save media data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, dest); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	if err := os.Chtimes(dest, img.Date, img.Date); err != nil {
		return fmt.Errorf("failed to restore file timestamps: %w", err)
	}

	return nil
}
