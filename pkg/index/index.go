package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kcdl/pkg/logger"
	"kcdl/pkg/models"
)

// ErrEmptyIndex is returned when writing an index with no records; the
// earliest/latest bounds are undefined over an empty set.
var ErrEmptyIndex = errors.New("refusing to write an index with no images")

// Document is the on-disk index shape. Earliest and latest are derived
// from the records at write time, never authoritative on their own.
type Document struct {
	Earliest string         `json:"earliest"`
	Latest   string         `json:"latest"`
	Images   []models.Image `json:"images"`
}

// Store reads and writes the resumable index file. The index lets a later
// run download everything without re-crawling the feed, as long as the
// signed links inside are still within their validity window.
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a store for the given index path
func NewStore(path string) *Store {
	return &Store{
		path:   path,
		logger: logger.GetLogger(),
	}
}

// Path returns the index file path
func (s *Store) Path() string {
	return s.path
}

// Exists checks if the index file exists
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Write persists the records plus their date bounds. The file is written
// to a temp path and renamed so a crash never leaves a truncated index.
func (s *Store) Write(images []models.Image) error {
	if len(images) == 0 {
		return ErrEmptyIndex
	}

	earliest, latest := dateBounds(images)
	doc := Document{
		Earliest: earliest.Format(models.DateLayout),
		Latest:   latest.Format(models.DateLayout),
		Images:   images,
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary index file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode index: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync index file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close index file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace index file: %w", err)
	}

	s.logger.InfoWithFields("index written", map[string]interface{}{
		"path":     s.path,
		"images":   len(images),
		"earliest": doc.Earliest,
		"latest":   doc.Latest,
	})

	return nil
}

// Read loads the records back out of the index file
func (s *Store) Read() ([]models.Image, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	var doc Document
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("malformed index file %s: %w", s.path, err)
	}
	if doc.Images == nil {
		return nil, fmt.Errorf("malformed index file %s: missing images key", s.path)
	}

	s.logger.InfoWithFields("index loaded", map[string]interface{}{
		"path":   s.path,
		"images": len(doc.Images),
	})

	return doc.Images, nil
}

// dateBounds returns the min and max dates across the records
func dateBounds(images []models.Image) (time.Time, time.Time) {
	earliest, latest := images[0].Date, images[0].Date
	for _, img := range images[1:] {
		if img.Date.Before(earliest) {
			earliest = img.Date
		}
		if img.Date.After(latest) {
			latest = img.Date
		}
	}
	return earliest, latest
}
