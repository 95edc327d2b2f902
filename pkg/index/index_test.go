package index

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kcdl/pkg/models"
)

func testImages() []models.Image {
	return []models.Image{
		{Date: time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC), Name: "b.jpg", Link: "https://x/b"},
		{Date: time.Date(2022, 12, 25, 0, 0, 0, 0, time.UTC), Name: "a.jpg", Link: "https://x/a"},
		{Date: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), Name: "c.jpg", Link: "https://x/c"},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	store := NewStore(path)

	if err := store.Write(testImages()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	images, err := store.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(images) != 3 {
		t.Fatalf("got %d images, want 3", len(images))
	}
	for i, want := range testImages() {
		if !images[i].Date.Equal(want.Date) || images[i].Name != want.Name || images[i].Link != want.Link {
			t.Errorf("image %d = %+v, want %+v", i, images[i], want)
		}
	}
}

func TestWriteComputesDateBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	store := NewStore(path)

	if err := store.Write(testImages()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if doc.Earliest != "2022-12-25" {
		t.Errorf("earliest = %q, want %q", doc.Earliest, "2022-12-25")
	}
	if doc.Latest != "2023-06-01" {
		t.Errorf("latest = %q, want %q", doc.Latest, "2023-06-01")
	}
}

func TestWriteEmptyFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	store := NewStore(path)

	err := store.Write(nil)
	if !errors.Is(err, ErrEmptyIndex) {
		t.Errorf("expected ErrEmptyIndex, got %v", err)
	}

	if store.Exists() {
		t.Error("no file should be created on a refused write")
	}
}

func TestWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "index.json"))

	if err := store.Write(testImages()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "index.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("unexpected directory contents: %v", names)
	}
}

func TestReadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{{{"},
		{"missing images key", `{"earliest": "2023-01-01", "latest": "2023-02-01"}`},
		{"bad record date", `{"earliest": "x", "latest": "y", "images": [{"date": "bogus", "name": "a", "link": "b"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "index.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			if _, err := NewStore(path).Read(); err == nil {
				t.Error("expected error, got none")
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := store.Read(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadAcceptsEmptyImagesArray(t *testing.T) {
	// An explicitly empty images array is well-formed, unlike a missing key.
	path := filepath.Join(t.TempDir(), "index.json")
	content := `{"earliest": "2023-01-01", "latest": "2023-01-01", "images": []}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	images, err := NewStore(path).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(images) != 0 {
		t.Errorf("got %d images, want 0", len(images))
	}
}
