package models

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func TestImageJSONRoundTrip(t *testing.T) {
	img := Image{
		Date: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
		Name: "photo.jpg",
		Link: "https://example.com/signed/photo.jpg?expires=123",
	}

	data, err := json.Marshal(img)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var parsed Image
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !parsed.Date.Equal(img.Date) {
		t.Errorf("Date changed through round trip: got %v, want %v", parsed.Date, img.Date)
	}
	if parsed.Name != img.Name {
		t.Errorf("Name changed through round trip: got %q, want %q", parsed.Name, img.Name)
	}
	if parsed.Link != img.Link {
		t.Errorf("Link changed through round trip: got %q, want %q", parsed.Link, img.Link)
	}

	// Serializing the parsed record must reproduce the original JSON.
	again, err := json.Marshal(parsed)
	if err != nil {
		t.Fatalf("second Marshal failed: %v", err)
	}
	if string(again) != string(data) {
		t.Errorf("JSON not stable through round trip: got %s, want %s", again, data)
	}
}

func TestImageUnmarshalAcceptsTimestampedDates(t *testing.T) {
	// Older index files carry full timestamps in the date field.
	raw := `{"date": "2023-01-15T00:00:00", "name": "a.jpg", "link": "https://x/a"}`

	var img Image
	if err := json.Unmarshal([]byte(raw), &img); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	want := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	if !img.Date.Equal(want) {
		t.Errorf("got date %v, want %v", img.Date, want)
	}
}

func TestImageUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid date", `{"date": "01/15/2023", "name": "a.jpg", "link": "https://x/a"}`},
		{"missing date", `{"name": "a.jpg", "link": "https://x/a"}`},
		{"missing name", `{"date": "2023-01-15", "link": "https://x/a"}`},
		{"missing link", `{"date": "2023-01-15", "name": "a.jpg"}`},
		{"not an object", `"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var img Image
			if err := json.Unmarshal([]byte(tt.raw), &img); err == nil {
				t.Errorf("expected error for %s, got none", tt.raw)
			}
		})
	}
}

func TestDestinationPathPartitioned(t *testing.T) {
	img := Image{
		Date: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
		Name: "photo.jpg",
	}

	got := img.DestinationPath("downloads", false)
	want := filepath.Join("downloads", "2023", "1", "photo.jpg")
	if got != want {
		t.Errorf("DestinationPath = %q, want %q", got, want)
	}
}

func TestDestinationPathFlattened(t *testing.T) {
	img := Image{
		Date: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
		Name: "photo.jpg",
	}

	got := img.DestinationPath("downloads", true)
	want := filepath.Join("downloads", "photo.jpg")
	if got != want {
		t.Errorf("DestinationPath = %q, want %q", got, want)
	}
}

func TestDestinationPathNoZeroPadding(t *testing.T) {
	img := Image{
		Date: time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC),
		Name: "clip.mp4",
	}

	got := img.DestinationPath("out", false)
	want := filepath.Join("out", "2024", "11", "clip.mp4")
	if got != want {
		t.Errorf("DestinationPath = %q, want %q", got, want)
	}
}
