package models

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// DateLayout is the calendar-date form records are serialized with.
const DateLayout = "2006-01-02"

// Older index files carry the full timestamp the reference tooling wrote.
var dateLayouts = []string{DateLayout, "2006-01-02T15:04:05", time.RFC3339}

// Image is one media item from the activity feed: the day it was posted,
// the destination filename the feed supplies, and a signed download URL.
// Signed links expire a few hours after the feed is fetched, so an Image
// read back from an old index may no longer be downloadable.
type Image struct {
	Date time.Time
	Name string
	Link string
}

// imageJSON is the wire form of an Image inside the index file.
type imageJSON struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Link string `json:"link"`
}

// MarshalJSON serializes the date as an ISO-8601 calendar date.
func (i Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(imageJSON{
		Date: i.Date.Format(DateLayout),
		Name: i.Name,
		Link: i.Link,
	})
}

// UnmarshalJSON parses the wire form, requiring all three fields.
func (i *Image) UnmarshalJSON(data []byte) error {
	var raw imageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("malformed image record: %w", err)
	}
	if raw.Date == "" || raw.Name == "" || raw.Link == "" {
		return fmt.Errorf("image record missing required fields: %s", string(data))
	}
	date, err := parseDate(raw.Date)
	if err != nil {
		return err
	}
	i.Date = date
	i.Name = raw.Name
	i.Link = raw.Link
	return nil
}

// DestinationPath returns where the image should be written under root.
// Flattened, it is root/name; otherwise root/year/month/name with year and
// month as plain decimal strings (no zero padding, "2023/1" not "2023/01").
// Name is joined as-is: a hostile filename containing separators or ".."
// can escape root. The feed is trusted to supply safe names.
func (i Image) DestinationPath(root string, flatten bool) string {
	if flatten {
		return filepath.Join(root, i.Name)
	}
	return filepath.Join(root,
		strconv.Itoa(i.Date.Year()),
		strconv.Itoa(int(i.Date.Month())),
		i.Name)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want an ISO-8601 calendar date", s)
}
