package classroom

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kcdl/pkg/models"
)

// rowDateLayout is the MM/DD/YY form the feed renders dates in.
const rowDateLayout = "01/02/06"

// ParseActivityPage extracts image records from one activity-feed page.
//
// The page carries a single table where each body row is one media item:
// the second cell holds the date and the last cell holds an anchor whose
// href is the signed download link and whose download attribute is the
// destination filename. A page past the end of the feed has no table at
// all ("there are no activities") and yields an empty, non-error result.
//
// Extraction is positional and brittle against feed markup changes, which
// is why it lives behind this one function. A malformed row aborts the
// whole page rather than silently dropping records from the index.
func ParseActivityPage(r io.Reader) ([]models.Image, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &Error{
			Type:    ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse HTML: %v", err),
		}
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		// Past the last page.
		return nil, nil
	}

	var images []models.Image
	var rowErr error

	table.Find("tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		img, err := parseActivityRow(i, row)
		if err != nil {
			rowErr = err
			return false
		}
		images = append(images, img)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return images, nil
}

func parseActivityRow(index int, row *goquery.Selection) (models.Image, error) {
	cells := row.Find("td")
	if cells.Length() < 2 {
		return models.Image{}, rowError(index, "want at least 2 cells, got %d", cells.Length())
	}

	dateText := strings.TrimSpace(cells.Eq(1).Text())
	date, err := time.Parse(rowDateLayout, dateText)
	if err != nil {
		return models.Image{}, rowError(index, "unparsable date %q", dateText)
	}

	anchor := cells.Last().Find("a").First()
	if anchor.Length() == 0 {
		return models.Image{}, rowError(index, "missing download anchor")
	}

	link, ok := anchor.Attr("href")
	if !ok || link == "" {
		return models.Image{}, rowError(index, "anchor has no href")
	}
	name, ok := anchor.Attr("download")
	if !ok || name == "" {
		return models.Image{}, rowError(index, "anchor has no download attribute")
	}

	return models.Image{Date: date, Name: name, Link: link}, nil
}

func rowError(index int, format string, args ...interface{}) error {
	return &Error{
		Type:    ErrorTypeParsing,
		Message: fmt.Sprintf("row %d: %s", index, fmt.Sprintf(format, args...)),
	}
}
