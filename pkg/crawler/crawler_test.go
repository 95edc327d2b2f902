package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"kcdl/pkg/models"
)

// stubFetcher serves canned pages keyed by page number. Pages outside the
// map come back empty, like a feed past its last page.
type stubFetcher struct {
	pages    map[int][]models.Image
	failPage int
	fetched  []int
}

func (s *stubFetcher) FetchPage(ctx context.Context, accountID string, page int) ([]models.Image, error) {
	s.fetched = append(s.fetched, page)
	if s.failPage != 0 && page == s.failPage {
		return nil, errors.New("boom")
	}
	return s.pages[page], nil
}

func pageOf(page, count int) []models.Image {
	images := make([]models.Image, count)
	for i := range images {
		images[i] = models.Image{
			Date: time.Date(2023, 1, page, 0, 0, 0, 0, time.UTC),
			Name: fmt.Sprintf("p%d-%d.jpg", page, i),
			Link: fmt.Sprintf("https://x/p%d/%d", page, i),
		}
	}
	return images
}

func TestCrawlStopsOnEmptyPage(t *testing.T) {
	fetcher := &stubFetcher{pages: map[int][]models.Image{
		1: pageOf(1, 2),
		2: pageOf(2, 3),
		3: pageOf(3, 1),
		// page 4 is empty
	}}

	images, err := New(fetcher, nil, nil).Crawl(context.Background(), "acct", 1, 0)
	if err != nil {
		t.Fatalf("Crawl failed: %v", err)
	}

	if len(images) != 6 {
		t.Errorf("got %d images, want 6", len(images))
	}
	// Pages 1-3 plus the empty page 4 that signalled the end.
	wantFetched := []int{1, 2, 3, 4}
	if len(fetcher.fetched) != len(wantFetched) {
		t.Fatalf("fetched pages %v, want %v", fetcher.fetched, wantFetched)
	}
	for i, p := range wantFetched {
		if fetcher.fetched[i] != p {
			t.Errorf("fetched pages %v, want %v", fetcher.fetched, wantFetched)
			break
		}
	}

	// Records arrive in fetch order.
	if images[0].Name != "p1-0.jpg" || images[5].Name != "p3-0.jpg" {
		t.Errorf("images out of order: first %q, last %q", images[0].Name, images[5].Name)
	}
}

func TestCrawlEndPageDiscardsItsRecords(t *testing.T) {
	fetcher := &stubFetcher{pages: map[int][]models.Image{
		1: pageOf(1, 2),
		2: pageOf(2, 2),
		3: pageOf(3, 2),
		4: pageOf(4, 2),
		5: pageOf(5, 2),
	}}

	images, err := New(fetcher, nil, nil).Crawl(context.Background(), "acct", 1, 3)
	if err != nil {
		t.Fatalf("Crawl failed: %v", err)
	}

	// Page 3 is fetched but its records are dropped.
	if len(images) != 4 {
		t.Errorf("got %d images, want 4 (pages 1-2 only)", len(images))
	}
	if last := fetcher.fetched[len(fetcher.fetched)-1]; last != 3 {
		t.Errorf("last fetched page = %d, want 3", last)
	}
}

func TestCrawlStartPage(t *testing.T) {
	fetcher := &stubFetcher{pages: map[int][]models.Image{
		1: pageOf(1, 5),
		2: pageOf(2, 1),
		3: pageOf(3, 1),
	}}

	images, err := New(fetcher, nil, nil).Crawl(context.Background(), "acct", 2, 0)
	if err != nil {
		t.Fatalf("Crawl failed: %v", err)
	}

	if len(images) != 2 {
		t.Errorf("got %d images, want 2", len(images))
	}
	if fetcher.fetched[0] != 2 {
		t.Errorf("first fetched page = %d, want 2", fetcher.fetched[0])
	}
}

func TestCrawlErrorDiscardsAccumulated(t *testing.T) {
	fetcher := &stubFetcher{
		pages: map[int][]models.Image{
			1: pageOf(1, 3),
			2: pageOf(2, 3),
		},
		failPage: 3,
	}

	images, err := New(fetcher, nil, nil).Crawl(context.Background(), "acct", 1, 0)
	if err == nil {
		t.Fatal("expected error, got none")
	}
	if images != nil {
		t.Errorf("expected no images on failure, got %d", len(images))
	}
}

func TestCrawlCancelledContext(t *testing.T) {
	fetcher := &stubFetcher{pages: map[int][]models.Image{1: pageOf(1, 1)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(fetcher, nil, nil).Crawl(ctx, "acct", 1, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
