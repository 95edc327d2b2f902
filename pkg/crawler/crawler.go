package crawler

import (
	"context"
	"fmt"

	"kcdl/pkg/logger"
	"kcdl/pkg/models"
	"kcdl/pkg/ratelimit"
)

// PageFetcher fetches one activity-feed page worth of records. An empty
// result means the page is past the end of the feed.
type PageFetcher interface {
	FetchPage(ctx context.Context, accountID string, page int) ([]models.Image, error)
}

// Crawler walks the activity feed page by page. Pages are fetched strictly
// sequentially: whether page N is the last one can only be learned from
// page N's own content.
type Crawler struct {
	fetcher PageFetcher
	limiter ratelimit.Limiter
	logger  logger.Logger
}

// New creates a crawler. limiter may be nil to fetch unthrottled.
func New(fetcher PageFetcher, limiter ratelimit.Limiter, log logger.Logger) *Crawler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Crawler{
		fetcher: fetcher,
		limiter: limiter,
		logger:  log,
	}
}

// Crawl accumulates records from startPage onward until the feed signals
// exhaustion with an empty page, or until endPage is reached. endPage <= 0
// means no explicit end.
//
// When endPage is hit, that page is fetched but its records are NOT
// accumulated. Existing indexes were built under this behavior, so it is
// kept for compatibility.
//
// Any fetch error aborts the crawl and discards everything accumulated so
// far, so callers never write a partial index on failure.
func (c *Crawler) Crawl(ctx context.Context, accountID string, startPage, endPage int) ([]models.Image, error) {
	if startPage < 1 {
		startPage = 1
	}

	var images []models.Image

	for page := startPage; ; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.logger.Debug("throttling feed request")
			c.limiter.Wait()
		}

		c.logger.InfoWithFields("fetching activity page", map[string]interface{}{
			"account": accountID,
			"page":    page,
		})

		pageImages, err := c.fetcher.FetchPage(ctx, accountID, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		if len(pageImages) == 0 {
			c.logger.InfoWithFields("page had no images, assuming feed exhausted", map[string]interface{}{
				"account": accountID,
				"page":    page,
			})
			break
		}

		if endPage > 0 && page == endPage {
			c.logger.InfoWithFields("hit end page, discarding its records", map[string]interface{}{
				"account": accountID,
				"page":    page,
			})
			break
		}

		images = append(images, pageImages...)
	}

	c.logger.InfoWithFields("crawl finished", map[string]interface{}{
		"account": accountID,
		"images":  len(images),
	})

	return images, nil
}
