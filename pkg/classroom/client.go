package classroom

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"kcdl/pkg/config"
	"kcdl/pkg/logger"
	"kcdl/pkg/models"
)

// Client talks to the classroom activity feed and to the signed media links
// it hands out. Feed requests carry the session cookie; media links are
// pre-signed and fetched without auth.
type Client struct {
	feedClient   *http.Client
	mediaClient  *http.Client
	baseURL      string
	sessionValue string
	userAgent    string
	logger       logger.Logger
}

// NewClient creates a new classroom client
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		feedClient: &http.Client{
			Timeout: cfg.Classroom.RequestTimeout,
		},
		// Media payloads can be large videos, so they get their own timeout.
		mediaClient: &http.Client{
			Timeout: cfg.Download.DownloadTimeout,
		},
		baseURL:      strings.TrimRight(cfg.Classroom.BaseURL, "/"),
		sessionValue: cfg.Classroom.SessionValue,
		userAgent:    cfg.Classroom.UserAgent,
		logger:       log,
	}
}

// FetchPage fetches one activity-feed page and extracts its image records.
// An empty slice with a nil error means the page is past the end of the
// feed. A 401 or expired session surfaces as an auth error; this client
// does not interpret it further.
func (c *Client) FetchPage(ctx context.Context, accountID string, page int) ([]models.Image, error) {
	pageURL := ActivityURL(c.baseURL, accountID, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: c.sessionValue})

	start := time.Now()
	c.logger.DebugWithFields("fetching activity page", map[string]interface{}{
		"account": accountID,
		"page":    page,
		"url":     pageURL,
	})

	resp, err := c.feedClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("activity page request failed", map[string]interface{}{
			"account": accountID,
			"page":    page,
			"error":   err.Error(),
		})
		return nil, &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	images, err := ParseActivityPage(resp.Body)
	if err != nil {
		c.logger.ErrorWithFields("failed to parse activity page", map[string]interface{}{
			"account": accountID,
			"page":    page,
			"error":   err.Error(),
		})
		return nil, err
	}

	c.logger.DebugWithFields("activity page fetched", map[string]interface{}{
		"account":  accountID,
		"page":     page,
		"images":   len(images),
		"duration": time.Since(start),
	})

	return images, nil
}

// Download issues a GET for a record's signed link and returns the raw
// response for streaming. The caller owns the body and is responsible for
// checking the status code; a non-2xx status on a signed link usually means
// the link's validity window has passed.
func (c *Client) Download(ctx context.Context, link string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.mediaClient.Do(req)
	if err != nil {
		return nil, &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	return resp, nil
}

// checkResponseStatus maps HTTP failure statuses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("session rejected by feed", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeAuth,
			Message: "session cookie rejected, it may have expired",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusNotFound:
		return &Error{
			Type:    ErrorTypeNotFound,
			Message: "account or feed page not found",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		return &Error{
			Type:    ErrorTypeServerError,
			Message: "classroom server error",
			Code:    resp.StatusCode,
		}
	default:
		return &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}
