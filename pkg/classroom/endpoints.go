package classroom

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// SessionCookieName is the cookie that carries the authenticated session.
	SessionCookieName = "_himama_session"

	// FirstPage is where the activity feed starts.
	FirstPage = 1
)

// ActivityURL builds the activity-feed URL for an account. The feed serves
// page 1 unparameterized, so the page query is only attached past it.
func ActivityURL(baseURL, accountID string, page int) string {
	u := fmt.Sprintf("%s/accounts/%s/activities", baseURL, url.PathEscape(accountID))
	if page > FirstPage {
		u += "?page=" + strconv.Itoa(page)
	}
	return u
}
