package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vibely-app/backend/internal/models"
)

// FeedClient fetches feed pages from the REST API for one feed context.
// It implements Fetcher, so a Timeline can be pointed straight at a server.
type FeedClient struct {
	BaseURL string
	Client  *http.Client
	Token   string // session cookie value

	// Context selector: Mode+Search for feed tabs, UserID for profiles.
	Mode   string
	Search string
	UserID uint
}

func (c *FeedClient) FetchPage(ctx context.Context, page int) ([]models.FeedPost, bool, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if c.UserID != 0 {
		q.Set("userId", strconv.FormatUint(uint64(c.UserID), 10))
	} else {
		q.Set("type", c.Mode)
		if c.Search != "" {
			q.Set("search", c.Search)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/posts?"+q.Encode(), nil)
	if err != nil {
		return nil, false, err
	}
	req.AddCookie(&http.Cookie{Name: "token", Value: c.Token})

	httpClient := c.Client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("feed request failed: status %d", resp.StatusCode)
	}

	var body models.PostPage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, err
	}
	return body.Posts, body.HasMore, nil
}
