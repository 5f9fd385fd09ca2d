package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// fetchReddit searches Reddit for posts mentioning the entity.
func (c *Collector) fetchReddit(ctx context.Context, entity string) ([]Signal, error) {
	params := url.Values{
		"q":     {entity},
		"limit": {strconv.Itoa(c.redditLimit)},
	}

	resp, err := c.get(ctx, c.redditURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("reddit search: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Data struct {
			Children []struct {
				Data struct {
					Title      string   `json:"title"`
					Permalink  string   `json:"permalink"`
					Subreddit  string   `json:"subreddit"`
					CreatedUTC *float64 `json:"created_utc"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding reddit response: %w", err)
	}

	var posts []Signal
	for _, child := range result.Data.Children {
		d := child.Data
		posts = append(posts, Signal{
			Company:    entity,
			Source:     "Reddit",
			Title:      d.Title,
			URL:        "https://reddit.com" + d.Permalink,
			Subreddit:  d.Subreddit,
			CreatedUTC: d.CreatedUTC,
		})
	}
	return posts, nil
}
