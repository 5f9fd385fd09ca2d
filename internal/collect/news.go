package collect

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// fetchNews reads the Google News RSS search for the entity and keeps the
// first newsLimit items that mention it in the title or summary.
func (c *Collector) fetchNews(ctx context.Context, entity string) ([]Signal, error) {
	params := url.Values{"q": {entity + " cybersecurity"}}

	resp, err := c.get(ctx, c.newsURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("news search: %w", err)
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing news feed: %w", err)
	}

	items := feed.Items
	if len(items) > c.newsLimit {
		items = items[:c.newsLimit]
	}

	name := strings.ToLower(entity)
	var articles []Signal
	for _, item := range items {
		summary := stripHTML(item.Description)
		if !strings.Contains(strings.ToLower(item.Title)+strings.ToLower(summary), name) {
			continue
		}
		articles = append(articles, Signal{
			Company:   entity,
			Source:    "News",
			Title:     item.Title,
			URL:       item.Link,
			Published: item.Published,
			Summary:   summary,
		})
	}
	return articles, nil
}

// stripHTML returns the text content of an HTML fragment with whitespace collapsed.
func stripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
