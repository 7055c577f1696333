package content

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
)

const maxItemsPerFeed = 10

// RSSCollector pulls items from a fixed list of feeds. Each feed carries a
// category and an editorial weight from 1 to 10 that becomes the item
// relevance.
type RSSCollector struct {
	feeds      []config.FeedConfig
	httpClient *http.Client
	userAgent  string
}

func NewRSSCollector(feeds []config.FeedConfig, client *http.Client, userAgent string) *RSSCollector {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RSSCollector{feeds: feeds, httpClient: client, userAgent: userAgent}
}

func (c *RSSCollector) Name() string { return "rss" }

func (c *RSSCollector) Collect(ctx context.Context) ([]Item, error) {
	parser := gofeed.NewParser()
	parser.Client = c.httpClient
	parser.UserAgent = c.userAgent

	var items []Item
	var firstErr error
	failed := 0
	for _, feedCfg := range c.feeds {
		feed, err := parser.ParseURLWithContext(feedCfg.URL, ctx)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("parse feed %s: %w", feedCfg.URL, err)
			}
			continue
		}
		items = append(items, feedItems(feed, feedCfg)...)
	}

	// Individual feeds may be down; only a full blackout is a source failure.
	if len(c.feeds) > 0 && failed == len(c.feeds) {
		return nil, firstErr
	}
	return items, nil
}

func feedItems(feed *gofeed.Feed, cfg config.FeedConfig) []Item {
	relevance := float64(cfg.Weight) / 10
	if relevance > 1 {
		relevance = 1
	}

	source := feed.Title
	if source == "" {
		source = cfg.URL
	}

	out := make([]Item, 0, len(feed.Items))
	for i, entry := range feed.Items {
		if i >= maxItemsPerFeed {
			break
		}
		if entry.Title == "" {
			continue
		}
		published := time.Time{}
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed.UTC()
		}
		out = append(out, Item{
			Category:    broadcast.Category(cfg.Category),
			Source:      source,
			Title:       stripTags(entry.Title),
			Summary:     truncate(stripTags(entry.Description), 500),
			URL:         entry.Link,
			Relevance:   relevance,
			PublishedAt: published,
		})
	}
	return out
}
