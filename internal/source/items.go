package source

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/HSMDove/feedpulse/internal/fetch"
	"github.com/HSMDove/feedpulse/internal/filter"
	"github.com/HSMDove/feedpulse/internal/model"
)

const (
	// rawItemLimit over-fetches so filtering still leaves enough items to
	// fill the per-platform cap.
	rawItemLimit = 30

	defaultItemCap = 20

	// youtubeItemCap is lower: channel feeds are inherently small and recent.
	youtubeItemCap = 10
)

type processOptions struct {
	cap           int
	skipFreshness bool
	keywords      []string
	// imageFor overrides the generic image chain with a platform-specific
	// convention (YouTube thumbnails). May be nil.
	imageFor func(*gofeed.Item) string
}

// candidatesFromFeed turns parsed feed items into filtered candidates:
// newest first, freshness and promotion filters applied, an image resolved
// per item, truncated to the platform cap.
func candidatesFromFeed(ctx context.Context, client *fetch.Client, feed *gofeed.Feed, opts processOptions) []model.Item {
	if opts.cap <= 0 {
		opts.cap = defaultItemCap
	}

	items := make([]*gofeed.Item, len(feed.Items))
	copy(items, feed.Items)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := publishedAt(items[i]), publishedAt(items[j])
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.After(b)
	})
	if len(items) > rawItemLimit {
		items = items[:rawItemLimit]
	}

	now := time.Now()
	out := make([]model.Item, 0, opts.cap)

	for _, fi := range items {
		cand := model.Item{
			Title:     strings.TrimSpace(fi.Title),
			Summary:   itemText(fi),
			Link:      strings.TrimSpace(fi.Link),
			Published: publishedAt(fi),
		}
		if cand.Link == "" {
			continue
		}
		if !opts.skipFreshness && !filter.Fresh(cand, now) {
			continue
		}
		if filter.Promotional(cand, opts.keywords) {
			continue
		}

		var img string
		if opts.imageFor != nil {
			img = opts.imageFor(fi)
		}
		if img == "" {
			img = feedImage(fi)
		}
		if img == "" && client != nil {
			img = pageImage(ctx, client, cand.Link)
		}
		cand.ImageURL = img

		out = append(out, cand)
		if len(out) >= opts.cap {
			break
		}
	}

	return out
}

func publishedAt(fi *gofeed.Item) time.Time {
	if fi.PublishedParsed != nil {
		return *fi.PublishedParsed
	}
	if fi.UpdatedParsed != nil {
		return *fi.UpdatedParsed
	}
	return time.Time{}
}

// itemText returns the richest available text for an item. Content (full
// body) is preferred over Description (short excerpt); falling back to
// Description avoids an extra HTTP fetch during enrichment for feeds that
// omit Content.
func itemText(fi *gofeed.Item) string {
	if c := strings.TrimSpace(fi.Content); c != "" {
		return c
	}
	return strings.TrimSpace(fi.Description)
}
