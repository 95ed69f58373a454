package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"

	"github.com/HSMDove/feedpulse/internal/fetch"
	"github.com/HSMDove/feedpulse/internal/model"
)

// conventionalFeedPaths are probed, in order, when a page advertises no feed
// in its <head>.
var conventionalFeedPaths = []string{"/feed", "/rss", "/feed.xml", "/rss.xml", "/atom.xml"}

var feedLinkTypes = map[string]bool{
	"application/rss+xml":  true,
	"application/atom+xml": true,
}

// WebsiteSource discovers a feed behind a generic website URL: first by
// scanning the page's alternate links, then by probing conventional paths.
type WebsiteSource struct {
	meta
	client   *fetch.Client
	keywords []string
}

func NewWebsiteSource(m model.Source, client *fetch.Client, keywords []string) *WebsiteSource {
	return &WebsiteSource{meta: meta{src: m}, client: client, keywords: keywords}
}

func (s *WebsiteSource) Fetch(ctx context.Context) ([]model.Item, error) {
	feed, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}
	return candidatesFromFeed(ctx, s.client, feed, processOptions{
		cap:      defaultItemCap,
		keywords: s.keywords,
	}), nil
}

// discover returns the first feed that fetches and parses: advertised
// alternate links win over conventional-path probes.
func (s *WebsiteSource) discover(ctx context.Context) (*gofeed.Feed, error) {
	base, err := url.Parse(s.src.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %q: %w", s.src.URL, err)
	}

	var candidates []string
	if doc, err := s.client.Document(ctx, s.src.URL); err == nil {
		candidates = advertisedFeeds(doc, base)
	}

	origin := base.Scheme + "://" + base.Host
	for _, p := range conventionalFeedPaths {
		candidates = append(candidates, origin+p)
	}
	candidates = lo.Uniq(candidates)

	for _, feedURL := range candidates {
		feed, err := s.client.Feed(ctx, feedURL)
		if err != nil {
			continue
		}
		return feed, nil
	}

	return nil, fmt.Errorf("no feed found for %s", s.src.URL)
}

// advertisedFeeds extracts <link rel="alternate"> feed URLs from the page
// head, resolving relative and scheme-relative hrefs against the page.
func advertisedFeeds(doc *goquery.Document, base *url.URL) []string {
	var out []string
	doc.Find(`link[rel="alternate"]`).Each(func(_ int, sel *goquery.Selection) {
		typ, _ := sel.Attr("type")
		if !feedLinkTypes[strings.ToLower(strings.TrimSpace(typ))] {
			return
		}
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		out = append(out, base.ResolveReference(ref).String())
	})
	return out
}
