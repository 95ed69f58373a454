package source

import (
	"context"
	"time"

	"github.com/HSMDove/feedpulse/internal/fetch"
	"github.com/HSMDove/feedpulse/internal/model"
)

const (
	// feedAttempts is the total number of tries for a direct feed fetch:
	// one call plus two retries with fixed backoff.
	feedAttempts = 3
	feedBackoff  = 2 * time.Second
)

// RSSSource parses the configured URL directly as an RSS/Atom feed.
type RSSSource struct {
	meta
	client   *fetch.Client
	keywords []string
}

func NewRSSSource(m model.Source, client *fetch.Client, keywords []string) *RSSSource {
	return &RSSSource{meta: meta{src: m}, client: client, keywords: keywords}
}

func (s *RSSSource) Fetch(ctx context.Context) ([]model.Item, error) {
	feed, err := s.client.FeedRetry(ctx, s.src.URL, feedAttempts, feedBackoff)
	if err != nil {
		return nil, err
	}
	return candidatesFromFeed(ctx, s.client, feed, processOptions{
		cap:      defaultItemCap,
		keywords: s.keywords,
	}), nil
}
