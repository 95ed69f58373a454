package source

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/HSMDove/feedpulse/internal/fetch"
	"github.com/HSMDove/feedpulse/internal/model"
)

// defaultMirrorInstances are Nitter-style mirrors exposing RSS for profiles.
// Any of them may be down or rate-limited at any moment, so they are tried
// in order until one yields items.
var defaultMirrorInstances = []string{
	"https://nitter.net",
	"https://nitter.poast.org",
	"https://nitter.privacydev.net",
	"https://lightbrd.com",
}

var (
	twitterURLRe = regexp.MustCompile(`(?:twitter\.com|x\.com)/@?([A-Za-z0-9_]{1,15})`)
	bareHandleRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)
)

// TwitterSource fetches a profile timeline through mirror-instance RSS.
type TwitterSource struct {
	meta
	client   *fetch.Client
	keywords []string

	// instances is swapped out in tests.
	instances []string
}

func NewTwitterSource(m model.Source, client *fetch.Client, keywords []string) *TwitterSource {
	return &TwitterSource{
		meta:      meta{src: m},
		client:    client,
		keywords:  keywords,
		instances: defaultMirrorInstances,
	}
}

func (s *TwitterSource) Fetch(ctx context.Context) ([]model.Item, error) {
	user, err := twitterUsername(s.src.URL)
	if err != nil {
		return nil, err
	}

	var failures []string
	for _, instance := range s.instances {
		feedURL := fmt.Sprintf("%s/%s/rss", instance, user)
		feed, err := s.client.Feed(ctx, feedURL)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", instance, err))
			continue
		}
		if len(feed.Items) == 0 {
			failures = append(failures, fmt.Sprintf("%s: empty feed", instance))
			continue
		}
		items := candidatesFromFeed(ctx, s.client, feed, processOptions{
			cap:      defaultItemCap,
			keywords: s.keywords,
		})
		for i := range items {
			items[i].Link = canonicalTweetURL(items[i].Link)
		}
		return items, nil
	}

	return nil, fmt.Errorf("all mirror instances failed for @%s: %s", user, strings.Join(failures, "; "))
}

// canonicalTweetURL rewrites a mirror-hosted status link to its twitter.com
// form. Deduplication is keyed on the link, and the same tweet must map to
// the same link no matter which instance served it.
func canonicalTweetURL(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}
	u.Scheme = "https"
	u.Host = "twitter.com"
	u.Fragment = ""
	return u.String()
}

// twitterUsername accepts a profile URL or a bare handle, with or without
// the leading @.
func twitterUsername(raw string) (string, error) {
	if m := twitterURLRe.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	handle := strings.TrimPrefix(strings.TrimSpace(raw), "@")
	if bareHandleRe.MatchString(handle) {
		return handle, nil
	}
	return "", fmt.Errorf("cannot extract twitter username from %q", raw)
}
