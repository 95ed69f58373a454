package source

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	"github.com/HSMDove/feedpulse/internal/fetch"
	"github.com/HSMDove/feedpulse/internal/filter"
	"github.com/HSMDove/feedpulse/internal/model"
)

var (
	tiktokUserRe  = regexp.MustCompile(`tiktok\.com/@([A-Za-z0-9_.]+)`)
	tiktokHandle  = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)
	tiktokVideoRe = regexp.MustCompile(`/video/(\d{8,})`)
	tiktokLinkRe  = regexp.MustCompile(`https?://(?:www\.)?tiktok\.com/@[A-Za-z0-9_.]+(?:/video/\d+)?`)
)

// TikTokSource degrades through four strategies: third-party RSS bridges,
// the profile page's embedded JSON state, raw video-id harvesting from the
// markup, and finally bare link matches with no metadata at all. TikTok
// renders profiles client-side, so each stage is less likely to work than
// the one before it; degraded data is preferred over total failure.
type TikTokSource struct {
	meta
	client   *fetch.Client
	keywords []string

	// bridges and profileBase are swapped out in tests.
	bridges     func(user string) []string
	profileBase string
}

func NewTikTokSource(m model.Source, client *fetch.Client, keywords []string) *TikTokSource {
	return &TikTokSource{
		meta:     meta{src: m},
		client:   client,
		keywords: keywords,
		bridges: func(user string) []string {
			return []string{
				"https://rsshub.app/tiktok/user/@" + user,
				"https://proxitok.pabloferreiro.es/@" + user + "/rss",
			}
		},
		profileBase: "https://www.tiktok.com",
	}
}

func (s *TikTokSource) Fetch(ctx context.Context) ([]model.Item, error) {
	user, err := tiktokUsername(s.src.URL)
	if err != nil {
		return nil, err
	}

	var failures []string

	for _, bridgeURL := range s.bridges(user) {
		feed, err := s.client.Feed(ctx, bridgeURL)
		if err != nil {
			failures = append(failures, fmt.Sprintf("bridge %s: %v", bridgeURL, err))
			continue
		}
		if len(feed.Items) == 0 {
			failures = append(failures, fmt.Sprintf("bridge %s: empty feed", bridgeURL))
			continue
		}
		return candidatesFromFeed(ctx, s.client, feed, processOptions{
			cap:      defaultItemCap,
			keywords: s.keywords,
		}), nil
	}

	items, scrapeErr := s.scrapeProfile(ctx, user)
	if scrapeErr != nil {
		failures = append(failures, fmt.Sprintf("scrape: %v", scrapeErr))
	}
	if len(items) > 0 {
		return items, nil
	}

	return nil, fmt.Errorf(
		"tiktok renders profiles client-side; all bridges and scrape fallbacks failed for @%s: %s",
		user, strings.Join(failures, "; "))
}

// scrapeProfile fetches the profile page and tries, in order: the embedded
// SIGI_STATE JSON, regex-extracted video ids, and bare profile/video link
// matches. Each stage returns as soon as it found at least one item.
func (s *TikTokSource) scrapeProfile(ctx context.Context, user string) ([]model.Item, error) {
	body, err := s.client.Body(ctx, s.profileBase+"/@"+user)
	if err != nil {
		return nil, err
	}

	if items := s.stateItems(body, user); len(items) > 0 {
		return items, nil
	}

	if ids := lo.Uniq(allSubmatches(tiktokVideoRe, body)); len(ids) > 0 {
		items := make([]model.Item, 0, defaultItemCap)
		for _, id := range ids {
			items = append(items, model.Item{
				Title: fmt.Sprintf("TikTok video %s by @%s", id, user),
				Link:  fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", user, id),
			})
			if len(items) >= defaultItemCap {
				break
			}
		}
		return items, nil
	}

	// Last resort: whatever profile/video links the markup contains,
	// with no titles or dates. Placeholder content beats nothing.
	links := lo.Uniq(tiktokLinkRe.FindAllString(body, -1))
	items := make([]model.Item, 0, len(links))
	for _, link := range links {
		items = append(items, model.Item{
			Title: "TikTok post by @" + user,
			Link:  link,
		})
		if len(items) >= defaultItemCap {
			break
		}
	}
	return items, nil
}

// sigiState mirrors the fragment of TikTok's embedded app state we consume.
type sigiState struct {
	ItemModule map[string]struct {
		ID         string `json:"id"`
		Desc       string `json:"desc"`
		CreateTime string `json:"createTime"`
		Author     string `json:"author"`
		Video      struct {
			Cover string `json:"cover"`
		} `json:"video"`
	} `json:"ItemModule"`
}

// stateItems reads the server-rendered SIGI_STATE script if present and
// converts its item list to candidates, with the usual filters applied.
func (s *TikTokSource) stateItems(body, user string) []model.Item {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	raw := doc.Find("script#SIGI_STATE").First().Text()
	if raw == "" {
		return nil
	}

	var state sigiState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil
	}

	now := time.Now()
	items := make([]model.Item, 0, len(state.ItemModule))
	for id, entry := range state.ItemModule {
		if entry.ID == "" {
			entry.ID = id
		}
		cand := model.Item{
			Title:    entry.Desc,
			Link:     fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", user, entry.ID),
			ImageURL: entry.Video.Cover,
		}
		if ts, err := strconv.ParseInt(entry.CreateTime, 10, 64); err == nil && ts > 0 {
			cand.Published = time.Unix(ts, 0)
		}
		if !filter.Fresh(cand, now) {
			continue
		}
		if filter.Promotional(cand, s.keywords) {
			continue
		}
		items = append(items, cand)
		if len(items) >= defaultItemCap {
			break
		}
	}
	return items
}

func tiktokUsername(raw string) (string, error) {
	if m := tiktokUserRe.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	handle := strings.TrimPrefix(strings.TrimSpace(raw), "@")
	if tiktokHandle.MatchString(handle) {
		return handle, nil
	}
	return "", fmt.Errorf("cannot extract tiktok username from %q", raw)
}

func allSubmatches(re *regexp.Regexp, s string) []string {
	matches := re.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
