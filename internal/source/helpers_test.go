package source

import (
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/HSMDove/feedpulse/internal/fetch"
	"github.com/HSMDove/feedpulse/internal/model"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func testClient() *fetch.Client {
	return fetch.NewClient(5*time.Second, 1000)
}

type feedItem struct {
	title     string
	link      string
	published time.Time
	summary   string
	imageURL  string
}

// rssXML renders a minimal RSS 2.0 document with optional enclosure images
// and media:thumbnail entries.
func rssXML(items ...feedItem) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/"><channel><title>test feed</title>`)
	for _, it := range items {
		b.WriteString("<item>")
		fmt.Fprintf(&b, "<title>%s</title><link>%s</link>", it.title, it.link)
		if it.summary != "" {
			fmt.Fprintf(&b, "<description>%s</description>", it.summary)
		}
		if !it.published.IsZero() {
			fmt.Fprintf(&b, "<pubDate>%s</pubDate>", it.published.Format(time.RFC1123Z))
		}
		if it.imageURL != "" {
			fmt.Fprintf(&b, `<enclosure url="%s" type="image/jpeg" length="0"/>`, it.imageURL)
		}
		b.WriteString("</item>")
	}
	b.WriteString("</channel></rss>")
	return b.String()
}

func testSource(platform model.Platform, url string) model.Source {
	return model.Source{
		ID:       1,
		FolderID: 1,
		Name:     "test",
		Platform: platform,
		URL:      url,
		Active:   true,
	}
}
