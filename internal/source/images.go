package source

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/HSMDove/feedpulse/internal/fetch"
)

// pageImageTimeout bounds the last-resort page fetch; resolving an image
// must never stall or fail the overall fetch.
const pageImageTimeout = 5 * time.Second

// feedImage resolves an image from feed metadata alone: enclosure URL, then
// media:content / media:thumbnail extensions, then the feed's own image
// element, then the first inline <img> in the item body.
func feedImage(fi *gofeed.Item) string {
	for _, enc := range fi.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if enc.Type == "" || strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}

	if media, ok := fi.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, ext := range media[key] {
				if u := ext.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}

	if fi.Image != nil && fi.Image.URL != "" {
		return fi.Image.URL
	}

	for _, body := range []string{fi.Content, fi.Description} {
		if body == "" {
			continue
		}
		if u := inlineImage(body); u != "" {
			return u
		}
	}

	return ""
}

func inlineImage(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	if strings.HasPrefix(src, "http") {
		return src
	}
	return ""
}

// pageImage fetches the target page and extracts an Open Graph, Twitter-card
// or thumbnail meta tag. Best effort: any failure yields "".
func pageImage(ctx context.Context, client *fetch.Client, pageURL string) string {
	ctx, cancel := context.WithTimeout(ctx, pageImageTimeout)
	defer cancel()

	doc, err := client.Document(ctx, pageURL)
	if err != nil {
		return ""
	}

	selectors := []string{
		`meta[property="og:image"]`,
		`meta[name="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[property="twitter:image"]`,
		`meta[name="thumbnail"]`,
	}
	for _, sel := range selectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && content != "" {
			return content
		}
	}
	return ""
}
