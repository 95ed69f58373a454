package summary

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/HSMDove/feedpulse/internal/model"
)

type ContentUpdater interface {
	UpdateEnrichment(ctx context.Context, id int64, summary, translation, sentiment string) error
}

var redundantNewLines = regexp.MustCompile(`\n{3,}`)

// Enricher rewrites a freshly ingested content record through the
// summarizer. When the feed body is empty it fetches the article page and
// extracts readable text first.
type Enricher struct {
	contents   ContentUpdater
	summarizer Summarizer
	translator Summarizer // optional second pass with a translation prompt
	http       *http.Client
}

func NewEnricher(contents ContentUpdater, summarizer, translator Summarizer, timeout time.Duration) *Enricher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Enricher{
		contents:   contents,
		summarizer: summarizer,
		translator: translator,
		http:       &http.Client{Timeout: timeout},
	}
}

func (e *Enricher) Enrich(ctx context.Context, c model.Content) error {
	text, err := e.extractText(ctx, c)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}

	summarized, err := e.summarizer.Summarize(ctx, text)
	if err != nil {
		return err
	}

	translation := ""
	if e.translator != nil {
		// Translation is decoration; its failure must not lose the summary.
		if t, err := e.translator.Summarize(ctx, summarized); err == nil {
			translation = t
		}
	}

	return e.contents.UpdateEnrichment(ctx, c.ID, summarized, translation, c.Sentiment)
}

// extractText prefers the feed-supplied body and falls back to fetching the
// article page, in both cases running readability to strip boilerplate.
func (e *Enricher) extractText(ctx context.Context, c model.Content) (string, error) {
	var r io.Reader

	if c.Summary != "" {
		r = strings.NewReader(c.Summary)
	} else {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Link, nil)
		if err != nil {
			return "", err
		}
		resp, err := e.http.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		r = resp.Body
	}

	doc, err := readability.FromReader(r, nil)
	if err != nil {
		return "", err
	}

	return cleanupText(doc.TextContent), nil
}

func cleanupText(text string) string {
	return strings.TrimSpace(redundantNewLines.ReplaceAllString(text, "\n"))
}
