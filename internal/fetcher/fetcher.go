// Package fetcher runs the source adapters across many sources under a
// global concurrency cap. Each source's outcome is isolated: a failing or
// hanging source cannot abort or starve its siblings.
package fetcher

import (
	"context"
	"log"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/HSMDove/feedpulse/internal/fetch"
	"github.com/HSMDove/feedpulse/internal/model"
	"github.com/HSMDove/feedpulse/internal/source"
)

const defaultConcurrency = 3

// Source matches the adapter contract; declared here so tests can inject
// fakes without touching the source package.
type Source interface {
	ID() int64
	Name() string
	Platform() model.Platform
	Fetch(ctx context.Context) ([]model.Item, error)
}

type Fetcher struct {
	client      *fetch.Client
	keywords    []string
	concurrency int

	// adapterFor builds the adapter for a source record; replaced in tests.
	adapterFor func(model.Source) Source
}

func New(client *fetch.Client, keywords []string, concurrency int) *Fetcher {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	f := &Fetcher{
		client:      client,
		keywords:    keywords,
		concurrency: concurrency,
	}
	f.adapterFor = func(m model.Source) Source {
		return source.FromModel(m, client, keywords)
	}
	return f
}

// FetchAll fetches every active source concurrently, at most `concurrency`
// at a time, and returns one result per active source. Result order matches
// the filtered input order.
func (f *Fetcher) FetchAll(ctx context.Context, sources []model.Source) []model.FetchResult {
	active := lo.Filter(sources, func(s model.Source, _ int) bool { return s.Active })

	results := make([]model.FetchResult, len(active))

	var g errgroup.Group
	g.SetLimit(f.concurrency)

	for i, src := range active {
		g.Go(func() error {
			results[i] = f.fetchOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// fetchOne invokes one adapter and converts every failure mode, including a
// panicking adapter, into the result's Err field.
func (f *Fetcher) fetchOne(ctx context.Context, src model.Source) (res model.FetchResult) {
	res.SourceID = src.ID

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] adapter panic for source %d (%s): %v", src.ID, src.Platform, r)
			res.Err = "adapter panic"
		}
	}()

	adapter := f.adapterFor(src)
	items, err := adapter.Fetch(ctx)
	if err != nil {
		log.Printf("[ERROR] failed to fetch items for source %d (%s): %v", src.ID, src.Platform, err)
		res.Err = err.Error()
		return res
	}

	res.Items = items
	return res
}
