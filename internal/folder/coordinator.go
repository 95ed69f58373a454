// Package folder coordinates a full refresh of one folder: fan out the
// orchestrator across its sources, persist surviving candidates through the
// dedup gate, stamp lastFetched, and kick off best-effort enrichment and
// notification for the genuinely new items.
package folder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/HSMDove/feedpulse/internal/model"
)

// postProcessTimeout bounds the detached enrichment/notification pass.
const postProcessTimeout = 10 * time.Minute

type FolderProvider interface {
	FolderByID(ctx context.Context, id int64) (*model.Folder, error)
}

type SourceStore interface {
	SourcesByFolder(ctx context.Context, folderID int64) ([]model.Source, error)
	UpdateLastFetched(ctx context.Context, id int64, t time.Time) error
}

type ContentStore interface {
	CreateIfNotExists(ctx context.Context, c model.Content) (*model.Content, error)
}

type Orchestrator interface {
	FetchAll(ctx context.Context, sources []model.Source) []model.FetchResult
}

// Enricher attaches AI-written fields to one content record.
type Enricher interface {
	Enrich(ctx context.Context, c model.Content) error
}

// Notifier dispatches new contents outward, routed per folder.
type Notifier interface {
	Notify(ctx context.Context, folder model.Folder, contents []model.Content) error
}

// Summary is the synchronous result of one folder run. Adapter-level
// failures accumulate in Errors; they never abort the run.
type Summary struct {
	ItemsAdded int
	Skipped    int
	Errors     []string
}

type Coordinator struct {
	folders  FolderProvider
	sources  SourceStore
	contents ContentStore
	fetcher  Orchestrator
	enricher Enricher // optional
	notifier Notifier // optional
}

func New(
	folders FolderProvider,
	sources SourceStore,
	contents ContentStore,
	fetcher Orchestrator,
	enricher Enricher,
	notifier Notifier,
) *Coordinator {
	return &Coordinator{
		folders:  folders,
		sources:  sources,
		contents: contents,
		fetcher:  fetcher,
		enricher: enricher,
		notifier: notifier,
	}
}

// FetchFolder runs the whole ingest for one folder. It returns an error only
// for catastrophic conditions (unknown folder, source listing failure);
// everything else degrades into the summary.
func (c *Coordinator) FetchFolder(ctx context.Context, folderID int64) (Summary, error) {
	var summary Summary

	folder, err := c.folders.FolderByID(ctx, folderID)
	if err != nil {
		return summary, err
	}
	if folder == nil {
		return summary, fmt.Errorf("folder %d not found", folderID)
	}

	sources, err := c.sources.SourcesByFolder(ctx, folderID)
	if err != nil {
		return summary, err
	}

	results := c.fetcher.FetchAll(ctx, sources)
	now := time.Now().UTC()

	var fresh []model.Content
	for _, res := range results {
		if res.Err != "" {
			summary.Errors = append(summary.Errors, fmt.Sprintf("source %d: %s", res.SourceID, res.Err))
		}

		for _, item := range res.Items {
			created, err := c.contents.CreateIfNotExists(ctx, model.Content{
				FolderID:  folderID,
				SourceID:  res.SourceID,
				Title:     item.Title,
				Summary:   item.Summary,
				Link:      item.Link,
				ImageURL:  item.ImageURL,
				Published: item.Published,
				FetchedAt: now,
			})
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("source %d: %v", res.SourceID, err))
				continue
			}
			if created == nil {
				summary.Skipped++
				continue
			}
			summary.ItemsAdded++
			fresh = append(fresh, *created)
		}

		// Stamped even when the source yielded nothing: the attempt happened.
		if err := c.sources.UpdateLastFetched(ctx, res.SourceID, now); err != nil {
			log.Printf("[ERROR] failed to stamp last_fetched for source %d: %v", res.SourceID, err)
		}
	}

	if len(fresh) > 0 {
		// Detached so the caller gets its summary without waiting on AI or
		// webhook latency. Failures are logged inside, never surfaced here.
		go c.postProcess(*folder, fresh)
	}

	return summary, nil
}

// postProcess enriches and notifies the genuinely new items. Runs outside
// the caller's lifecycle with its own deadline and error boundary.
func (c *Coordinator) postProcess(folder model.Folder, contents []model.Content) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] post-process panic for folder %d: %v", folder.ID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), postProcessTimeout)
	defer cancel()

	if c.enricher != nil {
		for _, content := range contents {
			if err := c.enricher.Enrich(ctx, content); err != nil {
				log.Printf("[ERROR] failed to enrich content %d: %v", content.ID, err)
			}
		}
	}

	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, folder, contents); err != nil {
			log.Printf("[ERROR] failed to notify for folder %d: %v", folder.ID, err)
		}
	}
}
