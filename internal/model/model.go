// Package model defines the data structures used in feedpulse: folders group
// sources, sources describe configured feed origins, items are unpersisted
// candidates extracted from feeds, and contents are the persisted records.
package model

import "time"

type Platform string

const (
	PlatformRSS     Platform = "rss"
	PlatformWebsite Platform = "website"
	PlatformYouTube Platform = "youtube"
	PlatformTwitter Platform = "twitter"
	PlatformTikTok  Platform = "tiktok"
)

type Folder struct {
	ID            int64     `db:"id"`
	Name          string    `db:"name"`
	AutoFetch     bool      `db:"auto_fetch"`
	FetchInterval int       `db:"fetch_interval_minutes"`
	WebhookURL    string    `db:"webhook_url"`
	CreatedAt     time.Time `db:"created_at"`
}

type Source struct {
	ID          int64     `db:"id"`
	FolderID    int64     `db:"folder_id"`
	Name        string    `db:"name"`
	Platform    Platform  `db:"platform"`
	URL         string    `db:"url"`
	Active      bool      `db:"active"`
	LastFetched time.Time `db:"last_fetched"`
	CreatedAt   time.Time `db:"created_at"`
}

// Item is a content candidate extracted from a feed. It is never persisted
// directly; candidates pass through the filters and the dedup gate first.
// A zero Published means the feed carried no parseable date.
type Item struct {
	Title     string
	Summary   string
	Link      string
	ImageURL  string
	Published time.Time
}

type Content struct {
	ID          int64     `db:"id"`
	FolderID    int64     `db:"folder_id"`
	SourceID    int64     `db:"source_id"`
	Title       string    `db:"title"`
	Summary     string    `db:"summary"`
	Link        string    `db:"link"`
	ImageURL    string    `db:"image_url"`
	Published   time.Time `db:"published_at"`
	FetchedAt   time.Time `db:"fetched_at"`
	Translation string    `db:"translation"`
	Sentiment   string    `db:"sentiment"`
	Notified    bool      `db:"notified"`
	CreatedAt   time.Time `db:"created_at"`
}

// FetchResult is the outcome of one adapter invocation. Adapter failures
// never propagate past the orchestrator as errors; they land in Err so that
// one broken source cannot abort its siblings.
type FetchResult struct {
	SourceID int64
	Items    []Item
	Err      string
}
