package folder

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSMDove/feedpulse/internal/model"
)

type memFolders struct {
	folders map[int64]model.Folder
}

func (m *memFolders) FolderByID(_ context.Context, id int64) (*model.Folder, error) {
	f, ok := m.folders[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

type memSources struct {
	mu          sync.Mutex
	byFolder    map[int64][]model.Source
	lastFetched map[int64]time.Time
}

func (m *memSources) SourcesByFolder(_ context.Context, folderID int64) ([]model.Source, error) {
	return m.byFolder[folderID], nil
}

func (m *memSources) UpdateLastFetched(_ context.Context, id int64, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastFetched == nil {
		m.lastFetched = map[int64]time.Time{}
	}
	m.lastFetched[id] = t
	return nil
}

// memContents enforces the (sourceID, link) dedup key in memory.
type memContents struct {
	mu     sync.Mutex
	nextID int64
	byKey  map[string]model.Content
}

func (m *memContents) CreateIfNotExists(_ context.Context, c model.Content) (*model.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byKey == nil {
		m.byKey = map[string]model.Content{}
	}
	key := fmt.Sprintf("%d|%s", c.SourceID, c.Link)
	if _, ok := m.byKey[key]; ok {
		return nil, nil
	}
	m.nextID++
	c.ID = m.nextID
	m.byKey[key] = c
	return &c, nil
}

// stubOrchestrator replays canned per-source results.
type stubOrchestrator struct {
	results []model.FetchResult
}

func (s *stubOrchestrator) FetchAll(_ context.Context, _ []model.Source) []model.FetchResult {
	return s.results
}

type recordingNotifier struct {
	mu       sync.Mutex
	notified []model.Content
	done     chan struct{}
}

func (n *recordingNotifier) Notify(_ context.Context, _ model.Folder, contents []model.Content) error {
	n.mu.Lock()
	n.notified = append(n.notified, contents...)
	n.mu.Unlock()
	close(n.done)
	return nil
}

func testDeps() (*memFolders, *memSources, *memContents) {
	folders := &memFolders{folders: map[int64]model.Folder{
		1: {ID: 1, Name: "tech", AutoFetch: true, FetchInterval: 30},
	}}
	sources := &memSources{byFolder: map[int64][]model.Source{
		1: {
			{ID: 10, FolderID: 1, Platform: model.PlatformRSS, Active: true},
			{ID: 11, FolderID: 1, Platform: model.PlatformRSS, Active: true},
		},
	}}
	return folders, sources, &memContents{}
}

func TestFetchFolderAddsAndIsIdempotent(t *testing.T) {
	folders, sources, contents := testDeps()
	orch := &stubOrchestrator{results: []model.FetchResult{
		{SourceID: 10, Items: []model.Item{
			{Title: "a", Link: "https://example.com/a", Published: time.Now()},
			{Title: "b", Link: "https://example.com/b", Published: time.Now()},
		}},
	}}
	c := New(folders, sources, contents, orch, nil, nil)

	first, err := c.FetchFolder(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, first.ItemsAdded)
	assert.Zero(t, first.Skipped)
	assert.Empty(t, first.Errors)

	// Unchanged upstream feed: every item hits the dedup gate.
	second, err := c.FetchFolder(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, second.ItemsAdded)
	assert.Equal(t, 2, second.Skipped)
}

func TestFetchFolderDedupKeyIsScopedPerSource(t *testing.T) {
	folders, sources, contents := testDeps()
	orch := &stubOrchestrator{results: []model.FetchResult{
		{SourceID: 10, Items: []model.Item{{Title: "shared", Link: "https://example.com/shared"}}},
		{SourceID: 11, Items: []model.Item{{Title: "shared", Link: "https://example.com/shared"}}},
	}}
	c := New(folders, sources, contents, orch, nil, nil)

	summary, err := c.FetchFolder(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ItemsAdded)
	assert.Zero(t, summary.Skipped)
}

func TestFetchFolderIsolatesSourceFailures(t *testing.T) {
	folders, sources, contents := testDeps()
	orch := &stubOrchestrator{results: []model.FetchResult{
		{SourceID: 10, Err: "connection refused"},
		{SourceID: 11, Items: []model.Item{{Title: "ok", Link: "https://example.com/ok"}}},
	}}
	c := New(folders, sources, contents, orch, nil, nil)

	summary, err := c.FetchFolder(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ItemsAdded)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "source 10")
}

func TestFetchFolderStampsLastFetchedEvenWithoutItems(t *testing.T) {
	folders, sources, contents := testDeps()
	orch := &stubOrchestrator{results: []model.FetchResult{
		{SourceID: 10},
		{SourceID: 11, Err: "timeout"},
	}}
	c := New(folders, sources, contents, orch, nil, nil)

	_, err := c.FetchFolder(context.Background(), 1)
	require.NoError(t, err)

	sources.mu.Lock()
	defer sources.mu.Unlock()
	assert.Contains(t, sources.lastFetched, int64(10))
	assert.Contains(t, sources.lastFetched, int64(11))
}

func TestFetchFolderUnknownFolder(t *testing.T) {
	folders, sources, contents := testDeps()
	c := New(folders, sources, contents, &stubOrchestrator{}, nil, nil)

	_, err := c.FetchFolder(context.Background(), 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFetchFolderNotifiesOnlyNewItems(t *testing.T) {
	folders, sources, contents := testDeps()
	orch := &stubOrchestrator{results: []model.FetchResult{
		{SourceID: 10, Items: []model.Item{{Title: "first", Link: "https://example.com/1"}}},
	}}

	// Seed one run so the item already exists.
	warmup := New(folders, sources, contents, orch, nil, nil)
	_, err := warmup.FetchFolder(context.Background(), 1)
	require.NoError(t, err)

	orch.results = []model.FetchResult{
		{SourceID: 10, Items: []model.Item{
			{Title: "first", Link: "https://example.com/1"},
			{Title: "second", Link: "https://example.com/2"},
		}},
	}

	notif := &recordingNotifier{done: make(chan struct{})}
	c := New(folders, sources, contents, orch, nil, notif)

	summary, err := c.FetchFolder(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ItemsAdded)
	assert.Equal(t, 1, summary.Skipped)

	select {
	case <-notif.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not invoked")
	}

	notif.mu.Lock()
	defer notif.mu.Unlock()
	require.Len(t, notif.notified, 1)
	assert.Equal(t, "second", notif.notified[0].Title)
}
