package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSMDove/feedpulse/internal/folder"
	"github.com/HSMDove/feedpulse/internal/model"
)

type stubFolders struct {
	mu      sync.Mutex
	folders map[int64]model.Folder
	sources map[int64][]model.Source
}

func (s *stubFolders) AutoFetchFolders(_ context.Context) ([]model.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Folder
	for _, f := range s.folders {
		if f.AutoFetch {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *stubFolders) FolderByID(_ context.Context, id int64) (*model.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (s *stubFolders) SourcesByFolder(_ context.Context, id int64) ([]model.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sources[id], nil
}

type blockingRunner struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	err     error
}

func (r *blockingRunner) FetchFolder(ctx context.Context, _ int64) (folder.Summary, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return folder.Summary{}, ctx.Err()
		}
	}
	return folder.Summary{}, r.err
}

func (r *blockingRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func oneFolderStore() *stubFolders {
	return &stubFolders{
		folders: map[int64]model.Folder{
			1: {ID: 1, Name: "news", AutoFetch: true, FetchInterval: 1},
		},
		sources: map[int64][]model.Source{
			1: {{ID: 10, FolderID: 1, Active: true}},
		},
	}
}

func TestSchedulerNoOverlappingRuns(t *testing.T) {
	store := oneFolderStore()
	runner := &blockingRunner{release: make(chan struct{})}
	s := New(store, runner, nil, time.Second)

	ctx := context.Background()

	// Two consecutive ticks while the first run is still in flight must
	// start exactly one run.
	s.onTick(ctx)
	s.onTick(ctx)

	require.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, 10*time.Millisecond)

	snap := s.Snapshot()
	require.Contains(t, snap, int64(1))
	assert.True(t, snap[1].InFlight)

	close(runner.release)
	require.Eventually(t, func() bool { return !s.Snapshot()[1].InFlight }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, runner.callCount())
	assert.False(t, s.Snapshot()[1].LastRun.IsZero())
}

func TestSchedulerRespectsInterval(t *testing.T) {
	store := oneFolderStore()
	runner := &blockingRunner{}
	s := New(store, runner, nil, time.Second)

	ctx := context.Background()
	s.onTick(ctx)
	require.Eventually(t, func() bool { return !s.Snapshot()[1].InFlight && runner.callCount() == 1 }, time.Second, 10*time.Millisecond)

	// Interval is one minute and the folder just ran: nothing is due.
	s.onTick(ctx)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, runner.callCount())
}

func TestSchedulerFailureLeavesLastRunUnchanged(t *testing.T) {
	store := oneFolderStore()
	runner := &blockingRunner{err: errors.New("boom")}
	s := New(store, runner, nil, time.Second)

	ctx := context.Background()
	s.onTick(ctx)
	require.Eventually(t, func() bool { return !s.Snapshot()[1].InFlight }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, runner.callCount())
	// Never marked as successfully run: it comes due again immediately.
	assert.True(t, s.Snapshot()[1].LastRun.IsZero())

	s.onTick(ctx)
	require.Eventually(t, func() bool { return runner.callCount() == 2 }, time.Second, 10*time.Millisecond)
}

func TestSchedulerSkipsDisabledAndDeletedFolders(t *testing.T) {
	store := oneFolderStore()
	runner := &blockingRunner{}
	s := New(store, runner, nil, time.Second)

	ctx := context.Background()

	// Folder disabled between the due-check and the run: the stale tick
	// must not fetch anything.
	store.mu.Lock()
	f := store.folders[1]
	f.AutoFetch = false
	store.folders[1] = f
	store.mu.Unlock()

	s.run(ctx, 1)
	assert.Zero(t, runner.callCount())

	// Deleted outright.
	store.mu.Lock()
	delete(store.folders, 1)
	store.mu.Unlock()

	s.run(ctx, 1)
	assert.Zero(t, runner.callCount())
}

func TestSchedulerSkipsFoldersWithoutSources(t *testing.T) {
	store := oneFolderStore()
	store.sources[1] = nil
	runner := &blockingRunner{}
	s := New(store, runner, nil, time.Second)

	s.run(context.Background(), 1)
	assert.Zero(t, runner.callCount())
}

func TestSchedulerStartStopIdempotent(t *testing.T) {
	store := oneFolderStore()
	runner := &blockingRunner{}
	s := New(store, runner, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	s.Start(ctx) // no-op

	require.Eventually(t, func() bool { return runner.callCount() >= 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop() // no-op

	calls := runner.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, runner.callCount())
}

func TestSnapshotIsACopy(t *testing.T) {
	store := oneFolderStore()
	s := New(store, &blockingRunner{}, nil, time.Second)

	s.onTick(context.Background())
	require.Eventually(t, func() bool { return !s.Snapshot()[1].InFlight }, time.Second, 10*time.Millisecond)

	snap := s.Snapshot()
	snap[1] = Status{InFlight: true}
	assert.False(t, s.Snapshot()[1].InFlight)
}
