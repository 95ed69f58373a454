// Package scheduler drives recurring folder refreshes off a single short
// tick. It polls elapsed time since each folder's last successful run
// against the folder's own interval instead of computing next-fire times:
// intervals are user-editable and sub-minute, and time-since-last-run is
// self-correcting after downtime.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/HSMDove/feedpulse/internal/folder"
	"github.com/HSMDove/feedpulse/internal/model"
)

const defaultTick = 5 * time.Second

type FolderStore interface {
	AutoFetchFolders(ctx context.Context) ([]model.Folder, error)
	FolderByID(ctx context.Context, id int64) (*model.Folder, error)
	SourcesByFolder(ctx context.Context, folderID int64) ([]model.Source, error)
}

type Runner interface {
	FetchFolder(ctx context.Context, folderID int64) (folder.Summary, error)
}

// ErrorReporter receives run-failure messages. Optional; a nil reporter is
// a no-op.
type ErrorReporter interface {
	Notify(msg string)
}

// Status is the read-only per-folder snapshot exposed for UI polling.
type Status struct {
	LastRun  time.Time `json:"lastRun"`
	InFlight bool      `json:"inFlight"`
}

type entry struct {
	lastRun  time.Time
	inFlight bool
}

// Scheduler owns all mutable scheduling state: a per-folder last-run time
// and in-flight flag, guarded by one mutex. State lives and dies with the
// process; after a restart every folder is simply due again.
type Scheduler struct {
	folders  FolderStore
	runner   Runner
	reporter ErrorReporter
	tick     time.Duration

	mu    sync.Mutex
	state map[int64]*entry
	stop  chan struct{}
	wg    sync.WaitGroup
}

func New(folders FolderStore, runner Runner, reporter ErrorReporter, tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = defaultTick
	}
	return &Scheduler{
		folders:  folders,
		runner:   runner,
		reporter: reporter,
		tick:     tick,
		state:    make(map[int64]*entry),
	}
}

// Start launches the tick loop. Idempotent: a second call while running is
// a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		log.Printf("[INFO] scheduler started (tick %s)", s.tick)
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				s.onTick(ctx)
			}
		}
	}()
}

// Stop clears the tick timer. In-flight runs are not interrupted; they are
// only prevented from being restarted. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stop == nil {
		s.mu.Unlock()
		return
	}
	close(s.stop)
	s.stop = nil
	s.mu.Unlock()

	s.wg.Wait()
	log.Printf("[INFO] scheduler stopped")
}

// Snapshot returns a copy of the per-folder state for the status interface.
func (s *Scheduler) Snapshot() map[int64]Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64]Status, len(s.state))
	for id, e := range s.state {
		out[id] = Status{LastRun: e.lastRun, InFlight: e.inFlight}
	}
	return out
}

// onTick starts a run for every enabled folder whose interval has elapsed
// and which is not already in flight.
func (s *Scheduler) onTick(ctx context.Context) {
	folders, err := s.folders.AutoFetchFolders(ctx)
	if err != nil {
		log.Printf("[ERROR] scheduler: failed to list folders: %v", err)
		return
	}

	now := time.Now()
	for _, f := range folders {
		interval := time.Duration(f.FetchInterval) * time.Minute
		if interval <= 0 {
			continue
		}

		s.mu.Lock()
		e, ok := s.state[f.ID]
		if !ok {
			e = &entry{}
			s.state[f.ID] = e
		}
		due := now.Sub(e.lastRun) >= interval
		if !due || e.inFlight {
			s.mu.Unlock()
			continue
		}
		e.inFlight = true
		s.mu.Unlock()

		s.wg.Add(1)
		go func(id int64) {
			defer s.wg.Done()
			s.run(ctx, id)
		}(f.ID)
	}
}

// run executes one folder refresh. On success lastRun advances; on failure
// it is left unchanged so the folder comes due again sooner. The in-flight
// flag always clears.
func (s *Scheduler) run(ctx context.Context, folderID int64) {
	err := s.runOnce(ctx, folderID)

	s.mu.Lock()
	e, ok := s.state[folderID]
	if !ok {
		e = &entry{}
		s.state[folderID] = e
	}
	e.inFlight = false
	if err == nil {
		e.lastRun = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("[ERROR] scheduler: run for folder %d failed: %v", folderID, err)
		if s.reporter != nil {
			s.reporter.Notify(fmt.Sprintf("folder %d refresh failed: %v", folderID, err))
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, folderID int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	// A stale tick may fire after the folder was deleted, disabled, or
	// emptied; re-check before doing any work.
	f, err := s.folders.FolderByID(ctx, folderID)
	if err != nil {
		return err
	}
	if f == nil || !f.AutoFetch {
		return nil
	}
	sources, err := s.folders.SourcesByFolder(ctx, folderID)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return nil
	}

	summary, err := s.runner.FetchFolder(ctx, folderID)
	if err != nil {
		return err
	}

	log.Printf("[INFO] folder %d refreshed: %d added, %d skipped, %d source errors",
		folderID, summary.ItemsAdded, summary.Skipped, len(summary.Errors))
	return nil
}
