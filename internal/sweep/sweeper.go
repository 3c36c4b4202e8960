// Package sweep periodically enforces a rotation policy against a backup
// store.
//
// The sweeper is the destructive collaborator around the pure rotation
// library: it lists artifacts, asks rotation which timestamps to discard,
// and deletes the artifacts behind them. Runs happen on a cron schedule or a
// fixed interval, and each run is tagged with a run ID for log correlation.
package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/granson-io/granson/internal/history"
	"github.com/granson-io/granson/internal/logging"
	"github.com/granson-io/granson/internal/metrics"
	"github.com/granson-io/granson/internal/store"
	"github.com/granson-io/granson/rotation"
)

// Recorder persists completed runs. *history.Log implements it.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Options configures a Sweeper.
type Options struct {
	// Store is the backup store to enforce against. Required.
	Store store.Store

	// Policy is the retention policy. Replaceable at runtime via SetPolicy.
	Policy rotation.Policy

	// Schedule is a standard 5-field cron expression. When set it takes
	// precedence over Interval.
	Schedule string

	// Interval is the fallback period between runs.
	// Default: 24h.
	Interval time.Duration

	// DryRun reports what would be deleted without deleting anything.
	DryRun bool

	// Backend labels the store in history records and logs.
	Backend string

	// History records completed runs. Nil disables recording.
	History Recorder

	// Metrics publishes run statistics. Nil disables publishing.
	Metrics *metrics.SweepMetrics

	// Logger defaults to the process-global logger.
	Logger *logging.Logger
}

// Result summarizes one enforcement pass.
type Result struct {
	RunID   string
	Scanned int
	Kept    int
	Deleted int
	Skipped int
	Errors  int
	DryRun  bool
}

// Sweeper runs the enforcement loop.
type Sweeper struct {
	opts  Options
	sched cron.Schedule // nil means interval mode

	mu      sync.Mutex
	policy  rotation.Policy
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a sweeper. The schedule, when present, is parsed here so a bad
// expression fails at startup, not at 3am.
func New(opts Options) (*Sweeper, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("sweep: store is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logging.Global()
	}

	var sched cron.Schedule
	if opts.Schedule != "" {
		var err error
		sched, err = cron.ParseStandard(opts.Schedule)
		if err != nil {
			return nil, fmt.Errorf("sweep: invalid schedule %q: %w", opts.Schedule, err)
		}
	}

	return &Sweeper{
		opts:   opts,
		sched:  sched,
		policy: opts.Policy,
	}, nil
}

// SetPolicy replaces the retention policy. The next run uses it; a run in
// progress is unaffected.
func (s *Sweeper) SetPolicy(p rotation.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p
}

// SetDryRun toggles dry-run mode for subsequent runs.
func (s *Sweeper) SetDryRun(dryRun bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.DryRun = dryRun
}

// Start begins the sweep loop in the background.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.run()
}

// Stop stops the sweep loop and waits for completion.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// run is the main loop: sleep until the next scheduled instant, sweep,
// repeat.
func (s *Sweeper) run() {
	defer close(s.doneCh)

	ctx := context.Background()
	for {
		timer := time.NewTimer(time.Until(s.nextWake(time.Now())))
		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.opts.Logger.Errorf("sweep run failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

func (s *Sweeper) nextWake(now time.Time) time.Time {
	if s.sched != nil {
		return s.sched.Next(now)
	}
	return now.Add(s.opts.Interval)
}

// RunOnce performs a single enforcement pass synchronously.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	s.mu.Lock()
	policy := s.policy
	dryRun := s.opts.DryRun
	s.mu.Unlock()

	started := time.Now()
	result := Result{RunID: uuid.New().String(), DryRun: dryRun}
	logger := s.opts.Logger.WithRun(result.RunID)

	listing, err := s.opts.Store.List(ctx)
	if err != nil {
		s.finish(ctx, logger, started, result, "error")
		return result, fmt.Errorf("sweep: list backups: %w", err)
	}
	result.Scanned = len(listing.Backups)
	result.Skipped = listing.Skipped

	timestamps := make([]time.Time, len(listing.Backups))
	for i, b := range listing.Backups {
		timestamps[i] = b.Timestamp
	}

	discard, err := rotation.ToDelete(timestamps, policy)
	if err != nil {
		s.finish(ctx, logger, started, result, "error")
		return result, fmt.Errorf("sweep: apply policy: %w", err)
	}

	discardSet := make(map[int64]struct{}, len(discard))
	for _, ts := range discard {
		discardSet[ts.UnixNano()] = struct{}{}
	}

	for _, backup := range listing.Backups {
		if _, doomed := discardSet[backup.Timestamp.UnixNano()]; !doomed {
			continue
		}
		if dryRun {
			logger.Infof("would delete backup", map[string]any{
				"key":       backup.Key,
				"timestamp": backup.Timestamp.Format(time.RFC3339),
			})
			result.Deleted++
			continue
		}
		if err := s.opts.Store.Delete(ctx, backup.Key); err != nil {
			logger.Errorf("delete failed", map[string]any{
				"key":   backup.Key,
				"error": err.Error(),
			})
			result.Errors++
			continue
		}
		logger.Debugf("deleted backup", map[string]any{"key": backup.Key})
		result.Deleted++
	}
	result.Kept = result.Scanned - result.Deleted - result.Errors

	outcome := "ok"
	if result.Errors > 0 {
		outcome = "error"
	}
	s.finish(ctx, logger, started, result, outcome)

	logger.Infof("sweep finished", map[string]any{
		"scanned": result.Scanned,
		"kept":    result.Kept,
		"deleted": result.Deleted,
		"skipped": result.Skipped,
		"errors":  result.Errors,
		"dry_run": result.DryRun,
	})
	return result, nil
}

// finish publishes metrics and history for a completed (or failed) run.
func (s *Sweeper) finish(ctx context.Context, logger *logging.Logger, started time.Time, result Result, outcome string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordRun(outcome, result.Scanned, result.Kept, result.Deleted,
			result.Skipped, result.Errors, time.Since(started))
	}
	if s.opts.History != nil {
		err := s.opts.History.Record(ctx, history.Run{
			RunID:      result.RunID,
			StartedAt:  started,
			FinishedAt: time.Now(),
			Backend:    s.opts.Backend,
			Scanned:    result.Scanned,
			Kept:       result.Kept,
			Deleted:    result.Deleted,
			Skipped:    result.Skipped,
			Errors:     result.Errors,
			DryRun:     result.DryRun,
		})
		if err != nil {
			logger.Warnf("history record failed", map[string]any{"error": err.Error()})
		}
	}
}
