package worker

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/robfig/cron/v3"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/utils/errutil"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
)

// SyncRunner executes one sync run
type SyncRunner interface {
	Run(ctx context.Context, cfg model.SyncConfig) (*model.SyncRun, error)
}

// ConfigLoader returns the config for the next run. It is called before every run
// so edits to the config document take effect without a restart.
type ConfigLoader func() (*model.SyncConfig, error)

// SyncWorker runs the sync job periodically
//
// Architecture assumptions:
// - Single instance per workspace (no distributed locking)
// - Runs never overlap; the next activation is computed after the current run ends
type SyncWorker struct {
	runner   SyncRunner
	load     ConfigLoader
	schedule cron.Schedule
	runNow   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewSyncWorker creates a new worker for periodic sync runs
func NewSyncWorker(runner SyncRunner, load ConfigLoader, schedule cron.Schedule) (*SyncWorker, error) {
	if schedule == nil {
		return nil, goerr.New("sync schedule is required")
	}

	return &SyncWorker{
		runner:   runner,
		load:     load,
		schedule: schedule,
		runNow:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins the background loop. The first run starts immediately.
func (w *SyncWorker) Start(ctx context.Context) error {
	logging.From(ctx).Info("Sync worker starting")

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for the current run to finish
func (w *SyncWorker) Stop() {
	w.stopOnce.Do(func() {
		logging.Default().Info("Sync worker stopping")
		close(w.stopCh)
	})
	<-w.doneCh
	logging.Default().Info("Sync worker stopped")
}

// Trigger queues an extra run outside the schedule. It returns false when a
// triggered run is already pending.
func (w *SyncWorker) Trigger() bool {
	select {
	case w.runNow <- struct{}{}:
		return true
	default:
		return false
	}
}

// Done is closed when the loop has exited
func (w *SyncWorker) Done() <-chan struct{} {
	return w.doneCh
}

func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.tick(ctx)

	for {
		next := w.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			w.tick(ctx)

		case <-w.runNow:
			timer.Stop()
			logging.From(ctx).Info("Sync run triggered")
			w.tick(ctx)

		case <-w.stopCh:
			timer.Stop()
			logging.From(ctx).Info("Sync worker received stop signal")
			return

		case <-ctx.Done():
			timer.Stop()
			logging.From(ctx).Info("Sync worker context cancelled")
			return
		}
	}
}

// tick runs once. Errors are reported and the loop continues at the next activation.
func (w *SyncWorker) tick(ctx context.Context) {
	if err := w.runOnce(ctx); err != nil {
		_ = errutil.Handle(ctx, err, "Sync run failed (will retry at next activation)")
	}
}

func (w *SyncWorker) runOnce(ctx context.Context) error {
	cfg, err := w.load()
	if err != nil {
		return goerr.Wrap(err, "failed to load sync config")
	}

	run, err := w.runner.Run(ctx, *cfg)
	if err != nil {
		return goerr.Wrap(err, "sync run aborted")
	}

	if run.HasFailure() {
		logging.From(ctx).Warn("Sync run finished with failed mappings", "run_id", run.ID)
	}
	return nil
}
