package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/domain/interfaces"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/service/archive"
	slacksvc "github.com/secmon-lab/aligner/pkg/service/slack"
	"github.com/secmon-lab/aligner/pkg/utils/errutil"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
)

// SyncUseCase runs every enabled mapping against one roster snapshot
type SyncUseCase struct {
	channel   slacksvc.Service
	reconcile *ReconcileUseCase
	report    *ReportUseCase
	repo      interfaces.Repository
	archive   archive.Service
	console   io.Writer
	now       func() time.Time
}

// Run executes a sync run. Only a roster load failure aborts the whole run;
// mapping failures are recorded in the returned stats.
func (uc *SyncUseCase) Run(ctx context.Context, cfg model.SyncConfig) (*model.SyncRun, error) {
	run := &model.SyncRun{
		ID:        model.SyncRunID(uuid.NewString()),
		StartedAt: uc.now(),
		DryRun:    cfg.Settings.DryRun,
	}

	logger := logging.From(ctx).With("run_id", run.ID)
	ctx = logging.With(ctx, logger)

	mappings := cfg.EnabledMappings()
	logger.Info("Starting sync job", "dry_run", run.DryRun, "mappings", len(mappings))

	cache, err := uc.channel.LoadRoster(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load Slack roster", goerr.V("run_id", run.ID))
	}
	logger.Info("Slack roster loaded", "users", cache.Len())

	for _, m := range mappings {
		run.Stats = append(run.Stats, uc.reconcile.Reconcile(ctx, cache, m, cfg.Settings))
	}
	run.FinishedAt = uc.now()

	uc.report.Publish(ctx, run.Stats, cfg.Settings.NotifyChannelID, cfg.Settings.DryRun)

	if uc.console != nil {
		PrintSummary(uc.console, run)
	}

	if uc.repo != nil {
		if err := uc.repo.SyncRun().Put(ctx, run); err != nil {
			_ = errutil.Handle(ctx, err, "Failed to save sync run history")
		}
	}

	if uc.archive != nil {
		if err := uc.archive.Save(ctx, run); err != nil {
			_ = errutil.Handle(ctx, err, "Failed to archive sync run")
		}
	}

	logger.Info("Sync job finished",
		"duration", run.FinishedAt.Sub(run.StartedAt),
		"has_failure", run.HasFailure(),
	)

	return run, nil
}

// HasHistory reports whether runs are persisted
func (uc *SyncUseCase) HasHistory() bool {
	return uc.repo != nil
}

// History returns the most recent runs, newest first
func (uc *SyncUseCase) History(ctx context.Context, limit int) ([]*model.SyncRun, error) {
	if uc.repo == nil {
		return nil, goerr.New("sync run history is not configured")
	}

	runs, err := uc.repo.SyncRun().List(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sync runs", goerr.V("limit", limit))
	}
	return runs, nil
}
