package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/domain/types"
	"github.com/secmon-lab/aligner/pkg/repository/memory"
	"github.com/secmon-lab/aligner/pkg/usecase"
)

func syncFixture() (*fakeDirectory, *fakeChannel, model.SyncConfig) {
	dir, ch := baseFixture()
	dir.groups["sec@example.com"] = model.NewIdentitySet("carol@example.com")
	ch.channels["C-SEC"] = []model.SlackUserID{"U3"}

	cfg := model.SyncConfig{
		Settings: model.DefaultSettings(),
		Mappings: []model.Mapping{
			testMapping(),
			{Name: "security", GoogleGroup: "sec@example.com", SlackChannel: "C-SEC", Enabled: true},
			{Name: "legacy", GoogleGroup: "old@example.com", SlackChannel: "C-OLD", Enabled: false},
		},
	}
	cfg.Settings.NotifyChannelID = "C-NOTIFY"
	return dir, ch, cfg
}

func TestSyncUseCase_Run(t *testing.T) {
	dir, ch, cfg := syncFixture()
	repo := memory.New()
	arc := &fakeArchive{}
	var console bytes.Buffer

	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	uc := usecase.New(dir, ch,
		usecase.WithRepository(repo),
		usecase.WithArchive(arc),
		usecase.WithConsole(&console),
		usecase.WithClock(func() time.Time { return now }),
	)

	ctx := context.Background()
	run, err := uc.Sync.Run(ctx, cfg)
	gt.NoError(t, err).Required()

	gt.Value(t, ch.rosterCalls).Equal(1)
	gt.Value(t, dir.calls).Equal([]string{"eng@example.com", "sec@example.com"})

	gt.Array(t, run.Stats).Length(2).Required()
	gt.Value(t, run.Stats[0].MappingName).Equal("engineering")
	gt.Value(t, run.Stats[1].MappingName).Equal("security")
	gt.Value(t, run.Stats[1].Status).Equal(types.SyncStatusSuccess)
	gt.Value(t, run.StartedAt).Equal(now)
	gt.Bool(t, run.HasFailure()).False()
	gt.String(t, string(run.ID)).NotEqual("")

	gt.Array(t, ch.posts).Length(1).Required()
	gt.Value(t, ch.posts[0].channel).Equal("C-NOTIFY")
	gt.Array(t, ch.posts[0].blocks).Length(3)

	saved, err := repo.SyncRun().Get(ctx, run.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, saved.Stats).Length(2)

	gt.Array(t, arc.saved).Length(1)
	gt.String(t, console.String()).Contains("security")
}

func TestSyncUseCase_RunDryRun(t *testing.T) {
	dir, ch, cfg := syncFixture()
	cfg.Settings.DryRun = true

	run, err := usecase.New(dir, ch).Sync.Run(context.Background(), cfg)
	gt.NoError(t, err).Required()

	gt.Bool(t, run.DryRun).True()
	gt.Value(t, run.Stats[0].Added).Equal(1)
	gt.Value(t, ch.mutatingCalls()).Equal(0)
	gt.Array(t, ch.posts).Length(0)
}

func TestSyncUseCase_RunRosterFailure(t *testing.T) {
	dir, ch, cfg := syncFixture()
	ch.rosterErr = errors.New("invalid_auth")
	repo := memory.New()

	run, err := usecase.New(dir, ch, usecase.WithRepository(repo)).Sync.Run(context.Background(), cfg)
	gt.Error(t, err)
	gt.Value(t, run).Nil()
	gt.Array(t, dir.calls).Length(0)

	runs, err := repo.SyncRun().List(context.Background(), 0)
	gt.NoError(t, err).Required()
	gt.Array(t, runs).Length(0)
}

func TestSyncUseCase_RunIsolatesMappingFailures(t *testing.T) {
	dir, ch, cfg := syncFixture()
	dir.errs = map[string]error{"eng@example.com": errors.New("backend error")}
	arc := &fakeArchive{err: errors.New("bucket not found")}

	run, err := usecase.New(dir, ch, usecase.WithArchive(arc)).Sync.Run(context.Background(), cfg)
	gt.NoError(t, err).Required()

	gt.Value(t, run.Stats[0].Status).Equal(types.SyncStatusFailed)
	gt.Value(t, run.Stats[1].Status).Equal(types.SyncStatusSuccess)
	gt.Bool(t, run.HasFailure()).True()
	gt.Array(t, ch.posts).Length(1)
}

func TestSyncUseCase_History(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		dir, ch, _ := syncFixture()
		uc := usecase.New(dir, ch)
		gt.Bool(t, uc.Sync.HasHistory()).False()
		_, err := uc.Sync.History(ctx, 10)
		gt.Error(t, err)
	})

	t.Run("newest first", func(t *testing.T) {
		dir, ch, cfg := syncFixture()
		repo := memory.New()
		clock := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
		uc := usecase.New(dir, ch,
			usecase.WithRepository(repo),
			usecase.WithClock(func() time.Time {
				clock = clock.Add(time.Minute)
				return clock
			}),
		)

		gt.Bool(t, uc.Sync.HasHistory()).True()

		first, err := uc.Sync.Run(ctx, cfg)
		gt.NoError(t, err).Required()
		second, err := uc.Sync.Run(ctx, cfg)
		gt.NoError(t, err).Required()

		runs, err := uc.Sync.History(ctx, 10)
		gt.NoError(t, err).Required()
		gt.Array(t, runs).Length(2).Required()
		gt.Value(t, runs[0].ID).Equal(second.ID)
		gt.Value(t, runs[1].ID).Equal(first.ID)

		// the second run finds the channels already aligned
		gt.Value(t, runs[0].Stats[0].Added).Equal(0)
		gt.Value(t, runs[0].Stats[0].Removed).Equal(0)
	})
}
