package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/aligner/pkg/domain/interfaces"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/domain/types"
	"github.com/secmon-lab/aligner/pkg/repository/firestore"
	"github.com/secmon-lab/aligner/pkg/repository/memory"
)

func newRun(id string, startedAt time.Time) *model.SyncRun {
	return &model.SyncRun{
		ID:         model.SyncRunID(id),
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(time.Minute),
		DryRun:     true,
		Stats: []model.SyncStats{
			{
				MappingName:     "eng",
				Added:           2,
				Removed:         1,
				Skipped:         3,
				MissingAccounts: []model.Identity{"ghost@example.com"},
				Status:          types.SyncStatusSuccess,
			},
			{
				MappingName: "ops",
				Errors:      []string{"Aborting: 60 changes exceeds limit of 50"},
				Status:      types.SyncStatusAborted,
			},
		},
	}
}

func runSyncRunRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put and Get round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Millisecond)

		id := fmt.Sprintf("run-%d", now.UnixNano())
		run := newRun(id, now)
		gt.NoError(t, repo.SyncRun().Put(ctx, run)).Required()

		got, err := repo.SyncRun().Get(ctx, model.SyncRunID(id))
		gt.NoError(t, err).Required()

		gt.Value(t, got.ID).Equal(run.ID)
		gt.Bool(t, got.DryRun).True()
		gt.Bool(t, got.StartedAt.Equal(run.StartedAt)).True()
		gt.Array(t, got.Stats).Length(2)
		gt.Value(t, got.Stats[0].MappingName).Equal("eng")
		gt.Value(t, got.Stats[0].Added).Equal(2)
		gt.Value(t, got.Stats[0].MissingAccounts).Equal([]model.Identity{"ghost@example.com"})
		gt.Value(t, got.Stats[1].Status).Equal(types.SyncStatusAborted)
		gt.Value(t, got.Stats[1].Errors).Equal([]string{"Aborting: 60 changes exceeds limit of 50"})
	})

	t.Run("Put rejects a run without ID", func(t *testing.T) {
		repo := newRepo(t)
		gt.Value(t, repo.SyncRun().Put(context.Background(), &model.SyncRun{})).NotNil()
	})

	t.Run("Get returns error for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.SyncRun().Get(context.Background(), model.SyncRunID(fmt.Sprintf("missing-%d", time.Now().UnixNano())))
		gt.Value(t, err).NotNil()
	})

	t.Run("List returns newest first and honors limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		base := time.Now().UTC().Truncate(time.Millisecond)
		prefix := fmt.Sprintf("list-%d", base.UnixNano())

		for i := 0; i < 3; i++ {
			run := newRun(fmt.Sprintf("%s-%d", prefix, i), base.Add(time.Duration(i)*time.Hour))
			gt.NoError(t, repo.SyncRun().Put(ctx, run)).Required()
		}

		runs, err := repo.SyncRun().List(ctx, 2)
		gt.NoError(t, err).Required()
		gt.Array(t, runs).Length(2)
		gt.Value(t, runs[0].ID).Equal(model.SyncRunID(prefix + "-2"))
		gt.Value(t, runs[1].ID).Equal(model.SyncRunID(prefix + "-1"))
	})

	t.Run("stored run is isolated from caller mutation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		id := fmt.Sprintf("iso-%d", time.Now().UnixNano())
		run := newRun(id, time.Now().UTC())
		gt.NoError(t, repo.SyncRun().Put(ctx, run)).Required()

		run.Stats[0].Errors = append(run.Stats[0].Errors, "mutated")

		got, err := repo.SyncRun().Get(ctx, model.SyncRunID(id))
		gt.NoError(t, err).Required()
		gt.Array(t, got.Stats[0].Errors).Length(0)
	})
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func TestMemorySyncRunRepository(t *testing.T) {
	runSyncRunRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreSyncRunRepository(t *testing.T) {
	runSyncRunRepositoryTest(t, newFirestoreRepository)
}
