package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/domain/model"
)

type syncRunRepository struct {
	mu   sync.RWMutex
	runs map[model.SyncRunID]*model.SyncRun
}

func newSyncRunRepository() *syncRunRepository {
	return &syncRunRepository{
		runs: make(map[model.SyncRunID]*model.SyncRun),
	}
}

func copySyncRun(run *model.SyncRun) *model.SyncRun {
	copied := *run
	copied.Stats = make([]model.SyncStats, len(run.Stats))
	for i, s := range run.Stats {
		statsCopy := s
		statsCopy.MissingAccounts = append([]model.Identity(nil), s.MissingAccounts...)
		statsCopy.Errors = append([]string(nil), s.Errors...)
		copied.Stats[i] = statsCopy
	}
	return &copied
}

// Put saves a run
func (r *syncRunRepository) Put(ctx context.Context, run *model.SyncRun) error {
	if run == nil || run.ID == "" {
		return goerr.New("sync run ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[run.ID] = copySyncRun(run)
	return nil
}

// Get retrieves a run by ID
func (r *syncRunRepository) Get(ctx context.Context, id model.SyncRunID) (*model.SyncRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "sync run not found", goerr.V("id", id))
	}
	return copySyncRun(run), nil
}

// List returns runs ordered by StartedAt descending
func (r *syncRunRepository) List(ctx context.Context, limit int) ([]*model.SyncRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]*model.SyncRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, copySyncRun(run))
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
