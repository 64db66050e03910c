package interfaces

import (
	"context"

	"github.com/secmon-lab/aligner/pkg/domain/model"
)

// SyncRunRepository stores the audit trail of completed sync runs.
//
// Records are append-only and are never consulted when computing a diff: every run recomputes
// the full membership difference from scratch.
type SyncRunRepository interface {
	// Put saves a run (upsert by ID)
	Put(ctx context.Context, run *model.SyncRun) error

	// Get retrieves a run by ID
	Get(ctx context.Context, id model.SyncRunID) (*model.SyncRun, error)

	// List returns the most recent runs, newest first. limit <= 0 returns all runs.
	List(ctx context.Context, limit int) ([]*model.SyncRun, error)
}
