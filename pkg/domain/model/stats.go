package model

import (
	"time"

	"github.com/secmon-lab/aligner/pkg/domain/types"
)

// SyncStats is the outcome of reconciling one mapping
type SyncStats struct {
	MappingName     string           `json:"mapping_name"`
	Added           int              `json:"added"`
	Removed         int              `json:"removed"`
	Skipped         int              `json:"skipped"`
	MissingAccounts []Identity       `json:"missing_accounts,omitempty"`
	Errors          []string         `json:"errors,omitempty"`
	Status          types.SyncStatus `json:"status"`
}

// NewSyncStats starts stats for a mapping in the Success state
func NewSyncStats(mappingName string) SyncStats {
	return SyncStats{
		MappingName: mappingName,
		Status:      types.SyncStatusSuccess,
	}
}

// SyncRunID identifies one execution of the sync runner
type SyncRunID string

// SyncRun is the audit record of one execution over all enabled mappings
type SyncRun struct {
	ID         SyncRunID   `json:"id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	DryRun     bool        `json:"dry_run"`
	Stats      []SyncStats `json:"stats"`
}

// HasFailure reports whether any mapping ended Failed or Aborted
func (r *SyncRun) HasFailure() bool {
	for _, s := range r.Stats {
		if s.Status != types.SyncStatusSuccess {
			return true
		}
	}
	return false
}
