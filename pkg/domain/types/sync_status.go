package types

import "fmt"

// SyncStatus is the terminal state of one mapping's reconciliation
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "Success"
	SyncStatusAborted SyncStatus = "Aborted"
	SyncStatusFailed  SyncStatus = "Failed"
)

// AllSyncStatuses returns all valid sync statuses
func AllSyncStatuses() []SyncStatus {
	return []SyncStatus{
		SyncStatusSuccess,
		SyncStatusAborted,
		SyncStatusFailed,
	}
}

// IsValid checks if the sync status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusSuccess, SyncStatusAborted, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the sync status
func (s SyncStatus) String() string {
	return string(s)
}

// Emoji returns the icon used in sync reports
func (s SyncStatus) Emoji() string {
	if s == SyncStatusSuccess {
		return "✅"
	}
	return "⚠️"
}

// ParseSyncStatus parses a string into a SyncStatus
func ParseSyncStatus(s string) (SyncStatus, error) {
	status := SyncStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid sync status: %s", s)
	}
	return status, nil
}
