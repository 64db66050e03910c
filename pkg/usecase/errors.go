package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// ErrMappingFailed is returned by single mapping runs whose reconciliation failed
	ErrMappingFailed = errors.New("mapping failed")

	// ErrRunHasFailures is returned in strict mode when any mapping did not succeed
	ErrRunHasFailures = errors.New("sync run has failed or aborted mappings")
)

// Context keys for error values
const (
	MappingKey = "mapping"
	GroupKey   = "group"
	ChannelKey = "channel"
)
