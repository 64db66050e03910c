package interfaces

// Repository defines the interface for run history persistence
type Repository interface {
	SyncRun() SyncRunRepository

	// Close releases backend connections
	Close() error
}
