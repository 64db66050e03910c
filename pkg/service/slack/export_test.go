package slack

// Export internal functions for testing
var (
	ChunkHandles       = chunkHandles
	IsAlreadyInChannel = isAlreadyInChannel
)
