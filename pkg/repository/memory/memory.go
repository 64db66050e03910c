package memory

import (
	"github.com/secmon-lab/aligner/pkg/domain/interfaces"
)

// Memory is an in-process Repository. History lives only as long as the process.
type Memory struct {
	syncRun *syncRunRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		syncRun: newSyncRunRepository(),
	}
}

func (m *Memory) SyncRun() interfaces.SyncRunRepository {
	return m.syncRun
}

func (m *Memory) Close() error {
	return nil
}
