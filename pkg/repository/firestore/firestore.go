package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/domain/interfaces"
)

type Firestore struct {
	client  *firestore.Client
	syncRun *syncRunRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.syncRun.collectionPrefix = prefix
	}
}

// New connects to a Firestore database. An empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:  client,
		syncRun: newSyncRunRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) SyncRun() interfaces.SyncRunRepository {
	return f.syncRun
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
