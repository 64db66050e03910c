package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/domain/interfaces"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const syncRunsCollection = "sync_runs"

type syncRunRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.SyncRunRepository = &syncRunRepository{}

func newSyncRunRepository(client *firestore.Client) *syncRunRepository {
	return &syncRunRepository{
		client: client,
	}
}

// syncRunDoc is the Firestore persistence model
type syncRunDoc struct {
	ID         string         `firestore:"id"`
	StartedAt  time.Time      `firestore:"started_at"`
	FinishedAt time.Time      `firestore:"finished_at"`
	DryRun     bool           `firestore:"dry_run"`
	Stats      []syncStatsDoc `firestore:"stats"`
}

type syncStatsDoc struct {
	MappingName     string   `firestore:"mapping_name"`
	Added           int      `firestore:"added"`
	Removed         int      `firestore:"removed"`
	Skipped         int      `firestore:"skipped"`
	MissingAccounts []string `firestore:"missing_accounts"`
	Errors          []string `firestore:"errors"`
	Status          string   `firestore:"status"`
}

func (r *syncRunRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + syncRunsCollection)
	}
	return r.client.Collection(syncRunsCollection)
}

func (r *syncRunRepository) toDoc(run *model.SyncRun) *syncRunDoc {
	stats := make([]syncStatsDoc, len(run.Stats))
	for i, s := range run.Stats {
		missing := make([]string, len(s.MissingAccounts))
		for j, id := range s.MissingAccounts {
			missing[j] = id.String()
		}
		stats[i] = syncStatsDoc{
			MappingName:     s.MappingName,
			Added:           s.Added,
			Removed:         s.Removed,
			Skipped:         s.Skipped,
			MissingAccounts: missing,
			Errors:          s.Errors,
			Status:          s.Status.String(),
		}
	}

	return &syncRunDoc{
		ID:         string(run.ID),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		DryRun:     run.DryRun,
		Stats:      stats,
	}
}

func (r *syncRunRepository) fromDoc(doc *syncRunDoc) *model.SyncRun {
	stats := make([]model.SyncStats, len(doc.Stats))
	for i, s := range doc.Stats {
		var missing []model.Identity
		for _, email := range s.MissingAccounts {
			missing = append(missing, model.Identity(email))
		}
		stats[i] = model.SyncStats{
			MappingName:     s.MappingName,
			Added:           s.Added,
			Removed:         s.Removed,
			Skipped:         s.Skipped,
			MissingAccounts: missing,
			Errors:          s.Errors,
			Status:          types.SyncStatus(s.Status),
		}
	}

	return &model.SyncRun{
		ID:         model.SyncRunID(doc.ID),
		StartedAt:  doc.StartedAt,
		FinishedAt: doc.FinishedAt,
		DryRun:     doc.DryRun,
		Stats:      stats,
	}
}

// Put saves a run document keyed by run ID
func (r *syncRunRepository) Put(ctx context.Context, run *model.SyncRun) error {
	if run == nil || run.ID == "" {
		return goerr.New("sync run ID is required")
	}

	if _, err := r.collection().Doc(string(run.ID)).Set(ctx, r.toDoc(run)); err != nil {
		return goerr.Wrap(err, "failed to save sync run", goerr.V("id", run.ID))
	}
	return nil
}

// Get retrieves a run document by ID
func (r *syncRunRepository) Get(ctx context.Context, id model.SyncRunID) (*model.SyncRun, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "sync run not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get sync run", goerr.V("id", id))
	}

	var runDoc syncRunDoc
	if err := doc.DataTo(&runDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal sync run", goerr.V("id", id))
	}

	return r.fromDoc(&runDoc), nil
}

// List returns the most recent runs ordered by started_at descending
func (r *syncRunRepository) List(ctx context.Context, limit int) ([]*model.SyncRun, error) {
	query := r.collection().OrderBy("started_at", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var runs []*model.SyncRun
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate sync runs")
		}

		var runDoc syncRunDoc
		if err := doc.DataTo(&runDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal sync run", goerr.V("docID", doc.Ref.ID))
		}

		runs = append(runs, r.fromDoc(&runDoc))
	}

	return runs, nil
}
