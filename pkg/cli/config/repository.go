package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/domain/interfaces"
	"github.com/secmon-lab/aligner/pkg/repository/firestore"
	"github.com/secmon-lab/aligner/pkg/repository/memory"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// History backend names
const (
	HistoryBackendNone      = "none"
	HistoryBackendMemory    = "memory"
	HistoryBackendFirestore = "firestore"
)

// History holds CLI flags for the sync run history backend
type History struct {
	backend          string
	projectID        string
	databaseID       string
	collectionPrefix string
}

// Flags returns CLI flags for history configuration
func (r *History) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "history-backend",
			Usage:       "Sync run history backend (none, memory or firestore)",
			Category:    "History",
			Value:       HistoryBackendNone,
			Sources:     cli.EnvVars("ALIGNER_HISTORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "History",
			Sources:     cli.EnvVars("ALIGNER_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "History",
			Sources:     cli.EnvVars("ALIGNER_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix of Firestore collection names",
			Category:    "History",
			Sources:     cli.EnvVars("ALIGNER_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
	}
}

func (r History) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("project-id", r.projectID),
		slog.String("database-id", r.databaseID),
	)
}

// Backend returns the configured backend type
func (r *History) Backend() string {
	return r.backend
}

// Configure initializes the history repository. It returns nil for the none backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *History) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case "", HistoryBackendNone:
		return nil, nil

	case HistoryBackendFirestore:
		if r.projectID == "" {
			return nil, goerr.New("firestore-project-id is required when using firestore backend")
		}
		var opts []firestore.Option
		if r.collectionPrefix != "" {
			opts = append(opts, firestore.WithCollectionPrefix(r.collectionPrefix))
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.From(ctx).Info("Using Firestore history",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case HistoryBackendMemory:
		logging.From(ctx).Info("Using in-memory history (kept only for this process)")
		return memory.New(), nil

	default:
		return nil, goerr.New("invalid history backend", goerr.V("backend", r.backend))
	}
}
