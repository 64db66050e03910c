package archive

import (
	"context"
	"encoding/json"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
)

// Service writes a copy of each finished run somewhere durable
type Service interface {
	Save(ctx context.Context, run *model.SyncRun) error
}

// ObjectName returns the object key of run under prefix: <prefix>/YYYY/MM/DD/<run id>.json
func ObjectName(prefix string, run *model.SyncRun) string {
	return path.Join(prefix, run.StartedAt.UTC().Format("2006/01/02"), string(run.ID)+".json")
}

// Encode writes run as indented JSON
func Encode(w io.Writer, run *model.SyncRun) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return goerr.Wrap(err, "failed to encode sync run", goerr.V("id", run.ID))
	}
	return nil
}

// GCS archives runs to a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS creates an archive writing to a Cloud Storage bucket with application default credentials
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("archive bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	return &GCS{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Save uploads run as a JSON object
func (x *GCS) Save(ctx context.Context, run *model.SyncRun) error {
	name := ObjectName(x.prefix, run)

	// Cancelling the writer's context aborts the upload without committing an object
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := x.client.Bucket(x.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"

	if err := writeObject(w, cancel, run); err != nil {
		return goerr.Wrap(err, "failed to upload sync run", goerr.V("bucket", x.bucket), goerr.V("object", name))
	}

	logging.From(ctx).Info("Archived sync run", "bucket", x.bucket, "object", name)
	return nil
}

// writeObject encodes run into w and commits it by closing w. On an encoding
// failure abort is called before Close so a partial object is never committed.
func writeObject(w io.WriteCloser, abort context.CancelFunc, run *model.SyncRun) error {
	if err := Encode(w, run); err != nil {
		abort()
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to commit object", goerr.V("id", run.ID))
	}
	return nil
}

// Close releases the storage client
func (x *GCS) Close() error {
	return x.client.Close()
}
