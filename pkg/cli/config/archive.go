package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/service/archive"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
	"github.com/secmon-lab/aligner/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// Archive holds the Cloud Storage destination of run records
type Archive struct {
	bucket string
	prefix string
}

func (x *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket receiving one JSON record per sync run",
			Category:    "Archive",
			Destination: &x.bucket,
			Sources:     cli.EnvVars("ALIGNER_ARCHIVE_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object name prefix in the archive bucket",
			Category:    "Archive",
			Value:       "aligner",
			Destination: &x.prefix,
			Sources:     cli.EnvVars("ALIGNER_ARCHIVE_PREFIX"),
		},
	}
}

func (x Archive) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// Configure returns nil without a bucket. The returned closer is never nil.
func (x *Archive) Configure(ctx context.Context) (archive.Service, func(), error) {
	if x.bucket == "" {
		return nil, func() {}, nil
	}

	gcs, err := archive.NewGCS(ctx, x.bucket, x.prefix)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to configure archive", goerr.V("bucket", x.bucket))
	}
	logging.From(ctx).Info("Archiving sync runs", "bucket", x.bucket, "prefix", x.prefix)

	return gcs, func() { safe.Close(ctx, gcs) }, nil
}
