package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
)

func TestFromContext(t *testing.T) {
	t.Run("falls back to default logger", func(t *testing.T) {
		gt.Value(t, logging.From(context.Background())).Equal(logging.Default())
	})

	t.Run("returns logger stored in context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		ctx := logging.With(context.Background(), logger)

		logging.From(ctx).Info("hello", "mapping", "eng")
		gt.String(t, buf.String()).Contains("mapping=eng")
	})
}
