package archive_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/domain/types"
	"github.com/secmon-lab/aligner/pkg/service/archive"
)

func sampleRun() *model.SyncRun {
	started := time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("JST", 9*60*60))
	return &model.SyncRun{
		ID:         "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Minute),
		Stats: []model.SyncStats{
			{MappingName: "eng", Added: 1, Status: types.SyncStatusSuccess},
		},
	}
}

func TestObjectName(t *testing.T) {
	run := sampleRun()
	gt.Value(t, archive.ObjectName("aligner/runs", run)).Equal("aligner/runs/2026/03/09/run-1.json")
	gt.Value(t, archive.ObjectName("", run)).Equal("2026/03/09/run-1.json")
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	gt.NoError(t, archive.Encode(&buf, sampleRun())).Required()

	var decoded model.SyncRun
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &decoded)).Required()
	gt.Value(t, decoded.ID).Equal(model.SyncRunID("run-1"))
	gt.Array(t, decoded.Stats).Length(1)
	gt.Value(t, decoded.Stats[0].Status).Equal(types.SyncStatusSuccess)
}

func TestNewGCS(t *testing.T) {
	t.Run("requires bucket", func(t *testing.T) {
		_, err := archive.NewGCS(context.Background(), "", "")
		gt.Value(t, err).NotNil()
	})

	t.Run("uploads to a real bucket", func(t *testing.T) {
		bucket := os.Getenv("TEST_ARCHIVE_BUCKET")
		if bucket == "" {
			t.Skip("TEST_ARCHIVE_BUCKET not set")
		}
		ctx := context.Background()
		svc, err := archive.NewGCS(ctx, bucket, "test")
		gt.NoError(t, err).Required()
		defer svc.Close()

		run := sampleRun()
		run.ID = model.SyncRunID("test-" + time.Now().Format("150405.000000"))
		gt.NoError(t, svc.Save(ctx, run)).Required()
	})
}

// objectWriter records the order of abort and Close calls
type objectWriter struct {
	bytes.Buffer
	failWrite bool
	closeErr  error
	events    []string
}

func (w *objectWriter) Write(p []byte) (int, error) {
	if w.failWrite {
		return 0, errors.New("connection reset")
	}
	return w.Buffer.Write(p)
}

func (w *objectWriter) Close() error {
	w.events = append(w.events, "close")
	return w.closeErr
}

func TestWriteObject(t *testing.T) {
	t.Run("commits an encoded run", func(t *testing.T) {
		w := &objectWriter{}
		aborted := false
		gt.NoError(t, archive.WriteObject(w, func() { aborted = true }, sampleRun())).Required()

		gt.Bool(t, aborted).False()
		gt.Value(t, w.events).Equal([]string{"close"})
		gt.String(t, w.String()).Contains(`"id": "run-1"`)
	})

	t.Run("aborts before close when encoding fails", func(t *testing.T) {
		w := &objectWriter{failWrite: true}
		abort := func() { w.events = append(w.events, "abort") }

		gt.Error(t, archive.WriteObject(w, abort, sampleRun()))
		gt.Value(t, w.events).Equal([]string{"abort", "close"})
	})

	t.Run("close failure is returned", func(t *testing.T) {
		w := &objectWriter{closeErr: errors.New("precondition failed")}
		err := archive.WriteObject(w, func() {}, sampleRun())
		gt.Error(t, err)
		gt.String(t, err.Error()).Contains("failed to commit object")
	})
}
