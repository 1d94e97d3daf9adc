package worker

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"superdash/internal/amqp"
	"superdash/internal/dataset/sqlite"
	"superdash/internal/log"
)

type failingStore struct{}

func (failingStore) RecordExport(context.Context, sqlite.ExportRecord) (bool, error) {
	return false, errors.New("disk full")
}

func (failingStore) ExportTotals(context.Context) ([]sqlite.ExportTotal, error) {
	return nil, errors.New("disk full")
}

func newWorker(t *testing.T) (*AuditWorker, *sqlite.Store, *bytes.Buffer) {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var buf bytes.Buffer
	w := NewAuditWorker(store, log.New(log.Config{Format: "json", Output: &buf}))
	w.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return w, store, &buf
}

func TestHandleExport(t *testing.T) {
	w, store, buf := newWorker(t)
	ctx := context.Background()

	ev := amqp.NewExportEvent("csv", "filtered_data.csv", 14, 900)
	ev.RequestID = "req_abc"
	require.NoError(t, w.HandleExport(ctx, ev))
	require.NoError(t, w.HandleExport(ctx, ev))
	require.NoError(t, w.HandleExport(ctx, amqp.NewExportEvent("xlsx", "filtered_data.xlsx", 14, 5000)))

	assert.Equal(t, Stats{Received: 3, Duplicates: 1}, w.Stats())
	assert.Contains(t, buf.String(), `"request_id":"req_abc"`)

	totals, err := store.ExportTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, 1, totals[0].Count)

	buf.Reset()
	require.NoError(t, w.LogTotals(ctx))
	assert.Contains(t, buf.String(), `"format":"xlsx"`)
}

func TestHandleExportErrors(t *testing.T) {
	w := NewAuditWorker(failingStore{}, log.New(log.Config{Output: &bytes.Buffer{}}))
	assert.Error(t, w.HandleExport(context.Background(), nil))
	assert.ErrorContains(t, w.HandleExport(context.Background(), amqp.NewExportEvent("csv", "f.csv", 1, 1)), "disk full")
	assert.Error(t, w.LogTotals(context.Background()))
}

func TestReportEveryStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := NewAuditWorker(failingStore{}, log.New(log.Config{Output: &bytes.Buffer{}}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.ReportEvery(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	<-done
}
