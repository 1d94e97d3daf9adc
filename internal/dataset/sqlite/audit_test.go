package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordExport(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer store.Close()

	totals, err := store.ExportTotals(ctx)
	require.NoError(t, err)
	assert.Empty(t, totals)

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []ExportRecord{
		{ID: "a", Format: "csv", FileName: "filtered_data.csv", Rows: 14, Bytes: 900, ExportedAt: at, ReceivedAt: at},
		{ID: "b", Format: "csv", FileName: "filtered_data.csv", Rows: 14, Bytes: 900, ExportedAt: at, ReceivedAt: at},
		{ID: "c", Format: "xlsx", FileName: "filtered_data.xlsx", Rows: 14, Bytes: 6000, RequestID: "req_1", ExportedAt: at, ReceivedAt: at},
	}
	for _, rec := range records {
		inserted, err := store.RecordExport(ctx, rec)
		require.NoError(t, err)
		assert.True(t, inserted)
	}

	inserted, err := store.RecordExport(ctx, records[0])
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate IDs are ignored")

	totals, err = store.ExportTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ExportTotal{
		{Format: "csv", Count: 2, Rows: 28, Bytes: 1800},
		{Format: "xlsx", Count: 1, Rows: 14, Bytes: 6000},
	}, totals)
}
