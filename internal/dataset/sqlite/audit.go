package sqlite

import (
	"context"
	"fmt"
	"time"
)

// ExportRecord is one delivered download as seen by the audit worker.
type ExportRecord struct {
	ID         string
	Format     string
	FileName   string
	Rows       int
	Bytes      int
	RequestID  string
	ExportedAt time.Time
	ReceivedAt time.Time
}

// ExportTotal sums the audit log for one format.
type ExportTotal struct {
	Format string
	Count  int
	Rows   int64
	Bytes  int64
}

// RecordExport stores rec. A record whose ID is already present is
// ignored and reported as not inserted, so redelivered events are safe.
func (s *Store) RecordExport(ctx context.Context, rec ExportRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO export_audit
			(id, format, file_name, row_count, byte_count, request_id, exported_at, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Format, rec.FileName, rec.Rows, rec.Bytes, rec.RequestID,
		rec.ExportedAt.Unix(), rec.ReceivedAt.Unix())
	if err != nil {
		return false, fmt.Errorf("insert export record %s: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// ExportTotals returns per-format totals ordered by format.
func (s *Store) ExportTotals(ctx context.Context) ([]ExportTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT format, COUNT(*), SUM(row_count), SUM(byte_count)
		FROM export_audit
		GROUP BY format
		ORDER BY format`)
	if err != nil {
		return nil, fmt.Errorf("query export totals: %w", err)
	}
	defer rows.Close()

	var out []ExportTotal
	for rows.Next() {
		var t ExportTotal
		if err := rows.Scan(&t.Format, &t.Count, &t.Rows, &t.Bytes); err != nil {
			return nil, fmt.Errorf("scan export total: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
