// Package worker consumes export events and keeps an audit log of them.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"superdash/internal/amqp"
	"superdash/internal/dataset/sqlite"
	"superdash/internal/log"
)

// AuditStore persists export records.
type AuditStore interface {
	RecordExport(ctx context.Context, rec sqlite.ExportRecord) (bool, error)
	ExportTotals(ctx context.Context) ([]sqlite.ExportTotal, error)
}

// AuditWorker records every export event it receives.
type AuditWorker struct {
	store  AuditStore
	logger *log.Logger
	now    func() time.Time

	received   atomic.Int64
	duplicates atomic.Int64
}

// Stats counts events handled since start.
type Stats struct {
	Received   int64
	Duplicates int64
}

func NewAuditWorker(store AuditStore, logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AuditWorker{
		store:  store,
		logger: logger.WithComponent(log.ComponentWorker),
		now:    time.Now,
	}
}

// HandleExport stores ev. Returning an error makes the consumer requeue
// the message.
func (w *AuditWorker) HandleExport(ctx context.Context, ev *amqp.ExportEvent) error {
	if ev == nil {
		return errors.New("nil export event")
	}
	w.received.Add(1)

	inserted, err := w.store.RecordExport(ctx, sqlite.ExportRecord{
		ID:         ev.ID,
		Format:     ev.Format,
		FileName:   ev.FileName,
		Rows:       ev.Rows,
		Bytes:      ev.Bytes,
		RequestID:  ev.RequestID,
		ExportedAt: ev.Timestamp,
		ReceivedAt: w.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("record export %s: %w", ev.ID, err)
	}
	if !inserted {
		w.duplicates.Add(1)
		w.logger.DebugContext(ctx, "Duplicate export event ignored", log.FieldEventID, ev.ID)
		return nil
	}

	w.logger.InfoContext(ctx, "Export recorded",
		log.FieldEventID, ev.ID,
		log.FieldFormat, ev.Format,
		log.FieldFileName, ev.FileName,
		log.FieldRows, ev.Rows,
		log.FieldBytes, ev.Bytes,
		log.FieldRequestID, ev.RequestID)
	return nil
}

// LogTotals writes the per-format audit totals.
func (w *AuditWorker) LogTotals(ctx context.Context) error {
	totals, err := w.store.ExportTotals(ctx)
	if err != nil {
		return err
	}
	for _, t := range totals {
		w.logger.InfoContext(ctx, "Export totals",
			log.FieldFormat, t.Format,
			"count", t.Count,
			log.FieldRows, t.Rows,
			log.FieldBytes, t.Bytes)
	}
	return nil
}

// ReportEvery logs totals at each interval until ctx ends.
func (w *AuditWorker) ReportEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.LogTotals(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Failed to read export totals", log.FieldError, err)
			}
		}
	}
}

func (w *AuditWorker) Stats() Stats {
	return Stats{Received: w.received.Load(), Duplicates: w.duplicates.Load()}
}
