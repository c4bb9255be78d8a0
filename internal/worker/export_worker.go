// Package worker exports recorded ledger transactions to a spreadsheet,
// driven by AMQP events with a periodic scan as the safety net.
package worker

import (
	"context"
	"errors"
	"fmt"
	"piggybank/internal/amqp"
	"piggybank/internal/core"
	"piggybank/internal/log"
	"piggybank/internal/sheets"
)

// Storage is the slice of the repository the worker needs.
type Storage interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	PendingExport(ctx context.Context, limit int) ([]int64, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error
}

type ExportWorker struct {
	storage   Storage
	appender  sheets.LedgerAppender
	batchSize int
	logger    *log.Logger
}

func NewExportWorker(storage Storage, appender sheets.LedgerAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
		logger:    log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerEvent processes one ledger event from AMQP: fetch the row,
// append it to the sheet, record the outcome.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger event", log.FieldTxID, msg.ID, log.FieldUserID, msg.UserID)
	return w.export(ctx, msg.ID)
}

// ProcessPending exports transactions the event stream missed, in batches.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	ids, err := w.storage.PendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending exports", "count", len(ids))
	var failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.export(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "Pending export failed", log.FieldTxID, id, log.FieldError, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pending exports failed", failed, len(ids))
	}
	return nil
}

// StartupCheck drains whatever was pending when the worker was down.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Startup export check", log.FieldOperation, log.OpStartup)
	return w.ProcessPending(ctx)
}

func (w *ExportWorker) export(ctx context.Context, id int64) error {
	tx, err := w.storage.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// The row is gone; nothing to retry.
		w.logger.WarnContext(ctx, "Transaction vanished before export", log.FieldTxID, id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	ref, err := w.appender.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, id); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark export error", log.FieldTxID, id, log.FieldError, markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkExported(ctx, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}

	w.logger.InfoContext(ctx, "Transaction exported", log.FieldTxID, id, log.FieldSheetsRef, ref)
	return nil
}
