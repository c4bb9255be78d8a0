// Package storage persists the savings ledger in SQLite. The transaction
// insert and the balance upsert happen inside one SQL transaction so the
// two records can never diverge on a partial failure.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"piggybank/internal/core"

	_ "modernc.org/sqlite"
)

// ExportStatus values for the sheets-export queue.
const (
	ExportPending = "pending"
	ExportDone    = "exported"
	ExportError   = "error"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetSetting implements ledger.Store.
func (r *SQLiteRepository) GetSetting(ctx context.Context, userID string) (core.Setting, error) {
	var s core.Setting
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, savings_percent, updated_at FROM savings_settings WHERE user_id = ?`,
		userID,
	).Scan(&s.UserID, &s.SavingsPercent, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Setting{}, core.ErrNotFound
	}
	if err != nil {
		return core.Setting{}, fmt.Errorf("get setting: %w", err)
	}
	return s, nil
}

// UpsertSetting implements ledger.Store. Last write wins on user_id.
func (r *SQLiteRepository) UpsertSetting(ctx context.Context, s core.Setting) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO savings_settings (user_id, savings_percent, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   savings_percent = excluded.savings_percent,
		   updated_at = excluded.updated_at`,
		s.UserID, s.SavingsPercent, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}

// GetBalance implements ledger.Store.
func (r *SQLiteRepository) GetBalance(ctx context.Context, userID string) (core.Balance, error) {
	var b core.Balance
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, locked_cents, updated_at FROM savings_balances WHERE user_id = ?`,
		userID,
	).Scan(&b.UserID, &b.LockedCents, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Balance{}, core.ErrNotFound
	}
	if err != nil {
		return core.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

// ListTransactions implements ledger.Store, ordered by creation time ascending.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, tx_type, savings_percent, reason, notes, created_at
		 FROM transactions
		 WHERE user_id = ?
		 ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// RecordTransaction implements ledger.Store: the transaction row and the new
// balance are committed atomically, and the inserted id is returned.
func (r *SQLiteRepository) RecordTransaction(ctx context.Context, t core.Transaction, newBalance core.Balance) (int64, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, amount_cents, tx_type, savings_percent, reason, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Amount.Cents, string(t.Type), t.SavingsPercent,
		nullableString(string(t.Reason)), nullableString(t.Notes), t.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO savings_balances (user_id, locked_cents, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   locked_cents = excluded.locked_cents,
		   updated_at = excluded.updated_at`,
		newBalance.UserID, newBalance.LockedCents, newBalance.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert balance: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Ledger event recorded",
		"id", id,
		"user_id", t.UserID,
		"tx_type", string(t.Type),
		"amount_cents", t.Amount.Cents,
		"locked_cents", newBalance.LockedCents)

	return id, nil
}

// GetTransaction retrieves a single transaction by id for the export worker.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, amount_cents, tx_type, savings_percent, reason, notes, created_at
		 FROM transactions WHERE id = ?`,
		id,
	)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// PendingExport returns ids of transactions not yet exported, oldest first.
func (r *SQLiteRepository) PendingExport(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM transactions WHERE export_status = ? ORDER BY id ASC LIMIT ?`,
		ExportPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("pending export: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending ids: %w", err)
	}
	return ids, nil
}

// MarkExported marks a transaction as appended to the spreadsheet.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if err := r.setExportStatus(ctx, id, ExportDone); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id)
	return nil
}

// MarkExportError flags a transaction whose export failed.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if err := r.setExportStatus(ctx, id, ExportError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

func (r *SQLiteRepository) setExportStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set export status %s: %w", status, err)
	}
	return nil
}

// RecomputeBalance sums the user's full history from scratch. The cached
// balance row must always agree with this value.
func (r *SQLiteRepository) RecomputeBalance(ctx context.Context, userID string) (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(CASE tx_type
		   WHEN 'allowance' THEN (amount_cents * savings_percent + 50) / 100
		   ELSE -amount_cents
		 END)
		 FROM transactions WHERE user_id = ?`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("recompute balance: %w", err)
	}
	return total.Int64, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx     core.Transaction
		reason sql.NullString
		notes  sql.NullString
		at     time.Time
	)
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Amount.Cents, (*string)(&tx.Type),
		&tx.SavingsPercent, &reason, &notes, &at)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Reason = core.UnlockReason(reason.String)
	tx.Notes = notes.String
	tx.CreatedAt = at
	return tx, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
