// Package ledger orchestrates the savings operations: allowance deposits,
// unlocks, percentage changes, and the derived overview and chart series.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"piggybank/internal/core"
)

// Receipt summarizes an accepted ledger write for display.
type Receipt struct {
	TransactionID int64
	Saved         core.Money
	Percent       int
	NewBalance    core.Money
}

// Overview is the current state shown on the main page.
type Overview struct {
	Balance core.Money
	Percent int
	History []core.Transaction
}

// SavingsService validates ledger actions locally, records accepted ones
// through the store, and publishes change notifications best-effort.
type SavingsService struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func NewSavingsService(store Store, notifier Notifier) *SavingsService {
	return &SavingsService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// AddAllowance records an allowance deposit, locking the configured
// percentage into savings at deposit time.
func (s *SavingsService) AddAllowance(ctx context.Context, userID string, amountCents int64) (Receipt, error) {
	percent, err := s.currentPercent(ctx, userID)
	if err != nil {
		return Receipt{}, err
	}
	current, err := s.currentBalance(ctx, userID)
	if err != nil {
		return Receipt{}, err
	}

	newBalance, saved, err := core.ApplyAllowance(current, core.Money{Cents: amountCents}, percent)
	if err != nil {
		return Receipt{}, err
	}

	tx := core.Transaction{
		UserID:         userID,
		Amount:         core.Money{Cents: amountCents},
		Type:           core.Allowance,
		SavingsPercent: percent,
		CreatedAt:      s.now(),
	}
	if err := tx.Validate(); err != nil {
		return Receipt{}, err
	}

	id, err := s.record(ctx, tx, newBalance)
	if err != nil {
		return Receipt{}, err
	}

	slog.InfoContext(ctx, "Allowance recorded",
		"user_id", userID,
		"transaction_id", id,
		"amount_cents", amountCents,
		"saved_cents", saved.Cents,
		"savings_percent", percent,
		"locked_cents", newBalance.Cents)

	return Receipt{TransactionID: id, Saved: saved, Percent: percent, NewBalance: newBalance}, nil
}

// Unlock releases savings for a stated reason. Validation failures are
// reported before any write is attempted.
func (s *SavingsService) Unlock(ctx context.Context, userID string, amountCents int64, reason core.UnlockReason, notes string) (Receipt, error) {
	current, err := s.currentBalance(ctx, userID)
	if err != nil {
		return Receipt{}, err
	}

	newBalance, err := core.ApplyUnlock(current, core.Money{Cents: amountCents}, reason, notes)
	if err != nil {
		return Receipt{}, err
	}

	tx := core.Transaction{
		UserID:    userID,
		Amount:    core.Money{Cents: amountCents},
		Type:      core.Unlock,
		Reason:    reason,
		Notes:     notes,
		CreatedAt: s.now(),
	}
	if err := tx.Validate(); err != nil {
		return Receipt{}, err
	}

	id, err := s.record(ctx, tx, newBalance)
	if err != nil {
		return Receipt{}, err
	}

	slog.InfoContext(ctx, "Savings unlocked",
		"user_id", userID,
		"transaction_id", id,
		"amount_cents", amountCents,
		"unlock_reason", string(reason),
		"locked_cents", newBalance.Cents)

	return Receipt{TransactionID: id, NewBalance: newBalance}, nil
}

// ChangePercent updates the user's savings percentage. Past transactions
// and the current balance are untouched.
func (s *SavingsService) ChangePercent(ctx context.Context, userID string, percent int) error {
	if err := core.ValidatePercent(percent); err != nil {
		return err
	}
	setting := core.Setting{UserID: userID, SavingsPercent: percent, UpdatedAt: s.now()}
	if err := s.store.UpsertSetting(ctx, setting); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.PublishSettingChanged(ctx, userID, percent); err != nil {
			slog.WarnContext(ctx, "Failed to publish setting change", "user_id", userID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Savings percent updated", "user_id", userID, "savings_percent", percent)
	return nil
}

// Overview returns the current balance, percentage, and history.
func (s *SavingsService) Overview(ctx context.Context, userID string) (Overview, error) {
	percent, err := s.currentPercent(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	balance, err := s.currentBalance(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	history, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return Overview{}, fmt.Errorf("list transactions: %w", err)
	}
	return Overview{Balance: balance, Percent: percent, History: history}, nil
}

// Series returns the cumulative savings series for the growth chart.
func (s *SavingsService) Series(ctx context.Context, userID string, g core.Granularity) ([]core.SeriesPoint, error) {
	if !g.Valid() {
		g = core.Monthly
	}
	percent, err := s.currentPercent(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.BuildSeries(history, percent, g), nil
}

// Balance returns the user's locked savings, zero if nothing is saved yet.
func (s *SavingsService) Balance(ctx context.Context, userID string) (core.Money, error) {
	return s.currentBalance(ctx, userID)
}

func (s *SavingsService) currentPercent(ctx context.Context, userID string) (int, error) {
	setting, err := s.store.GetSetting(ctx, userID)
	switch {
	case err == nil:
		return setting.SavingsPercent, nil
	case isNotFound(err):
		// No row yet: the default applies, not an error.
		return core.DefaultSavingsPercent, nil
	default:
		return 0, fmt.Errorf("get setting: %w", err)
	}
}

func (s *SavingsService) currentBalance(ctx context.Context, userID string) (core.Money, error) {
	balance, err := s.store.GetBalance(ctx, userID)
	switch {
	case err == nil:
		return core.Money{Cents: balance.LockedCents}, nil
	case isNotFound(err):
		return core.Money{}, nil
	default:
		return core.Money{}, fmt.Errorf("get balance: %w", err)
	}
}

func (s *SavingsService) record(ctx context.Context, tx core.Transaction, newBalance core.Money) (int64, error) {
	balance := core.Balance{UserID: tx.UserID, LockedCents: newBalance.Cents, UpdatedAt: tx.CreatedAt}
	id, err := s.store.RecordTransaction(ctx, tx, balance)
	if err != nil {
		return 0, fmt.Errorf("record transaction: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.PublishLedgerEvent(ctx, id, tx.UserID); err != nil {
			// Export is best-effort; the periodic scan picks up missed events.
			slog.WarnContext(ctx, "Failed to publish ledger event", "transaction_id", id, "error", err)
		}
	}
	return id, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
