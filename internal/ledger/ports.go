package ledger

import (
	"context"

	"piggybank/internal/core"
)

// Ports for outbound collaborators. The store is the hosted relational
// backend of the original design; the notifier is its change-push channel.
type (
	Store interface {
		// GetSetting returns core.ErrNotFound when the user has never saved
		// a preference; callers supply the default.
		GetSetting(ctx context.Context, userID string) (core.Setting, error)
		UpsertSetting(ctx context.Context, s core.Setting) error

		// GetBalance returns core.ErrNotFound before the first allowance.
		GetBalance(ctx context.Context, userID string) (core.Balance, error)

		// ListTransactions returns the user's full history ordered by
		// creation time ascending.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)

		// RecordTransaction appends the transaction and persists the new
		// balance as one atomic unit, returning the transaction id.
		RecordTransaction(ctx context.Context, tx core.Transaction, newBalance core.Balance) (int64, error)
	}

	Notifier interface {
		PublishLedgerEvent(ctx context.Context, id int64, userID string) error
		PublishSettingChanged(ctx context.Context, userID string, percent int) error
	}
)
