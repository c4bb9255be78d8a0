package sheets

import (
	"context"

	"piggybank/internal/core"
)

// LedgerAppender is the outbound port for the spreadsheet export: one row
// per recorded transaction, returning an opaque row reference.
type LedgerAppender interface {
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}
