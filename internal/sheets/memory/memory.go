// Package memory is an in-process LedgerAppender used by tests and by
// deployments without a spreadsheet configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"piggybank/internal/core"
)

type Store struct {
	mu   sync.Mutex
	rows []core.Transaction

	// AppendErr, when set, makes every Append fail. Test hook.
	AppendErr error
}

func New() *Store {
	return &Store{}
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, tx core.Transaction) (string, error) {
	if s.AppendErr != nil {
		return "", s.AppendErr
	}
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, tx)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.rows))
	copy(out, s.rows)
	return out
}
