package storage

import (
	"context"
	"sync"

	"piggybank/internal/core"
)

// MemoryStore keeps the ledger in process memory. It backs the default
// data backend for local play and the handler tests.
type MemoryStore struct {
	mu           sync.Mutex
	settings     map[string]core.Setting
	balances     map[string]core.Balance
	transactions []core.Transaction
	nextID       int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings: map[string]core.Setting{},
		balances: map[string]core.Balance{},
		nextID:   1,
	}
}

func (m *MemoryStore) GetSetting(_ context.Context, userID string) (core.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[userID]
	if !ok {
		return core.Setting{}, core.ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) UpsertSetting(_ context.Context, s core.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.UserID] = s
	return nil
}

func (m *MemoryStore) GetBalance(_ context.Context, userID string) (core.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return core.Balance{}, core.ErrNotFound
	}
	return b, nil
}

func (m *MemoryStore) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Transaction
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	// Insertion order is creation order here; no re-sort needed.
	return out, nil
}

func (m *MemoryStore) RecordTransaction(_ context.Context, tx core.Transaction, newBalance core.Balance) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.ID = m.nextID
	m.nextID++
	m.transactions = append(m.transactions, tx)
	m.balances[tx.UserID] = newBalance
	return tx.ID, nil
}
