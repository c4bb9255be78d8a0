package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"piggybank/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "piggybank.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func allowanceTx(userID string, cents int64, percent int, at time.Time) core.Transaction {
	return core.Transaction{
		UserID:         userID,
		Amount:         core.Money{Cents: cents},
		Type:           core.Allowance,
		SavingsPercent: percent,
		CreatedAt:      at,
	}
}

func TestSettingRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSetting(ctx, "u1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := repo.UpsertSetting(ctx, core.Setting{UserID: "u1", SavingsPercent: 25, UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetSetting(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.SavingsPercent != 25 {
		t.Fatalf("percent = %d, want 25", got.SavingsPercent)
	}

	// Last write wins on the same user.
	if err := repo.UpsertSetting(ctx, core.Setting{UserID: "u1", SavingsPercent: 40, UpdatedAt: now.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}
	got, err = repo.GetSetting(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.SavingsPercent != 40 {
		t.Fatalf("percent = %d, want 40", got.SavingsPercent)
	}
}

func TestRecordTransactionAtomicUpsert(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	if _, err := repo.GetBalance(ctx, "u1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	id, err := repo.RecordTransaction(ctx,
		allowanceTx("u1", 10000, 20, base),
		core.Balance{UserID: "u1", LockedCents: 2000, UpdatedAt: base})
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	unlock := core.Transaction{
		UserID:    "u1",
		Amount:    core.Money{Cents: 500},
		Type:      core.Unlock,
		Reason:    core.ReasonEmergency,
		CreatedAt: base.Add(time.Hour),
	}
	if _, err := repo.RecordTransaction(ctx, unlock,
		core.Balance{UserID: "u1", LockedCents: 1500, UpdatedAt: base.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}

	bal, err := repo.GetBalance(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if bal.LockedCents != 1500 {
		t.Fatalf("locked = %d, want 1500", bal.LockedCents)
	}

	history, err := repo.ListTransactions(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Type != core.Allowance || history[0].SavingsPercent != 20 {
		t.Fatalf("first tx = %+v", history[0])
	}
	if history[1].Type != core.Unlock || history[1].Reason != core.ReasonEmergency || history[1].Notes != "" {
		t.Fatalf("second tx = %+v", history[1])
	}
}

func TestRecomputeBalanceAgreesWithCached(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	running := int64(0)
	steps := []struct {
		tx core.Transaction
	}{
		{allowanceTx("u1", 10000, 20, base)},
		{allowanceTx("u1", 333, 15, base.Add(time.Hour))},
		{core.Transaction{UserID: "u1", Amount: core.Money{Cents: 500}, Type: core.Unlock, Reason: core.ReasonTravel, CreatedAt: base.Add(2 * time.Hour)}},
	}
	for _, s := range steps {
		switch s.tx.Type {
		case core.Allowance:
			running += core.SavedAmount(s.tx.Amount, s.tx.SavingsPercent).Cents
		case core.Unlock:
			running -= s.tx.Amount.Cents
		}
		if _, err := repo.RecordTransaction(ctx, s.tx,
			core.Balance{UserID: "u1", LockedCents: running, UpdatedAt: s.tx.CreatedAt}); err != nil {
			t.Fatal(err)
		}
	}

	recomputed, err := repo.RecomputeBalance(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	cached, err := repo.GetBalance(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if recomputed != cached.LockedCents {
		t.Fatalf("recomputed %d != cached %d", recomputed, cached.LockedCents)
	}
}

func TestExportQueue(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := repo.RecordTransaction(ctx,
			allowanceTx("u1", 1000, 20, base.Add(time.Duration(i)*time.Minute)),
			core.Balance{UserID: "u1", LockedCents: int64(200 * (i + 1)), UpdatedAt: base})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	pending, err := repo.PendingExport(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %v, want 3 ids", pending)
	}

	if err := repo.MarkExported(ctx, ids[0]); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkExportError(ctx, ids[1]); err != nil {
		t.Fatal(err)
	}

	pending, err = repo.PendingExport(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0] != ids[2] {
		t.Fatalf("pending = %v, want [%d]", pending, ids[2])
	}

	tx, err := repo.GetTransaction(ctx, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if tx.ID != ids[0] || tx.Amount.Cents != 1000 {
		t.Fatalf("transaction = %+v", tx)
	}

	if _, err := repo.GetTransaction(ctx, 99999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
