package core

import (
	"errors"
	"testing"
	"time"
)

func TestApplyAllowance(t *testing.T) {
	cases := []struct {
		name      string
		current   int64
		amount    int64
		percent   int
		wantSaved int64
		wantNew   int64
		wantErr   error
	}{
		{"twenty percent of 100", 0, 10000, 20, 2000, 2000, nil},
		{"accumulates on existing balance", 1500, 10000, 20, 2000, 3500, nil},
		{"rounds half up", 0, 333, 15, 50, 50, nil}, // 49.95 cents -> 50
		{"rounds down below half", 0, 101, 33, 33, 33, nil},
		{"minimum percent", 0, 10000, 5, 500, 500, nil},
		{"maximum percent", 0, 10000, 50, 5000, 5000, nil},
		{"zero amount", 100, 0, 20, 0, 100, ErrInvalidAmount},
		{"negative amount", 100, -500, 20, 0, 100, ErrInvalidAmount},
		{"percent too low", 0, 10000, 4, 0, 0, ErrInvalidPercent},
		{"percent too high", 0, 10000, 51, 0, 0, ErrInvalidPercent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			newBal, saved, err := ApplyAllowance(Money{Cents: tc.current}, Money{Cents: tc.amount}, tc.percent)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if newBal.Cents != tc.current {
					t.Fatalf("balance changed on error: %d", newBal.Cents)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if saved.Cents != tc.wantSaved {
				t.Fatalf("saved = %d, want %d", saved.Cents, tc.wantSaved)
			}
			if newBal.Cents != tc.wantNew {
				t.Fatalf("new balance = %d, want %d", newBal.Cents, tc.wantNew)
			}
		})
	}
}

// The saved increment is always exactly round(amount*percent/100, 2):
// integer cents make the result independent of any floating-point
// representation of the amount.
func TestApplyAllowanceExactIncrement(t *testing.T) {
	amounts := []int64{1, 3, 7, 99, 101, 9999, 10001, 123457}
	for _, a := range amounts {
		for p := MinSavingsPercent; p <= MaxSavingsPercent; p++ {
			_, saved, err := ApplyAllowance(Money{}, Money{Cents: a}, p)
			if err != nil {
				t.Fatalf("amount=%d percent=%d: %v", a, p, err)
			}
			want := (a*int64(p) + 50) / 100
			if saved.Cents != want {
				t.Fatalf("amount=%d percent=%d: saved=%d, want %d", a, p, saved.Cents, want)
			}
		}
	}
}

func TestApplyUnlock(t *testing.T) {
	cases := []struct {
		name    string
		current int64
		amount  int64
		reason  UnlockReason
		notes   string
		wantNew int64
		wantErr error
	}{
		{"emergency unlock", 5000, 1000, ReasonEmergency, "", 4000, nil},
		{"full balance", 5000, 5000, ReasonGoal, "", 0, nil},
		{"other with notes", 5000, 1000, ReasonOther, "car repair", 4000, nil},
		{"exceeds balance", 1500, 2000, ReasonEmergency, "", 1500, ErrInsufficientSavings},
		{"zero amount", 5000, 0, ReasonEmergency, "", 5000, ErrInvalidAmount},
		{"negative amount", 5000, -100, ReasonEmergency, "", 5000, ErrInvalidAmount},
		{"unknown reason", 5000, 100, UnlockReason("shopping"), "", 5000, ErrInvalidReason},
		{"other without notes", 5000, 100, ReasonOther, "", 5000, ErrMissingNotes},
		{"other with blank notes", 5000, 100, ReasonOther, "   \t", 5000, ErrMissingNotes},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			newBal, err := ApplyUnlock(Money{Cents: tc.current}, Money{Cents: tc.amount}, tc.reason, tc.notes)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if newBal.Cents != tc.wantNew {
				t.Fatalf("balance = %d, want %d", newBal.Cents, tc.wantNew)
			}
		})
	}
}

func TestValidatePercent(t *testing.T) {
	for _, p := range []int{5, 20, 50} {
		if err := ValidatePercent(p); err != nil {
			t.Fatalf("percent %d expected ok, got %v", p, err)
		}
	}
	for _, p := range []int{0, 4, 51, -3, 100} {
		if err := ValidatePercent(p); !errors.Is(err, ErrInvalidPercent) {
			t.Fatalf("percent %d expected ErrInvalidPercent, got %v", p, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	now := time.Now()
	good := []Transaction{
		{UserID: "u1", Amount: Money{Cents: 100}, Type: Allowance, SavingsPercent: 20, CreatedAt: now},
		{UserID: "u1", Amount: Money{Cents: 100}, Type: Unlock, Reason: ReasonHealth, CreatedAt: now},
		{UserID: "u1", Amount: Money{Cents: 100}, Type: Unlock, Reason: ReasonOther, Notes: "vet bill", CreatedAt: now},
	}
	for i, tx := range good {
		if err := tx.Validate(); err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
	}

	bad := []Transaction{
		{UserID: "", Amount: Money{Cents: 100}, Type: Allowance, SavingsPercent: 20},
		{UserID: "u1", Amount: Money{Cents: 0}, Type: Allowance, SavingsPercent: 20},
		{UserID: "u1", Amount: Money{Cents: 100}, Type: Allowance, SavingsPercent: 0},
		{UserID: "u1", Amount: Money{Cents: 100}, Type: Unlock, Reason: UnlockReason("nope")},
		{UserID: "u1", Amount: Money{Cents: 100}, Type: Unlock, Reason: ReasonOther, Notes: " "},
		{UserID: "u1", Amount: Money{Cents: 100}, Type: TransactionType("transfer")},
	}
	for i, tx := range bad {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRecomputeBalanceMatchesIncremental(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []Transaction{
		{ID: 1, UserID: "u1", Amount: Money{Cents: 10000}, Type: Allowance, SavingsPercent: 20, CreatedAt: base},
		{ID: 2, UserID: "u1", Amount: Money{Cents: 333}, Type: Allowance, SavingsPercent: 15, CreatedAt: base.Add(time.Hour)},
		{ID: 3, UserID: "u1", Amount: Money{Cents: 500}, Type: Unlock, Reason: ReasonTravel, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 4, UserID: "u1", Amount: Money{Cents: 5000}, Type: Allowance, SavingsPercent: 35, CreatedAt: base.Add(3 * time.Hour)},
	}

	var incremental Money
	for _, tx := range history {
		switch tx.Type {
		case Allowance:
			next, _, err := ApplyAllowance(incremental, tx.Amount, tx.SavingsPercent)
			if err != nil {
				t.Fatal(err)
			}
			incremental = next
		case Unlock:
			next, err := ApplyUnlock(incremental, tx.Amount, tx.Reason, tx.Notes)
			if err != nil {
				t.Fatal(err)
			}
			incremental = next
		}
	}

	recomputed := RecomputeBalance(history, DefaultSavingsPercent)
	if recomputed.Cents != incremental.Cents {
		t.Fatalf("recomputed %d != incremental %d", recomputed.Cents, incremental.Cents)
	}
}

func TestIsValidationError(t *testing.T) {
	if !IsValidationError(ErrInsufficientSavings) {
		t.Fatal("ErrInsufficientSavings should classify as validation")
	}
	if IsValidationError(errors.New("disk full")) {
		t.Fatal("arbitrary error should not classify as validation")
	}
	if IsValidationError(nil) {
		t.Fatal("nil should not classify as validation")
	}
}
