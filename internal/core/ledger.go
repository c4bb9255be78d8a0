package core

import "strings"

// SavedAmount computes the portion of an allowance diverted into savings:
// amount * percent / 100, rounded half-up to whole cents. The rounded
// increment is what gets added to the balance, so repeated allowances
// accumulate rounded cents rather than exact fractions.
func SavedAmount(amount Money, percent int) Money {
	return Money{Cents: (amount.Cents*int64(percent) + 50) / 100}
}

// ApplyAllowance computes the new locked balance after an allowance deposit.
// The percentage is applied at deposit time; later setting changes never
// recalculate amounts already saved.
func ApplyAllowance(current, amount Money, percent int) (newBalance, saved Money, err error) {
	if amount.Cents <= 0 {
		return current, Money{}, ErrInvalidAmount
	}
	if err := ValidatePercent(percent); err != nil {
		return current, Money{}, err
	}
	saved = SavedAmount(amount, percent)
	return Money{Cents: current.Cents + saved.Cents}, saved, nil
}

// ApplyUnlock computes the new locked balance after releasing savings.
// Every violation is a validation error reported before any write is
// attempted; the balance is returned unchanged on error.
func ApplyUnlock(current, amount Money, reason UnlockReason, notes string) (Money, error) {
	if amount.Cents <= 0 {
		return current, ErrInvalidAmount
	}
	if amount.Cents > current.Cents {
		return current, ErrInsufficientSavings
	}
	if !reason.Valid() {
		return current, ErrInvalidReason
	}
	if reason == ReasonOther && strings.TrimSpace(notes) == "" {
		return current, ErrMissingNotes
	}
	return Money{Cents: current.Cents - amount.Cents}, nil
}

// RecomputeBalance derives the locked balance from scratch over a full
// transaction history. Incremental maintenance must always agree with this.
func RecomputeBalance(transactions []Transaction, fallbackPercent int) Money {
	var total int64
	for _, tx := range transactions {
		switch tx.Type {
		case Allowance:
			p := tx.SavingsPercent
			if p == 0 {
				p = fallbackPercent
			}
			total += SavedAmount(tx.Amount, p).Cents
		case Unlock:
			total -= tx.Amount.Cents
		}
	}
	return Money{Cents: total}
}
