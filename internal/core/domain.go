package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Allowance TransactionType = "allowance"
	Unlock    TransactionType = "unlock"
)

const (
	ReasonEmergency  UnlockReason = "emergency"
	ReasonEducation  UnlockReason = "education"
	ReasonInvestment UnlockReason = "investment"
	ReasonTravel     UnlockReason = "travel"
	ReasonFamily     UnlockReason = "family"
	ReasonHealth     UnlockReason = "health"
	ReasonGoal       UnlockReason = "goal"
	ReasonOther      UnlockReason = "other"
)

// DefaultSavingsPercent applies until the user saves a preference.
const DefaultSavingsPercent = 20

// Allowed range for the savings percentage setting.
const (
	MinSavingsPercent = 5
	MaxSavingsPercent = 50
)

type (
	TransactionType string

	UnlockReason string

	Money struct {
		Cents int64
	}

	// Transaction is an immutable record of a single ledger event.
	// SavingsPercent is recorded on allowances so the percentage in effect
	// at deposit time survives later setting changes.
	Transaction struct {
		ID             int64
		UserID         string
		Amount         Money
		Type           TransactionType
		SavingsPercent int
		Reason         UnlockReason
		Notes          string
		CreatedAt      time.Time
	}

	// Setting is the per-user savings configuration. Absence of a row means
	// DefaultSavingsPercent applies.
	Setting struct {
		UserID         string
		SavingsPercent int
		UpdatedAt      time.Time
	}

	// Balance is the per-user locked-savings running total. It must always
	// equal the sum over that user's transactions when recomputed from scratch.
	Balance struct {
		UserID      string
		LockedCents int64
		UpdatedAt   time.Time
	}
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidPercent      = errors.New("savings percent must be between 5 and 50")
	ErrInvalidReason       = errors.New("invalid unlock reason")
	ErrMissingNotes        = errors.New("notes are required when reason is other")
	ErrInsufficientSavings = errors.New("amount exceeds locked savings")
	ErrEmptyUser           = errors.New("empty user id")
)

func (t TransactionType) Valid() bool {
	return t == Allowance || t == Unlock
}

func (r UnlockReason) Valid() bool {
	switch r {
	case ReasonEmergency, ReasonEducation, ReasonInvestment, ReasonTravel,
		ReasonFamily, ReasonHealth, ReasonGoal, ReasonOther:
		return true
	}
	return false
}

// UnlockReasons lists the fixed enumeration in display order.
func UnlockReasons() []UnlockReason {
	return []UnlockReason{
		ReasonEmergency, ReasonEducation, ReasonInvestment, ReasonTravel,
		ReasonFamily, ReasonHealth, ReasonGoal, ReasonOther,
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidatePercent checks the [5,50] bound shared by settings and allowances.
func ValidatePercent(p int) error {
	if p < MinSavingsPercent || p > MaxSavingsPercent {
		return ErrInvalidPercent
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUser
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	switch t.Type {
	case Allowance:
		if err := ValidatePercent(t.SavingsPercent); err != nil {
			return err
		}
	case Unlock:
		if !t.Reason.Valid() {
			return ErrInvalidReason
		}
		if t.Reason == ReasonOther && strings.TrimSpace(t.Notes) == "" {
			return ErrMissingNotes
		}
	default:
		return errors.New("invalid transaction type")
	}
	return nil
}

// IsValidationError reports whether err belongs to the local validation
// taxonomy, as opposed to a persistence failure from the store.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidPercent, ErrInvalidReason,
		ErrMissingNotes, ErrInsufficientSavings, ErrEmptyUser,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
