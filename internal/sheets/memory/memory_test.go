package memory

import (
	"context"
	"testing"
	"time"

	"piggybank/internal/core"
)

func TestAppendAndRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx := core.Transaction{
		UserID:         "u1",
		Amount:         core.Money{Cents: 10000},
		Type:           core.Allowance,
		SavingsPercent: 20,
		CreatedAt:      time.Now(),
	}
	ref, err := s.Append(ctx, tx)
	if err != nil {
		t.Fatal(err)
	}
	if ref != "mem:1" {
		t.Fatalf("ref = %q", ref)
	}
	if rows := s.Rows(); len(rows) != 1 || rows[0].UserID != "u1" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.Append(context.Background(), core.Transaction{UserID: "u1", Type: core.Allowance})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(s.Rows()) != 0 {
		t.Fatal("invalid transaction must not be stored")
	}
}
