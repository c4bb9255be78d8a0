package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{63, 30 * time.Second}, // shift overflow also capped
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"message channel closed", errors.New("message channel closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"channel not open", errors.New("Exception (504) Reason: \"channel/connection is not open\""), true},
		{"handler error", errors.New("append row: quota exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestLedgerEventMessageRoundTrip(t *testing.T) {
	msg := NewLedgerEventMessage(42, "u1")
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := LedgerEventMessageFromJSON(body)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != 42 || got.UserID != "u1" {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestSettingChangedMessageRoundTrip(t *testing.T) {
	msg := NewSettingChangedMessage("u1", 35)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := SettingChangedMessageFromJSON(body)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "u1" || got.SavingsPercent != 35 {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := LedgerEventMessageFromJSON([]byte("{nope")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if _, err := SettingChangedMessageFromJSON([]byte("")); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
