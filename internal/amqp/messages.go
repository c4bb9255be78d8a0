package amqp

import (
	"encoding/json"
	"time"
)

// LedgerEventMessage announces a newly recorded transaction. It carries only
// the id and owner; the export worker fetches the full row from storage.
type LedgerEventMessage struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SettingChangedMessage announces a savings-percent update so other
// processes can drop cached state for that user.
type SettingChangedMessage struct {
	UserID         string    `json:"user_id"`
	SavingsPercent int       `json:"savings_percent"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(id int64, userID string) *LedgerEventMessage {
	return &LedgerEventMessage{ID: id, UserID: userID, Timestamp: time.Now()}
}

func NewSettingChangedMessage(userID string, percent int) *SettingChangedMessage {
	return &SettingChangedMessage{UserID: userID, SavingsPercent: percent, Timestamp: time.Now()}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *SettingChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SettingChangedMessageFromJSON(data []byte) (*SettingChangedMessage, error) {
	var msg SettingChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
