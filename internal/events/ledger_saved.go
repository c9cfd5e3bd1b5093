// Package events defines the notifications emitted when a ledger changes.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerSavedMessage is published after every successful save. Payload
// carries the serialized ledger exactly as it was written to the Store.
type LedgerSavedMessage struct {
	ID        string          `json:"id"`
	Key       string          `json:"key"`
	Entries   int             `json:"entries"`
	Total     decimal.Decimal `json:"total"`
	Payload   string          `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewLedgerSavedMessage(key string, entries int, total decimal.Decimal, payload string) *LedgerSavedMessage {
	return &LedgerSavedMessage{
		ID:        uuid.NewString(),
		Key:       key,
		Entries:   entries,
		Total:     total,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerSavedMessageFromJSON creates a message from JSON bytes
func LedgerSavedMessageFromJSON(data []byte) (*LedgerSavedMessage, error) {
	var msg LedgerSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
