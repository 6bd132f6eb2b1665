package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"networth/internal/core"
)

// Operation names the ledger mutation a message reports.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// LedgerChangeMessage is published after a committed entry mutation.
// Consumers read current state from storage; the message only says what changed.
type LedgerChangeMessage struct {
	EntryID   int64      `json:"entry_id"`
	Operation Operation  `json:"operation"`
	Class     core.Class `json:"class"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewLedgerChangeMessage creates a message stamped with the current time.
func NewLedgerChangeMessage(entryID int64, op Operation, class core.Class) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		EntryID:   entryID,
		Operation: op,
		Class:     class,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON decodes and checks a message body.
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Operation {
	case OpCreate, OpUpdate, OpDelete:
	default:
		return nil, fmt.Errorf("unknown operation %q", msg.Operation)
	}
	return &msg, nil
}
