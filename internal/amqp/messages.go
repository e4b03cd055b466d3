package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// RecalcRequestMessage asks the worker to recalculate one budget, either
// fully or from a given month onwards.
type RecalcRequestMessage struct {
	ID        string          `json:"id"`
	BudgetID  string          `json:"budget_id"`
	From      *core.YearMonth `json:"from,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewRecalcRequestMessage creates a request with a fresh id. A nil from
// means a full recalculation.
func NewRecalcRequestMessage(budgetID string, from *core.YearMonth) *RecalcRequestMessage {
	return &RecalcRequestMessage{
		ID:        uuid.NewString(),
		BudgetID:  budgetID,
		From:      from,
		Timestamp: time.Now(),
	}
}

// Validate checks the fields a worker relies on.
func (m *RecalcRequestMessage) Validate() error {
	if m.BudgetID == "" {
		return core.ErrEmptyBudgetID
	}
	if m.From != nil {
		if err := m.From.Validate(); err != nil {
			return fmt.Errorf("from: %w", err)
		}
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *RecalcRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecalcRequestMessageFromJSON decodes and validates a message.
func RecalcRequestMessageFromJSON(data []byte) (*RecalcRequestMessage, error) {
	var msg RecalcRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.Join(ErrDiscard, err)
	}
	return &msg, nil
}
