package amqp

import (
	"encoding/json"
	"time"
)

// Record kinds carried by change events.
const (
	KindExpense = "expense"
	KindHabit   = "habit"
)

// Actions carried by change events.
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
	ActionToggled = "toggled"
)

// ChangeEvent is a lightweight notification that a record changed.
// It carries only identifiers, the worker fetches current state from
// the database before recomputing aggregates.
type ChangeEvent struct {
	Kind      string    `json:"kind"`
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeEvent creates a change event stamped with the current time.
func NewChangeEvent(kind, action, id string) *ChangeEvent {
	return &ChangeEvent{
		Kind:      kind,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON decodes an event from JSON bytes.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
