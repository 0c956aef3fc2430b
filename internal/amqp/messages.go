package amqp

import (
	"encoding/json"
	"time"

	"expensetracker/internal/core"
)

// EventType doubles as the routing key on the topic exchange.
type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseUpdated EventType = "expense.updated"
	EventExpenseDeleted EventType = "expense.deleted"
	EventBudgetSet      EventType = "budget.set"
	EventBudgetExceeded EventType = "budget.exceeded"
)

// Event is a lightweight notification about a change in the tracker.
// Consumers that need the full record fetch it through the API.
type Event struct {
	Type        EventType `json:"type"`
	ExpenseID   int64     `json:"expense_id,omitempty"`
	Category    string    `json:"category,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	LimitCents  int64     `json:"limit_cents,omitempty"`
	SpentCents  int64     `json:"spent_cents,omitempty"`
	Month       string    `json:"month,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseEvent describes a change to a single record.
func NewExpenseEvent(t EventType, e core.Expense) *Event {
	return &Event{
		Type:        t,
		ExpenseID:   e.ID,
		Category:    e.Category.String(),
		AmountCents: e.Amount.Cents,
		Timestamp:   time.Now(),
	}
}

// NewDeleteEvent describes the removal of a record.
func NewDeleteEvent(id int64) *Event {
	return &Event{Type: EventExpenseDeleted, ExpenseID: id, Timestamp: time.Now()}
}

// NewBudgetEvent describes a budget change or breach for month (YYYY-MM).
func NewBudgetEvent(t EventType, c core.Category, limit, spent core.Money, month string) *Event {
	return &Event{
		Type:       t,
		Category:   c.String(),
		LimitCents: limit.Cents,
		SpentCents: spent.Cents,
		Month:      month,
		Timestamp:  time.Now(),
	}
}

// RoutingKey returns the key the event is published under.
func (e *Event) RoutingKey() string {
	return string(e.Type)
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

