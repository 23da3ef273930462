package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind names a ledger mutation.
type EventKind string

const (
	IncomeAdded          EventKind = "income_added"
	IncomeEdited         EventKind = "income_edited"
	IncomeDeleted        EventKind = "income_deleted"
	ExpenseAdded         EventKind = "expense_added"
	ExpenseRecordCreated EventKind = "expense_record_created"
)

// LedgerEvent is published after a mutation has been committed.
type LedgerEvent struct {
	ID           string          `json:"id"`
	Kind         EventKind       `json:"kind"`
	User         string          `json:"user"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
	IncomeID     int             `json:"income_id,omitempty"`
	Expense      *ExpensePayload `json:"expense,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// ExpensePayload carries the expense row so consumers need no database access.
type ExpensePayload struct {
	RecordID int64           `json:"record_id"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note"`
	Date     string          `json:"date"`
}

// NewLedgerEvent stamps a fresh id and timestamp.
func NewLedgerEvent(kind EventKind, user string) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		User:      user,
		Timestamp: time.Now().UTC(),
	}
}

// IsExpense reports whether the event carries an expense row.
func (e *LedgerEvent) IsExpense() bool {
	return (e.Kind == ExpenseAdded || e.Kind == ExpenseRecordCreated) && e.Expense != nil
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
