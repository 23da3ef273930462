package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// BudgetExceededMessage is shown verbatim to the user.
const BudgetExceededMessage = "Error: Expense exceeds your available budget!"

var (
	ErrMissingAmount  = errors.New("amount is required")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrEmptySource    = errors.New("empty source")
	ErrEmptyCategory  = errors.New("empty category")
)

// ValidationError reports a missing or unparseable required field.
// No mutation happened when it is returned.
type ValidationError struct {
	Field string
	Value string // raw input, kept so the caller can re-fill the form
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BudgetExceededError rejects an expense that would make cumulative expense
// exceed cumulative income.
type BudgetExceededError struct {
	Category     string
	Amount       string // raw input
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
}

func (e *BudgetExceededError) Error() string { return BudgetExceededMessage }

// Available returns the amount that could still be spent.
func (e *BudgetExceededError) Available() decimal.Decimal {
	return e.TotalIncome.Sub(e.TotalExpense)
}

// NotFoundError is a soft failure: the edit/delete target does not exist and
// nothing was written.
type NotFoundError struct {
	Kind string
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// StorageError wraps a persistence failure of a single operation.
type StorageError struct {
	Op   string
	User string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s for %q: %v", e.Op, e.User, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// InvalidInputError is returned by the expense query API. Message is meant for
// the response body.
type InvalidInputError struct {
	Message string
	Err     error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a soft not-found.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
