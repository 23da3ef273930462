package sheets

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidRow is returned for rows missing a user or category.
var ErrInvalidRow = errors.New("invalid expense row")

// ExpenseRow is one exported expense line.
type ExpenseRow struct {
	RecordID int64
	Date     time.Time
	User     string
	Category string
	Amount   decimal.Decimal
	Note     string
}

func (r ExpenseRow) Validate() error {
	if r.User == "" || r.Category == "" {
		return ErrInvalidRow
	}
	return nil
}

// Ports for outbound adapters.
type (
	ExpenseRowWriter interface {
		AppendExpense(ctx context.Context, row ExpenseRow) (rowRef string, err error)
	}
)
