package core

import (
	"strings"
)

// IncomeInput carries the editable income fields as submitted by the user.
type IncomeInput struct {
	Source      string
	Amount      string
	Contributor *string
	Planned     bool
	Date        *string
}

// Entry validates the input and builds the income entry with the given id.
func (in IncomeInput) Entry(id int) (IncomeEntry, error) {
	source := strings.TrimSpace(in.Source)
	if source == "" {
		return IncomeEntry{}, &ValidationError{Field: "source", Value: in.Source, Err: ErrEmptySource}
	}
	amount, err := ParseNonNegativeAmount(in.Amount)
	if err != nil {
		return IncomeEntry{}, &ValidationError{Field: "amount", Value: in.Amount, Err: err}
	}
	return IncomeEntry{
		ID:          id,
		Source:      source,
		Amount:      amount,
		Contributor: optionalString(in.Contributor),
		Planned:     in.Planned,
		Date:        optionalString(in.Date),
	}, nil
}

// ExpenseInput is a ledger expense as submitted by the user.
type ExpenseInput struct {
	Category string
	Amount   string
}

// Entry validates the input and builds the ledger expense entry.
func (in ExpenseInput) Entry() (ExpenseEntry, error) {
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return ExpenseEntry{}, &ValidationError{Field: "category", Value: in.Category, Err: ErrEmptyCategory}
	}
	amount, err := ParsePositiveAmount(in.Amount)
	if err != nil {
		return ExpenseEntry{}, &ValidationError{Field: "amount", Value: in.Amount, Err: err}
	}
	return ExpenseEntry{Category: category, Amount: amount}, nil
}
