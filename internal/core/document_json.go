package core

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// The persisted layout keeps the legacy field names and writes amounts as
// JSON numbers.

type documentJSON struct {
	Income       []incomeJSON  `json:"income"`
	Expenses     []expenseJSON `json:"expenses"`
	TotalIncome  json.Number   `json:"total_income"`
	TotalExpense json.Number   `json:"total_expense"`
	Balance      json.Number   `json:"balance"`
}

type incomeJSON struct {
	ID          int         `json:"id"`
	Source      string      `json:"source"`
	Amount      json.Number `json:"amount"`
	Contributor *string     `json:"contributor"`
	Planned     bool        `json:"planned"`
	Date        *string     `json:"date"`
}

type expenseJSON struct {
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

func (d LedgerDocument) MarshalJSON() ([]byte, error) {
	out := documentJSON{
		Income:       make([]incomeJSON, 0, len(d.Income)),
		Expenses:     make([]expenseJSON, 0, len(d.Expenses)),
		TotalIncome:  number(d.TotalIncome),
		TotalExpense: number(d.TotalExpense),
		Balance:      number(d.Balance),
	}
	for _, e := range d.Income {
		out.Income = append(out.Income, incomeJSON{
			ID:          e.ID,
			Source:      e.Source,
			Amount:      number(e.Amount),
			Contributor: e.Contributor,
			Planned:     e.Planned,
			Date:        e.Date,
		})
	}
	for _, e := range d.Expenses {
		out.Expenses = append(out.Expenses, expenseJSON{Category: e.Category, Amount: number(e.Amount)})
	}
	return json.Marshal(out)
}

func (d *LedgerDocument) UnmarshalJSON(data []byte) error {
	var in documentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	doc := NewLedgerDocument()
	var err error
	if doc.TotalIncome, err = parseNumber(in.TotalIncome); err != nil {
		return fmt.Errorf("total_income: %w", err)
	}
	if doc.TotalExpense, err = parseNumber(in.TotalExpense); err != nil {
		return fmt.Errorf("total_expense: %w", err)
	}
	if doc.Balance, err = parseNumber(in.Balance); err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	for i, e := range in.Income {
		amount, err := parseNumber(e.Amount)
		if err != nil {
			return fmt.Errorf("income[%d].amount: %w", i, err)
		}
		doc.Income = append(doc.Income, IncomeEntry{
			ID:          e.ID,
			Source:      e.Source,
			Amount:      amount,
			Contributor: e.Contributor,
			Planned:     e.Planned,
			Date:        e.Date,
		})
	}
	for i, e := range in.Expenses {
		amount, err := parseNumber(e.Amount)
		if err != nil {
			return fmt.Errorf("expenses[%d].amount: %w", i, err)
		}
		doc.Expenses = append(doc.Expenses, ExpenseEntry{Category: e.Category, Amount: amount})
	}
	*d = doc
	return nil
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func parseNumber(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}

// recordJSON is the wire shape of an expense record returned by month queries.
type recordJSON struct {
	ID       int64       `json:"id"`
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
	Note     string      `json:"note"`
	Date     string      `json:"date"`
}

func (r ExpenseRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:       r.ID,
		Amount:   json.Number(r.Amount.StringFixed(2)),
		Category: r.Category,
		Note:     r.Note,
		Date:     r.Date.Format(DateLayout),
	})
}

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"
