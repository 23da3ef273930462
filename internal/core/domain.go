package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// LedgerDocument is the full persisted state of one user's income and
	// expense history. The totals are derived from the entry lists by Recompute.
	LedgerDocument struct {
		Income       []IncomeEntry
		Expenses     []ExpenseEntry
		TotalIncome  decimal.Decimal
		TotalExpense decimal.Decimal
		Balance      decimal.Decimal
	}

	IncomeEntry struct {
		ID          int
		Source      string
		Amount      decimal.Decimal
		Contributor *string
		Planned     bool
		Date        *string // as entered, not normalized
	}

	ExpenseEntry struct {
		Category string
		Amount   decimal.Decimal
	}

	// ExpenseRecord is the row-oriented form of an expense used by month queries.
	ExpenseRecord struct {
		ID       int64
		User     string
		Amount   decimal.Decimal // 2 decimal places
		Category string
		Note     string
		Date     time.Time // UTC midnight
	}
)

// NewLedgerDocument returns the initial state of a user without stored data.
func NewLedgerDocument() LedgerDocument {
	return LedgerDocument{
		Income:       []IncomeEntry{},
		Expenses:     []ExpenseEntry{},
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		Balance:      decimal.Zero,
	}
}

// Clone returns a deep copy so callers can mutate entry lists without
// touching a document held elsewhere (caches, stores).
func (d LedgerDocument) Clone() LedgerDocument {
	out := d
	out.Income = make([]IncomeEntry, len(d.Income))
	for i, e := range d.Income {
		e.Contributor = cloneString(e.Contributor)
		e.Date = cloneString(e.Date)
		out.Income[i] = e
	}
	out.Expenses = append(make([]ExpenseEntry, 0, len(d.Expenses)), d.Expenses...)
	return out
}

// NextIncomeID returns the id a newly added income entry receives.
// Ids are count+1, so they repeat after deletions; lookups take the first match.
func (d LedgerDocument) NextIncomeID() int {
	return len(d.Income) + 1
}

// IncomeIndex returns the position of the first income entry with the given
// id, or -1.
func (d LedgerDocument) IncomeIndex(id int) int {
	for i, e := range d.Income {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// DateOf truncates t to a calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// optionalString maps blank input to nil.
func optionalString(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
