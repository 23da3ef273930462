package core

import "github.com/shopspring/decimal"

// Recompute derives total_income, total_expense and balance from the entry
// lists. It never touches the lists themselves.
func Recompute(d LedgerDocument) LedgerDocument {
	income := decimal.Zero
	for _, e := range d.Income {
		income = income.Add(e.Amount)
	}
	expense := decimal.Zero
	for _, e := range d.Expenses {
		expense = expense.Add(e.Amount)
	}
	d.TotalIncome = income
	d.TotalExpense = expense
	d.Balance = income.Sub(expense)
	return d
}

// Consistent reports whether the stored totals match the entry lists.
func Consistent(d LedgerDocument) bool {
	r := Recompute(d)
	return r.TotalIncome.Equal(d.TotalIncome) &&
		r.TotalExpense.Equal(d.TotalExpense) &&
		r.Balance.Equal(d.Balance)
}

// WouldExceedBudget applies the budget rule to a candidate expense.
func WouldExceedBudget(d LedgerDocument, amount decimal.Decimal) bool {
	return d.TotalExpense.Add(amount).GreaterThan(d.TotalIncome)
}
