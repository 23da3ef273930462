package memory

import (
	"context"
	"fmt"
	"sync"

	ports "budget/internal/sheets"
)

// Writer keeps exported rows in memory.
type Writer struct {
	mu   sync.Mutex
	rows []ports.ExpenseRow
}

var _ ports.ExpenseRowWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

// AppendExpense stores the row and returns a synthetic row reference.
func (w *Writer) AppendExpense(_ context.Context, row ports.ExpenseRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, row)
	return fmt.Sprintf("mem:%d", len(w.rows)), nil
}

// Rows returns a copy of the appended rows.
func (w *Writer) Rows() []ports.ExpenseRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ports.ExpenseRow(nil), w.rows...)
}
