package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/amqp"
	"budget/internal/cache"
	applog "budget/internal/log"
	"budget/internal/sheets"
)

// seenTTL bounds how long a delivered event id is remembered for
// redelivery detection.
const seenTTL = time.Hour

// SyncWorker exports expense events to a spreadsheet.
type SyncWorker struct {
	sheets sheets.ExpenseRowWriter
	seen   *cache.LRUCache[string]
}

func NewSyncWorker(writer sheets.ExpenseRowWriter, seenSize int) *SyncWorker {
	return &SyncWorker{
		sheets: writer,
		seen:   cache.NewLRUCache[string](seenSize, seenTTL),
	}
}

// HandleEvent appends the expense carried by the event. Income events and
// already exported events are acknowledged without work.
func (w *SyncWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	if !event.IsExpense() {
		slog.DebugContext(ctx, "Skipping non-expense event",
			applog.FieldEventID, event.ID,
			applog.FieldEventKind, event.Kind)
		return nil
	}

	if ref, ok := w.seen.Get(event.ID); ok {
		slog.InfoContext(ctx, "Event already exported",
			applog.FieldEventID, event.ID,
			applog.FieldSheetsRef, ref)
		return nil
	}

	row, err := rowFromEvent(event)
	if err != nil {
		// a row that can never be written must not be requeued forever
		slog.ErrorContext(ctx, "Dropping malformed expense event",
			applog.FieldEventID, event.ID,
			applog.FieldError, err)
		return nil
	}

	ref, err := w.sheets.AppendExpense(ctx, row)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	w.seen.Set(event.ID, ref)

	slog.InfoContext(ctx, "Successfully exported expense",
		applog.FieldEventID, event.ID,
		applog.FieldUser, row.User,
		applog.FieldRecordID, row.RecordID,
		applog.FieldAmount, row.Amount.StringFixed(2),
		applog.FieldSheetsRef, ref)

	return nil
}

// CleanExpired implements cache.Cleaner for the redelivery memory.
func (w *SyncWorker) CleanExpired() int {
	return w.seen.CleanExpired()
}

func rowFromEvent(event *amqp.LedgerEvent) (sheets.ExpenseRow, error) {
	e := event.Expense
	date, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return sheets.ExpenseRow{}, fmt.Errorf("parse expense date %q: %w", e.Date, err)
	}
	row := sheets.ExpenseRow{
		RecordID: e.RecordID,
		Date:     date,
		User:     event.User,
		Category: e.Category,
		Amount:   e.Amount,
		Note:     e.Note,
	}
	if err := row.Validate(); err != nil {
		return sheets.ExpenseRow{}, err
	}
	return row, nil
}
