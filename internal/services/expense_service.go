package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	applog "budget/internal/log"
)

// Messages returned to API callers.
const (
	MsgAmountNotNumber = "Amount must be a number"
	MsgInvalidInput    = "Invalid input"
	MsgMonthRequired   = "Month parameter is required"
	MsgInvalidMonth    = "Invalid month format (use YYYY-MM)"
)

// RecordStore persists standalone expense records.
type RecordStore interface {
	AppendRecord(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error)
	ListRecords(ctx context.Context, user string, from, to time.Time) ([]core.ExpenseRecord, error)
}

// ExpenseService creates expense records and answers month queries.
type ExpenseService struct {
	storage   RecordStore
	publisher EventPublisher
	now       func() time.Time
}

func NewExpenseService(storage RecordStore, opts ...Option) *ExpenseService {
	o := buildOptions(opts)
	return &ExpenseService{
		storage:   storage,
		publisher: o.publisher,
		now:       o.now,
	}
}

// CreateExpenseRecord stores a record dated today. The note is kept as given.
// The ledger budget rule does not apply here.
func (s *ExpenseService) CreateExpenseRecord(ctx context.Context, user, amount, category, note string) (core.ExpenseRecord, error) {
	value, err := core.ParseAmount(amount)
	if err != nil {
		return core.ExpenseRecord{}, &core.InvalidInputError{Message: MsgAmountNotNumber, Err: err}
	}
	value = core.RoundCents(value)

	category = strings.TrimSpace(category)
	if !value.IsPositive() || category == "" {
		return core.ExpenseRecord{}, &core.InvalidInputError{Message: MsgInvalidInput}
	}

	rec, err := s.storage.AppendRecord(ctx, core.ExpenseRecord{
		User:     user,
		Amount:   value,
		Category: category,
		Note:     note,
		Date:     core.DateOf(s.now()),
	})
	if err != nil {
		return core.ExpenseRecord{}, &core.StorageError{Op: applog.OpCreateRecord, User: user, Err: err}
	}

	slog.InfoContext(ctx, "Expense record created",
		applog.FieldUser, user,
		applog.FieldRecordID, rec.ID,
		applog.FieldCategory, rec.Category,
		applog.FieldAmount, rec.Amount.StringFixed(2))

	publishEvent(ctx, s.publisher, amqp.ExpenseRecordCreated, user, core.LedgerDocument{}, func(e *amqp.LedgerEvent) {
		e.Expense = expensePayload(rec)
	})
	return rec, nil
}

// ListExpenseRecords returns the user's records dated within month
// ("YYYY-MM"), in insertion order.
func (s *ExpenseService) ListExpenseRecords(ctx context.Context, user, month string) ([]core.ExpenseRecord, error) {
	if strings.TrimSpace(month) == "" {
		return nil, &core.InvalidInputError{Message: MsgMonthRequired, Err: core.ErrMissingMonth}
	}
	start, end, err := core.MonthRange(month)
	if err != nil {
		return nil, &core.InvalidInputError{Message: MsgInvalidMonth, Err: err}
	}

	records, err := s.storage.ListRecords(ctx, user, start, end)
	if err != nil {
		return nil, &core.StorageError{Op: applog.OpListRecords, User: user, Err: err}
	}

	slog.DebugContext(ctx, "Listed expense records",
		applog.FieldUser, user,
		applog.FieldMonth, month,
		"count", len(records))

	return records, nil
}
