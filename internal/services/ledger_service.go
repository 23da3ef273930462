package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/core"
	applog "budget/internal/log"
)

// LedgerStore persists one ledger document per user.
type LedgerStore interface {
	Load(ctx context.Context, user string) (core.LedgerDocument, error)
	Save(ctx context.Context, user string, doc core.LedgerDocument) error
	SaveWithRecord(ctx context.Context, user string, doc core.LedgerDocument, rec core.ExpenseRecord) (core.ExpenseRecord, error)
}

// EventPublisher receives ledger events after a mutation is committed.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
}

// LedgerService implements income and ledger-expense mutations. Every
// mutation runs load, validate, mutate, recompute and save while holding the
// user's lock.
type LedgerService struct {
	store     LedgerStore
	cache     *cache.LedgerCache
	publisher EventPublisher
	now       func() time.Time
	locks     *userLocks
}

// Option configures a service.
type Option func(*options)

type options struct {
	cache     *cache.LedgerCache
	publisher EventPublisher
	now       func() time.Time
}

// WithCache serves Load through c.
func WithCache(c *cache.LedgerCache) Option {
	return func(o *options) { o.cache = c }
}

// WithPublisher publishes an event after each committed mutation.
func WithPublisher(p EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithClock overrides time.Now for record dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewLedgerService(store LedgerStore, opts ...Option) *LedgerService {
	o := buildOptions(opts)
	return &LedgerService{
		store:     store,
		cache:     o.cache,
		publisher: o.publisher,
		now:       o.now,
		locks:     newUserLocks(),
	}
}

// Load returns the user's document. Unknown users get an empty document.
func (s *LedgerService) Load(ctx context.Context, user string) (core.LedgerDocument, error) {
	var (
		doc core.LedgerDocument
		err error
	)
	if s.cache != nil {
		doc, err = s.cache.Load(ctx, user, s.store.Load)
	} else {
		doc, err = s.store.Load(ctx, user)
	}
	if err != nil {
		return core.LedgerDocument{}, &core.StorageError{Op: applog.OpLoad, User: user, Err: err}
	}
	return doc, nil
}

// AddIncome appends a new income entry with id len(income)+1.
func (s *LedgerService) AddIncome(ctx context.Context, user string, in core.IncomeInput) (core.LedgerDocument, error) {
	unlock := s.locks.lock(user)
	defer unlock()

	doc, err := s.loadForUpdate(ctx, user)
	if err != nil {
		return core.LedgerDocument{}, err
	}

	entry, err := in.Entry(doc.NextIncomeID())
	if err != nil {
		s.logRejected(ctx, applog.OpAddIncome, user, err)
		return doc, err
	}

	doc.Income = append(doc.Income, entry)
	doc = core.Recompute(doc)
	if err := s.save(ctx, applog.OpAddIncome, user, doc); err != nil {
		return core.LedgerDocument{}, err
	}

	slog.InfoContext(ctx, "Income added",
		applog.FieldUser, user,
		applog.FieldIncomeID, entry.ID,
		applog.FieldSource, entry.Source,
		applog.FieldAmount, entry.Amount.String())

	s.publish(ctx, amqp.IncomeAdded, user, doc, func(e *amqp.LedgerEvent) { e.IncomeID = entry.ID })
	return doc, nil
}

// EditIncome overwrites the editable fields of the first entry with the given
// id. When none matches it returns the unchanged document and a NotFoundError,
// whatever the submitted fields.
func (s *LedgerService) EditIncome(ctx context.Context, user string, id int, in core.IncomeInput) (core.LedgerDocument, error) {
	unlock := s.locks.lock(user)
	defer unlock()

	doc, err := s.loadForUpdate(ctx, user)
	if err != nil {
		return core.LedgerDocument{}, err
	}

	idx := doc.IncomeIndex(id)
	if idx < 0 {
		return doc, &core.NotFoundError{Kind: "income", ID: id}
	}

	entry, err := in.Entry(id)
	if err != nil {
		s.logRejected(ctx, applog.OpEditIncome, user, err)
		return doc, err
	}

	doc.Income[idx] = entry
	doc = core.Recompute(doc)
	if err := s.save(ctx, applog.OpEditIncome, user, doc); err != nil {
		return core.LedgerDocument{}, err
	}

	slog.InfoContext(ctx, "Income edited",
		applog.FieldUser, user,
		applog.FieldIncomeID, id,
		applog.FieldAmount, entry.Amount.String())

	s.publish(ctx, amqp.IncomeEdited, user, doc, func(e *amqp.LedgerEvent) { e.IncomeID = id })
	return doc, nil
}

// DeleteIncome removes the first entry with the given id.
func (s *LedgerService) DeleteIncome(ctx context.Context, user string, id int) (core.LedgerDocument, error) {
	unlock := s.locks.lock(user)
	defer unlock()

	doc, err := s.loadForUpdate(ctx, user)
	if err != nil {
		return core.LedgerDocument{}, err
	}

	idx := doc.IncomeIndex(id)
	if idx < 0 {
		return doc, &core.NotFoundError{Kind: "income", ID: id}
	}

	doc.Income = append(doc.Income[:idx], doc.Income[idx+1:]...)
	doc = core.Recompute(doc)
	if err := s.save(ctx, applog.OpDeleteIncome, user, doc); err != nil {
		return core.LedgerDocument{}, err
	}

	slog.InfoContext(ctx, "Income deleted", applog.FieldUser, user, applog.FieldIncomeID, id)

	s.publish(ctx, amqp.IncomeDeleted, user, doc, func(e *amqp.LedgerEvent) { e.IncomeID = id })
	return doc, nil
}

// AddExpense appends a ledger expense unless it would push total expense
// above total income. The matching expense record is stored in the same
// write, dated today, with the same amount as the ledger entry.
func (s *LedgerService) AddExpense(ctx context.Context, user, category, amount string) (core.LedgerDocument, error) {
	unlock := s.locks.lock(user)
	defer unlock()

	doc, err := s.loadForUpdate(ctx, user)
	if err != nil {
		return core.LedgerDocument{}, err
	}

	entry, err := core.ExpenseInput{Category: category, Amount: amount}.Entry()
	if err != nil {
		s.logRejected(ctx, applog.OpAddExpense, user, err)
		return doc, err
	}

	if core.WouldExceedBudget(doc, entry.Amount) {
		slog.WarnContext(ctx, "Expense rejected by budget rule",
			applog.FieldUser, user,
			applog.FieldCategory, entry.Category,
			applog.FieldAmount, entry.Amount.String(),
			applog.FieldTotalIn, doc.TotalIncome.String(),
			applog.FieldTotalOut, doc.TotalExpense.String())
		return doc, &core.BudgetExceededError{
			Category:     category,
			Amount:       amount,
			TotalIncome:  doc.TotalIncome,
			TotalExpense: doc.TotalExpense,
		}
	}

	doc.Expenses = append(doc.Expenses, entry)
	doc = core.Recompute(doc)

	rec, err := s.store.SaveWithRecord(ctx, user, doc, core.ExpenseRecord{
		User:     user,
		Amount:   entry.Amount,
		Category: entry.Category,
		Date:     core.DateOf(s.now()),
	})
	if err != nil {
		s.invalidate(user)
		return core.LedgerDocument{}, &core.StorageError{Op: applog.OpAddExpense, User: user, Err: err}
	}
	s.remember(user, doc)

	slog.InfoContext(ctx, "Expense added",
		applog.FieldUser, user,
		applog.FieldCategory, entry.Category,
		applog.FieldAmount, entry.Amount.String(),
		applog.FieldRecordID, rec.ID,
		applog.FieldBalance, doc.Balance.String())

	s.publish(ctx, amqp.ExpenseAdded, user, doc, func(e *amqp.LedgerEvent) { e.Expense = expensePayload(rec) })
	return doc, nil
}

func (s *LedgerService) loadForUpdate(ctx context.Context, user string) (core.LedgerDocument, error) {
	doc, err := s.store.Load(ctx, user)
	if err != nil {
		return core.LedgerDocument{}, &core.StorageError{Op: applog.OpLoad, User: user, Err: err}
	}
	return doc, nil
}

func (s *LedgerService) save(ctx context.Context, op, user string, doc core.LedgerDocument) error {
	if err := s.store.Save(ctx, user, doc); err != nil {
		s.invalidate(user)
		return &core.StorageError{Op: op, User: user, Err: err}
	}
	s.remember(user, doc)
	return nil
}

func (s *LedgerService) remember(user string, doc core.LedgerDocument) {
	if s.cache != nil {
		s.cache.Put(user, doc)
	}
}

func (s *LedgerService) invalidate(user string) {
	if s.cache != nil {
		s.cache.Invalidate(user)
	}
}

func (s *LedgerService) logRejected(ctx context.Context, op, user string, err error) {
	slog.InfoContext(ctx, "Ledger input rejected",
		applog.FieldOperation, op,
		applog.FieldUser, user,
		applog.FieldErrorType, applog.ErrorTypeValidation,
		applog.FieldError, err)
}

func (s *LedgerService) publish(ctx context.Context, kind amqp.EventKind, user string, doc core.LedgerDocument, fill func(*amqp.LedgerEvent)) {
	publishEvent(ctx, s.publisher, kind, user, doc, fill)
}

func publishEvent(ctx context.Context, p EventPublisher, kind amqp.EventKind, user string, doc core.LedgerDocument, fill func(*amqp.LedgerEvent)) {
	if p == nil {
		return
	}
	event := amqp.NewLedgerEvent(kind, user)
	event.TotalIncome = doc.TotalIncome
	event.TotalExpense = doc.TotalExpense
	event.Balance = doc.Balance
	if fill != nil {
		fill(event)
	}
	if err := p.Publish(ctx, event); err != nil {
		// the mutation is committed; the event is best effort
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			applog.FieldEventKind, kind,
			applog.FieldUser, user,
			applog.FieldError, err)
	}
}

func expensePayload(rec core.ExpenseRecord) *amqp.ExpensePayload {
	return &amqp.ExpensePayload{
		RecordID: rec.ID,
		Category: rec.Category,
		Amount:   rec.Amount,
		Note:     rec.Note,
		Date:     rec.Date.Format(core.DateLayout),
	}
}

// IsSoftFailure reports whether err left the document unchanged and should be
// shown alongside it.
func IsSoftFailure(err error) bool {
	var (
		nf *core.NotFoundError
		ve *core.ValidationError
		be *core.BudgetExceededError
	)
	return errors.As(err, &nf) || errors.As(err, &ve) || errors.As(err, &be)
}
