// Package memory is a process-local ledger store used for development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"budget/internal/core"
)

// Store keeps each ledger document in its encoded form, so a save is a
// single map assignment and no caller can share memory with a stored document.
type Store struct {
	mu      sync.RWMutex
	ledgers map[string][]byte
	records []core.ExpenseRecord
	nextID  int64
}

func New() *Store {
	return &Store{ledgers: make(map[string][]byte)}
}

func (s *Store) Load(_ context.Context, user string) (core.LedgerDocument, error) {
	s.mu.RLock()
	raw, ok := s.ledgers[user]
	s.mu.RUnlock()
	if !ok {
		return core.NewLedgerDocument(), nil
	}

	var doc core.LedgerDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return core.LedgerDocument{}, fmt.Errorf("decode ledger: %w", err)
	}
	return doc, nil
}

func (s *Store) Save(_ context.Context, user string, doc core.LedgerDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	s.mu.Lock()
	s.ledgers[user] = raw
	s.mu.Unlock()
	return nil
}

func (s *Store) SaveWithRecord(_ context.Context, user string, doc core.LedgerDocument, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("encode ledger: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[user] = raw
	return s.appendLocked(rec), nil
}

func (s *Store) AppendRecord(_ context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(rec), nil
}

func (s *Store) appendLocked(rec core.ExpenseRecord) core.ExpenseRecord {
	s.nextID++
	rec.ID = s.nextID
	rec.Amount = core.RoundCents(rec.Amount)
	rec.Date = core.DateOf(rec.Date)
	s.records = append(s.records, rec)
	return rec
}

func (s *Store) ListRecords(_ context.Context, user string, from, to time.Time) ([]core.ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.ExpenseRecord{}
	for _, r := range s.records {
		if r.User == user && core.InRange(r.Date, from, to) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
