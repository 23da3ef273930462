package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRepository is the authoritative store. Ledger documents are kept as
// JSON in the ledgers table; expense records are rows in expense_records.
type SQLiteRepository struct {
	db *sql.DB
}

// DSN builds the connection string used for both the pool and migrations.
func DSN(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load returns the user's ledger document, or an empty one if none is stored.
func (r *SQLiteRepository) Load(ctx context.Context, user string) (core.LedgerDocument, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT document FROM ledgers WHERE username = ?`, user).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewLedgerDocument(), nil
	}
	if err != nil {
		return core.LedgerDocument{}, fmt.Errorf("select ledger: %w", err)
	}

	var doc core.LedgerDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return core.LedgerDocument{}, fmt.Errorf("decode ledger: %w", err)
	}
	return doc, nil
}

// Save replaces the user's ledger document in a single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, user string, doc core.LedgerDocument) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return upsertLedger(ctx, tx, user, doc)
	})
}

// SaveWithRecord replaces the ledger document and inserts the matching
// expense record atomically.
func (r *SQLiteRepository) SaveWithRecord(ctx context.Context, user string, doc core.LedgerDocument, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := upsertLedger(ctx, tx, user, doc); err != nil {
			return err
		}
		id, err := insertRecord(ctx, tx, rec)
		if err != nil {
			return err
		}
		rec.ID = id
		return nil
	})
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	return rec, nil
}

// AppendRecord inserts a standalone expense record.
func (r *SQLiteRepository) AppendRecord(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	id, err := insertRecord(ctx, r.db, rec)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	rec.ID = id

	slog.InfoContext(ctx, "Expense record saved to SQLite",
		"id", rec.ID,
		applog.FieldUser, rec.User,
		applog.FieldCategory, rec.Category,
		applog.FieldAmount, rec.Amount.StringFixed(2),
		"date", rec.Date.Format(core.DateLayout))

	return rec, nil
}

// ListRecords returns the user's records dated in [from, to), oldest insert first.
func (r *SQLiteRepository) ListRecords(ctx context.Context, user string, from, to time.Time) ([]core.ExpenseRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, amount, category, note, date
		   FROM expense_records
		  WHERE username = ? AND date >= ? AND date < ?
		  ORDER BY id`,
		user, from.Format(core.DateLayout), to.Format(core.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("select expense records: %w", err)
	}
	defer rows.Close()

	records := []core.ExpenseRecord{}
	for rows.Next() {
		var (
			rec    core.ExpenseRecord
			amount string
			date   string
		)
		if err := rows.Scan(&rec.ID, &rec.User, &amount, &rec.Category, &rec.Note, &date); err != nil {
			return nil, fmt.Errorf("scan expense record: %w", err)
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("decode amount of record %d: %w", rec.ID, err)
		}
		if rec.Date, err = time.Parse(core.DateLayout, date); err != nil {
			return nil, fmt.Errorf("decode date of record %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense records: %w", err)
	}
	return records, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertLedger(ctx context.Context, tx execer, user string, doc core.LedgerDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledgers (username, document, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(username) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		user, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert ledger: %w", err)
	}
	return nil
}

func insertRecord(ctx context.Context, tx execer, rec core.ExpenseRecord) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO expense_records (username, amount, category, note, date) VALUES (?, ?, ?, ?, ?)`,
		rec.User, rec.Amount.StringFixed(2), rec.Category, rec.Note, rec.Date.Format(core.DateLayout))
	if err != nil {
		return 0, fmt.Errorf("insert expense record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense record id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
