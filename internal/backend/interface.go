package backend

import (
	"context"
	"time"

	"budget/internal/core"
)

// Store is everything the services need from persistence.
type Store interface {
	Load(ctx context.Context, user string) (core.LedgerDocument, error)
	Save(ctx context.Context, user string, doc core.LedgerDocument) error
	SaveWithRecord(ctx context.Context, user string, doc core.LedgerDocument, rec core.ExpenseRecord) (core.ExpenseRecord, error)
	AppendRecord(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error)
	ListRecords(ctx context.Context, user string, from, to time.Time) ([]core.ExpenseRecord, error)
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and its cleanup function
type BackendResult struct {
	Store   Store
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	SQLiteDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
