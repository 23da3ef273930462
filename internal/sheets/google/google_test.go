package google

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ports "budget/internal/sheets"

	"github.com/shopspring/decimal"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	got, err := loadCredentials(Config{CredentialsJSON: ` {"type":"service_account"} `})
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("inline json: %q %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"file":true}`), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = loadCredentials(Config{CredentialsFile: path})
	if err != nil || string(got) != `{"file":true}` {
		t.Fatalf("file: %q %v", got, err)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
	if _, err := loadCredentials(Config{}); err != nil {
		t.Fatalf("application default path: %v", err)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := loadCredentials(Config{}); err == nil || !strings.Contains(err.Error(), "missing service account") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}

	if _, err := loadCredentials(Config{CredentialsFile: filepath.Join(t.TempDir(), "nope.json")}); err == nil {
		t.Fatal("expected read error")
	}
}

func TestRowValues(t *testing.T) {
	row := ports.ExpenseRow{
		RecordID: 9,
		Date:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		User:     "aryan",
		Category: "Food",
		Amount:   decimal.RequireFromString("12.5"),
		Note:     "lunch",
	}
	got := rowValues(row)
	want := []any{"2024-02-01", "aryan", "Food", "12.50", "lunch", int64(9)}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAppendExpense_Validation(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Expenses"}

	_, err := c.AppendExpense(context.Background(), ports.ExpenseRow{User: "aryan"})
	if !errors.Is(err, ports.ErrInvalidRow) {
		t.Fatalf("expected invalid row, got %v", err)
	}

	_, err = c.AppendExpense(context.Background(), ports.ExpenseRow{User: "aryan", Category: "Food"})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected uninitialized service error, got %v", err)
	}
}
