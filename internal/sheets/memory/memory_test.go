package memory

import (
	"context"
	"errors"
	"testing"

	ports "budget/internal/sheets"
)

func TestWriter_AppendExpense(t *testing.T) {
	w := New()
	ctx := context.Background()

	ref, err := w.AppendExpense(ctx, ports.ExpenseRow{User: "aryan", Category: "Food"})
	if err != nil {
		t.Fatal(err)
	}
	if ref != "mem:1" {
		t.Fatalf("unexpected ref %q", ref)
	}

	if _, err := w.AppendExpense(ctx, ports.ExpenseRow{User: "aryan"}); !errors.Is(err, ports.ErrInvalidRow) {
		t.Fatalf("expected invalid row, got %v", err)
	}

	rows := w.Rows()
	if len(rows) != 1 || rows[0].Category != "Food" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	rows[0].Category = "changed"
	if w.Rows()[0].Category != "Food" {
		t.Fatal("Rows returned internal slice")
	}
}
