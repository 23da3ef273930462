package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEmptyDocumentLayout(t *testing.T) {
	b, err := json.Marshal(NewLedgerDocument())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"income":[],"expenses":[],"total_income":0,"total_expense":0,"balance":0}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestDocumentLayoutKeepsLegacyKeys(t *testing.T) {
	d := NewLedgerDocument()
	d.Income = append(d.Income, IncomeEntry{ID: 1, Source: "Job", Amount: dec("100.5"), Planned: true, Date: strp("2024-03-01")})
	d.Expenses = append(d.Expenses, ExpenseEntry{Category: "Food", Amount: dec("20")})
	d = Recompute(d)

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, frag := range []string{
		`"id":1`, `"source":"Job"`, `"amount":100.5`, `"contributor":null`,
		`"planned":true`, `"date":"2024-03-01"`, `"category":"Food"`,
		`"total_income":100.5`, `"total_expense":20`, `"balance":80.5`,
	} {
		if !strings.Contains(s, frag) {
			t.Errorf("missing %s in %s", frag, s)
		}
	}
}

func TestDecodeLegacyDocument(t *testing.T) {
	// Written by the previous implementation: float amounts, null optionals.
	legacy := `{"income": [{"id": 1, "source": "Job", "amount": 100.0, "contributor": null, "planned": false, "date": null},
		{"id": 2, "source": "Gift", "amount": 25.5, "contributor": "Mum", "planned": true, "date": "2024-02-10"}],
		"expenses": [{"category": "Food", "amount": 30.25}],
		"total_income": 125.5, "total_expense": 30.25, "balance": 95.25}`

	var d LedgerDocument
	if err := json.Unmarshal([]byte(legacy), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(d.Income) != 2 || len(d.Expenses) != 1 {
		t.Fatalf("unexpected lists: %+v", d)
	}
	if d.Income[1].Contributor == nil || *d.Income[1].Contributor != "Mum" {
		t.Fatalf("contributor not decoded: %+v", d.Income[1])
	}
	if d.Income[0].Date != nil {
		t.Fatalf("null date should stay nil")
	}
	if !Consistent(d) {
		t.Fatalf("legacy totals should be consistent: %+v", d)
	}
	if !d.Balance.Equal(dec("95.25")) {
		t.Fatalf("balance = %s", d.Balance)
	}
}

func TestDecodeRejectsBadAmount(t *testing.T) {
	var d LedgerDocument
	if err := json.Unmarshal([]byte(`{"income":[{"id":1,"source":"x","amount":"abc"}]}`), &d); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestExpenseRecordJSON(t *testing.T) {
	r := ExpenseRecord{ID: 4, User: "aryan", Amount: dec("12.5"), Category: "Food", Note: "lunch", Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":4,"amount":12.50,"category":"Food","note":"lunch","date":"2024-01-31"}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}
