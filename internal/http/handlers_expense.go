package http

import (
	"net/http"

	"budget/internal/core"
	applog "budget/internal/log"
)

func (s *Server) handleCreateExpenseRecord(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// an absent amount counts as zero, which is rejected as invalid input
	amount := "0"
	if p.Has("amount") {
		amount = p.Get("amount")
	}
	_, err := s.expenses.CreateExpenseRecord(r.Context(), userFrom(r.Context()),
		amount, p.Get("category"), p.Raw("note"))
	if err != nil {
		writeQueryError(w, r, applog.OpCreateRecord, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Expense created"})
}

func (s *Server) handleListExpenseRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.expenses.ListExpenseRecords(r.Context(), userFrom(r.Context()), r.URL.Query().Get("month"))
	if err != nil {
		writeQueryError(w, r, applog.OpListRecords, err)
		return
	}
	if records == nil {
		records = []core.ExpenseRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
