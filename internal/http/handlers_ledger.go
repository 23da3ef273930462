package http

import (
	"net/http"
	"strconv"

	"budget/internal/core"
	applog "budget/internal/log"
)

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ledger.Load(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeLedgerError(w, r, applog.OpLoad, doc, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	in, ok := parseIncome(w, r)
	if !ok {
		return
	}
	doc, err := s.ledger.AddIncome(r.Context(), userFrom(r.Context()), in)
	if err != nil {
		writeLedgerError(w, r, applog.OpAddIncome, doc, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleEditIncome(w http.ResponseWriter, r *http.Request) {
	id, ok := incomeID(w, r)
	if !ok {
		return
	}
	in, ok := parseIncome(w, r)
	if !ok {
		return
	}
	doc, err := s.ledger.EditIncome(r.Context(), userFrom(r.Context()), id, in)
	if err != nil {
		writeLedgerError(w, r, applog.OpEditIncome, doc, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, ok := incomeID(w, r)
	if !ok {
		return
	}
	doc, err := s.ledger.DeleteIncome(r.Context(), userFrom(r.Context()), id)
	if err != nil {
		writeLedgerError(w, r, applog.OpDeleteIncome, doc, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	doc, err := s.ledger.AddExpense(r.Context(), userFrom(r.Context()), p.Get("category"), p.Get("amount"))
	if err != nil {
		writeLedgerError(w, r, applog.OpAddExpense, doc, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func parseIncome(w http.ResponseWriter, r *http.Request) (core.IncomeInput, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return core.IncomeInput{}, false
	}
	return core.IncomeInput{
		Source:      p.Get("source"),
		Amount:      p.Get("amount"),
		Contributor: p.Optional("contributor"),
		Planned:     p.Bool("planned"),
		Date:        p.Optional("date"),
	}, true
}

func incomeID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid income id")
		return 0, false
	}
	return id, true
}
