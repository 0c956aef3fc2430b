package http

import (
	"net/http"
	"sync/atomic"
)

// handleListExpenses returns the view under the query filter: records,
// total, breakdown and per-record budget warnings.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toViewDTO(s.service.View(r.Context(), f)))
}

// handleListAllExpenses returns every stored expense in insertion order,
// ignoring the month default and any filter.
func (s *Server) handleListAllExpenses(w http.ResponseWriter, r *http.Request) {
	all := s.service.ListExpenses(r.Context())
	out := make([]expenseDTO, len(all))
	for i, e := range all {
		out[i] = toExpenseDTO(e, false)
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.service.Expense(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toExpenseDTO(e, false))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := p.ExpenseInput()
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.service.CreateExpense(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.metrics.created, 1)

	w.Header().Set("Location", "/expenses/"+itoa(e.ID))
	writeJSON(w, r, http.StatusCreated, toExpenseDTO(e, false))
}

// handleUpdateExpense answers 404 for an unknown id before looking at the
// body, so a bad payload for a missing record still reports the missing
// record.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.service.Expense(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := p.ExpenseInput()
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.service.UpdateExpense(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toExpenseDTO(e, false))
}

// handleDeleteExpense is idempotent: unknown ids also answer 204.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.service.DeleteExpense(r.Context(), id) {
		atomic.AddInt64(&s.metrics.deleted, 1)
	}
	w.WriteHeader(http.StatusNoContent)
}
