package http

import (
	"net/http"

	"expensetracker/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets := s.service.Budgets(r.Context())
	out := make([]budgetDTO, len(budgets))
	for i, b := range budgets {
		out[i] = budgetDTO{Category: b.Category.String(), Limit: amountJSON(b.Limit)}
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleSetBudget sets the monthly limit of the {category} in the path.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	c, err := core.ParseCategory(r.PathValue("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := core.ParseAmount(p.Get("limit"))
	if err != nil {
		writeError(w, r, &core.ValidationError{Field: "limit", Err: core.ErrInvalidLimit})
		return
	}

	if err := s.service.SetBudget(r.Context(), c, limit); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, budgetDTO{Category: c.String(), Limit: amountJSON(limit)})
}
