package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"expensetracker/internal/export"
)

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	v := s.service.View(r.Context(), f)
	writeJSON(w, r, http.StatusOK, struct {
		Total    json.Number `json:"total"`
		Count    int         `json:"count"`
		Filtered bool        `json:"filtered"`
		Month    string      `json:"month"`
	}{amountJSON(v.Total), len(v.Records), v.Filtered, v.Month})
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toBreakdownDTO(s.service.Breakdown(r.Context(), f)))
}

// handleExport downloads the records of the current view as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	body := s.service.ExportCSV(r.Context(), f)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.service.Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.String()
	}
	writeJSON(w, r, http.StatusOK, out)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
