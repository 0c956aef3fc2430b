package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/trace"
)

type expenseDTO struct {
	ID          int64       `json:"id"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Tags        []string    `json:"tags"`
	ReceiptNote string      `json:"receipt_note,omitempty"`
	Recurring   bool        `json:"recurring"`
	OverBudget  bool        `json:"over_budget"`
}

type categoryAmountDTO struct {
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

type budgetDTO struct {
	Category string      `json:"category"`
	Limit    json.Number `json:"limit"`
}

type viewDTO struct {
	Filtered  bool                `json:"filtered"`
	Month     string              `json:"month"`
	Expenses  []expenseDTO        `json:"expenses"`
	Total     json.Number         `json:"total"`
	Breakdown []categoryAmountDTO `json:"breakdown"`
}

type errorDTO struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func newErrorDTO(r *http.Request, msg, field string) errorDTO {
	return errorDTO{Error: msg, Field: field, RequestID: trace.GetRequestID(r.Context())}
}

func amountJSON(m core.Money) json.Number {
	return json.Number(m.String())
}

func toExpenseDTO(e core.Expense, over bool) expenseDTO {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return expenseDTO{
		ID:          e.ID,
		Amount:      amountJSON(e.Amount),
		Category:    e.Category.String(),
		Date:        e.Date.String(),
		Description: e.Description,
		Tags:        tags,
		ReceiptNote: e.ReceiptNote,
		Recurring:   e.Recurring,
		OverBudget:  over,
	}
}

func toBreakdownDTO(list []core.CategoryAmount) []categoryAmountDTO {
	out := make([]categoryAmountDTO, len(list))
	for i, ca := range list {
		out[i] = categoryAmountDTO{Category: ca.Category.String(), Amount: amountJSON(ca.Amount)}
	}
	return out
}

func toViewDTO(v aggregate.View) viewDTO {
	expenses := make([]expenseDTO, len(v.Records))
	for i, e := range v.Records {
		expenses[i] = toExpenseDTO(e, v.Over(e.ID))
	}
	return viewDTO{
		Filtered:  v.Filtered,
		Month:     v.Month,
		Expenses:  expenses,
		Total:     amountJSON(v.Total),
		Breakdown: toBreakdownDTO(v.Breakdown),
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to write response", applog.FieldError, err)
	}
}

// writeError maps domain errors to status codes: validation 422, unknown
// id 404, malformed input 400, anything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		status := http.StatusUnprocessableEntity
		if ve.Field == "start" || ve.Field == "end" {
			status = http.StatusBadRequest
		}
		writeJSON(w, r, status, newErrorDTO(r, ve.Err.Error(), ve.Field))
	case core.IsNotFound(err):
		writeJSON(w, r, http.StatusNotFound, newErrorDTO(r, core.ErrNotFound.Error(), ""))
	case errors.Is(err, errMalformedBody), errors.Is(err, errInvalidID):
		writeJSON(w, r, http.StatusBadRequest, newErrorDTO(r, err.Error(), ""))
	default:
		applog.FromContext(r.Context()).LogError(r.Context(), "Request failed", err, r.Method+" "+r.URL.Path,
			applog.NewFields().WithErrorType(applog.ErrorTypeInternal))
		writeJSON(w, r, http.StatusInternalServerError, newErrorDTO(r, "internal error", ""))
	}
}
