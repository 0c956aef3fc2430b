package core

import (
	"strings"
	"time"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Entertainment Category = "Entertainment"
	Shopping      Category = "Shopping"
	Bills         Category = "Bills"
)

// Categories lists every category in display order.
var Categories = []Category{Food, Transport, Entertainment, Shopping, Bills}

// DateLayout is the wire format for dates.
const DateLayout = "2006-01-02"

type (
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Details holds the optional fields of an expense.
	Details struct {
		Tags        []string
		ReceiptNote string
		Recurring   bool
	}

	Expense struct {
		ID          int64
		Amount      Money
		Category    Category
		Date        Date
		Description string
		Tags        []string
		ReceiptNote string // empty means absent
		Recurring   bool
	}

	// ExpenseInput carries the caller-supplied fields for add and update.
	// A nil Details leaves tags, note and recurring untouched on update.
	ExpenseInput struct {
		Amount      Money
		Category    Category
		Date        Date
		Description string
		Details     *Details
	}
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case Food, Transport, Entertainment, Shopping, Bills:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory matches s against the known categories, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "category", Err: ErrInvalidCategory}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty returns true if the date is zero (used for optional bounds)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Compare returns -1, 0 or +1 ordering d against o by calendar day.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

// SameMonth reports whether d falls in the calendar month and year of t.
func (d Date) SameMonth(t time.Time) bool {
	return d.Year() == t.Year() && d.Month() == t.Month()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the required fields of an input.
func (in ExpenseInput) Validate() error {
	if err := in.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if !in.Category.Valid() {
		return &ValidationError{Field: "category", Err: ErrInvalidCategory}
	}
	if err := in.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	if strings.TrimSpace(in.Description) == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	return nil
}

// Apply writes the input onto e, keeping e.ID.
func (in ExpenseInput) Apply(e *Expense) {
	e.Amount = in.Amount
	e.Category = in.Category
	e.Date = in.Date
	e.Description = strings.TrimSpace(in.Description)
	if in.Details != nil {
		e.Tags = NormalizeTags(in.Details.Tags)
		e.ReceiptNote = strings.TrimSpace(in.Details.ReceiptNote)
		e.Recurring = in.Details.Recurring
	}
}

// Clone returns a copy of e that shares no slices with it.
func (e Expense) Clone() Expense {
	if e.Tags != nil {
		e.Tags = append([]string(nil), e.Tags...)
	}
	return e
}

// NormalizeTags trims every tag and drops the blank ones. Order is kept.
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma separated tag list.
func SplitTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}
