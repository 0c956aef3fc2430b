// Package export renders expense records as CSV for spreadsheet tools.
//
// The layout is fixed: the description column is always quoted, which
// encoding/csv cannot be told to do, so rows are written by hand.
package export

import (
	"io"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

// Header is the first line of every export.
const Header = "ID,Amount,Category,Date,Description"

// Filename is the suggested download name.
const Filename = "expenses.csv"

// Render returns the CSV payload for records. Lines are separated by a
// single newline with none after the last row.
func Render(records []core.Expense) string {
	var b strings.Builder
	b.WriteString(Header)
	for _, e := range records {
		b.WriteByte('\n')
		writeRow(&b, e)
	}
	return b.String()
}

// Write streams the CSV payload for records to w.
func Write(w io.Writer, records []core.Expense) error {
	_, err := io.WriteString(w, Render(records))
	return err
}

func writeRow(b *strings.Builder, e core.Expense) {
	b.WriteString(strconv.FormatInt(e.ID, 10))
	b.WriteByte(',')
	b.WriteString(e.Amount.String())
	b.WriteByte(',')
	b.WriteString(e.Category.String())
	b.WriteByte(',')
	b.WriteString(e.Date.String())
	b.WriteByte(',')
	b.WriteString(Quote(e.Description))
}

// Quote wraps s in double quotes, doubling any embedded quote.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
