// Package table provides common table formatting utilities for CLI commands.
package table

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/uppbod/pkg/listings"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// DefaultColumns are shown by list when --wide is not given.
var DefaultColumns = []string{
	listings.FieldIdentity,
	listings.FieldAuctionDate,
	listings.FieldAuctionTime,
	listings.FieldAuctionType,
	listings.FieldLotName,
	listings.FieldOffice,
	listings.FieldLastFetched,
}

// MaxCellWidth bounds cell text in narrow tables.
const MaxCellWidth = 48

// RecordsToTableData converts records to one row each over columns.
// A zero width disables truncation.
func RecordsToTableData(records []listings.Record, columns []string, width int) Data {
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = Header(c)
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = Truncate(flatten(rec[c]), width)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows}
}

// RecordToTableData converts one record to a field/value table.
func RecordToTableData(rec listings.Record, columns []string) Data {
	rows := make([][]string, 0, len(columns))
	for _, c := range columns {
		v, ok := rec[c]
		if !ok {
			continue
		}
		rows = append(rows, []string{Header(c), flatten(v)})
	}
	return Data{
		Headers:         []string{"Field", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft},
	}
}

// Header turns a feed field name such as auctionTakesPlaceAt or
// last_fetched into a title-cased column header.
func Header(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case r == '_':
			b.WriteRune(' ')
		case i > 0 && unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return cases.Title(language.English).String(b.String())
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
