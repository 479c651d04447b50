package core

// reconcile.go turns raw provider rows into a rectangular table.
//
// Spreadsheet APIs return ragged rows: trailing empty cells are dropped and
// stray cells may sit past the header. Reconcile extracts and sanitizes the
// header row, drops skipped rows, optionally slices a column range and then
// pads or truncates every row to the header width.

import (
	"fmt"

	"github.com/JonMunkholm/sheetserve/internal/table"
)

// DefaultHeaderRowIndex is the 1-based header row used when none is given.
const DefaultHeaderRowIndex = 1

// Rect is a rectangular table: every row has exactly len(Header) cells.
type Rect struct {
	Header []string
	Rows   [][]table.Value
}

// ReconcileOptions controls which rows and columns Reconcile keeps.
type ReconcileOptions struct {
	// SkipRows is the number of rows after the header row to drop.
	SkipRows int

	// HeaderRowIndex is the 1-based position of the header row.
	HeaderRowIndex int

	// ColumnRange optionally restricts the output to a contiguous range.
	ColumnRange *ColumnRange
}

// Validate checks the options without looking at any data.
func (o ReconcileOptions) Validate() error {
	if o.SkipRows < 0 {
		return &InvalidRequestError{Param: "skip_rows", Reason: "must be >= 0"}
	}
	if o.HeaderRowIndex < 1 {
		return &InvalidRequestError{Param: "header_row_index", Reason: "must be >= 1"}
	}
	return nil
}

// Reconcile builds a Rect from all rows of a worksheet, header included.
//
// Data rows start at SkipRows+HeaderRowIndex. The header is the row at
// HeaderRowIndex-1 with each cell sanitized.
//
// With a column range every data row is sliced to [Start, End] and then
// null-padded back toward the original header width, while the header is
// only sliced. The final width pass truncates the padding away again, so
// the observable result is rows as wide as the sliced header.
func Reconcile(values [][]table.Value, opts ReconcileOptions) (Rect, error) {
	if err := opts.Validate(); err != nil {
		return Rect{}, err
	}
	if opts.HeaderRowIndex > len(values) {
		return Rect{}, &InvalidRequestError{
			Param:  "header_row_index",
			Reason: fmt.Sprintf("%d is past the last row (%d)", opts.HeaderRowIndex, len(values)),
		}
	}

	headerRow := values[opts.HeaderRowIndex-1]
	header := make([]string, len(headerRow))
	for i, cell := range headerRow {
		header[i] = Sanitize(cell.Text())
	}

	var data [][]table.Value
	if skipIndex := opts.SkipRows + opts.HeaderRowIndex; skipIndex < len(values) {
		data = values[skipIndex:]
	}

	if cr := opts.ColumnRange; cr != nil {
		width := len(header)
		ranged := make([][]table.Value, len(data))
		for i, row := range data {
			ranged[i] = sliceColumns(row, *cr, width)
		}
		data = ranged
		header = clampSlice(header, cr.Start, cr.End+1)
	}

	rows := make([][]table.Value, len(data))
	for i, row := range data {
		rows[i] = FitRow(row, len(header))
	}

	return Rect{Header: header, Rows: rows}, nil
}

// FitRow returns a copy of row truncated or null-padded to width cells.
func FitRow(row []table.Value, width int) []table.Value {
	out := make([]table.Value, width)
	copy(out, row)
	return out
}

// sliceColumns keeps row[Start:End+1] and appends width-Width() nulls.
func sliceColumns(row []table.Value, cr ColumnRange, width int) []table.Value {
	kept := clampSlice(row, cr.Start, cr.End+1)
	pad := width - cr.Width()
	if pad < 0 {
		pad = 0
	}
	out := make([]table.Value, len(kept), len(kept)+pad)
	copy(out, kept)
	for i := 0; i < pad; i++ {
		out = append(out, table.Null())
	}
	return out
}

// clampSlice returns s[lo:hi] with both bounds clamped to len(s).
func clampSlice[T any](s []T, lo, hi int) []T {
	lo = min(lo, len(s))
	hi = min(hi, len(s))
	if lo > hi {
		lo = hi
	}
	return s[lo:hi]
}
