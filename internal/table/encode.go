package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"
)

// Format is an output file format, named by its file extension.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatXLSX    Format = "xlsx"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported extensions.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat resolves a file extension (with or without the dot).
func ParseFormat(ext string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(ext, "."))); f {
	case FormatCSV, FormatParquet, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// ContentType returns the HTTP media type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Encode writes t to w in the given format.
func (t *Table) Encode(w io.Writer, f Format) error {
	switch f {
	case FormatCSV:
		return t.WriteCSV(w)
	case FormatParquet:
		return t.WriteParquet(w)
	case FormatXLSX:
		return t.WriteXLSX(w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// EncodeBytes encodes t into memory so encoding errors surface before any
// response bytes are written.
func (t *Table) EncodeBytes(f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Encode(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes a header line followed by one line per row. Nulls are
// empty fields, floats always carry a decimal point and lists are JSON arrays.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, t.NumCols())
	for r := 0; r < t.NumRows(); r++ {
		for c := range record {
			record[c] = t.Value(r, c).Text()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", r, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses CSV produced by WriteCSV, or any CSV with a header line,
// and re-materializes it with the same type inference. A UTF-8 byte order
// mark is skipped and invalid UTF-8 is replaced.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(newTextReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return Materialize(nil, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var rows [][]Value
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+1, err)
		}
		row := make([]Value, len(rec))
		for i, s := range rec {
			if s != "" {
				row[i] = String(s)
			}
		}
		rows = append(rows, row)
	}

	return Materialize(header, rows)
}

// WriteParquet writes t as a single row group, Snappy compressed, with the
// Arrow schema stored in the file metadata.
func (t *Table) WriteParquet(w io.Writer) error {
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	fw, err := pqarrow.NewFileWriter(t.schema, w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}

	tbl := array.NewTableFromRecords(t.schema, []arrow.Record{t.record})
	defer tbl.Release()

	if err := fw.WriteTable(tbl, max(tbl.NumRows(), 1)); err != nil {
		fw.Close()
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteXLSX writes t as a single-sheet workbook with a header row.
func (t *Table) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("create xlsx stream writer: %w", err)
	}

	header := make([]any, t.NumCols())
	for i, name := range t.ColumnNames() {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for r := 0; r < t.NumRows(); r++ {
		cells := make([]any, t.NumCols())
		for c := range cells {
			cells[c] = xlsxCell(t.record.Column(c), r)
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("xlsx row %d: %w", r, err)
		}
		if err := sw.SetRow(axis, cells); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", r, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush xlsx: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// xlsxCell returns a native Go value excelize can type the cell from.
func xlsxCell(arr arrow.Array, pos int) any {
	if arr.IsNull(pos) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(pos)
	case *array.Float64:
		return a.Value(pos)
	case *array.Boolean:
		return a.Value(pos)
	case *array.String:
		return a.Value(pos)
	default:
		return valueAt(arr, pos).Text()
	}
}
