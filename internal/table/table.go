// Package table materializes rectangular cell data into typed, columnar
// Apache Arrow tables and encodes them as CSV, Parquet or XLSX.
//
// A Table is immutable once built. It is safe to share between goroutines
// and is never released explicitly: arrays are allocated with the Go
// allocator and reclaimed by the garbage collector, so a cached table stays
// valid for every reader that still holds it.
package table

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Table is a materialized, typed, columnar table.
type Table struct {
	schema *arrow.Schema
	record arrow.Record
	types  []ColumnType
}

// Materialize builds a typed table from a header and positionally aligned
// rows. Rows shorter than the header are null-filled, extra cells are
// ignored. Duplicate column names are made unique.
func Materialize(header []string, rows [][]Value) (*Table, error) {
	mem := memory.NewGoAllocator()
	names := uniqueNames(header)

	fields := make([]arrow.Field, len(names))
	columns := make([]arrow.Array, len(names))
	types := make([]ColumnType, len(names))

	for c, name := range names {
		cells := make([]Value, len(rows))
		for r, row := range rows {
			if c < len(row) {
				cells[r] = row[c]
			}
		}

		colType := InferType(cells)
		arr, err := buildColumn(mem, colType, cells)
		if err != nil {
			return nil, fmt.Errorf("materialize column %q: %w", name, err)
		}

		fields[c] = arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}
		columns[c] = arr
		types[c] = colType
	}

	schema := arrow.NewSchema(fields, nil)
	record := array.NewRecord(schema, columns, int64(len(rows)))
	for _, arr := range columns {
		arr.Release()
	}

	return &Table{schema: schema, record: record, types: types}, nil
}

// buildColumn appends every cell to a builder of the inferred type.
func buildColumn(mem memory.Allocator, colType ColumnType, cells []Value) (arrow.Array, error) {
	switch colType {
	case TypeList:
		elemType := inferType(listElements(cells), false)
		lb := array.NewListBuilder(mem, arrowType(elemType))
		defer lb.Release()
		vb := lb.ValueBuilder()
		for _, v := range cells {
			if v.IsBlank() {
				lb.AppendNull()
				continue
			}
			lb.Append(true)
			for _, e := range v.Elems() {
				if err := appendScalar(vb, elemType, e); err != nil {
					return nil, err
				}
			}
		}
		return lb.NewArray(), nil

	default:
		b := array.NewBuilder(mem, arrowType(colType))
		defer b.Release()
		for _, v := range cells {
			if err := appendScalar(b, colType, v); err != nil {
				return nil, err
			}
		}
		return b.NewArray(), nil
	}
}

// appendScalar appends one cell to a scalar builder. Inference has already
// checked that the text parses, so parse failures indicate a bug.
func appendScalar(b array.Builder, colType ColumnType, v Value) error {
	if v.IsBlank() {
		b.AppendNull()
		return nil
	}

	text := v.Text()
	switch colType {
	case TypeInt64:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return fmt.Errorf("parse int64 %q: %w", text, err)
		}
		b.(*array.Int64Builder).Append(i)
	case TypeFloat64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("parse float64 %q: %w", text, err)
		}
		b.(*array.Float64Builder).Append(f)
	case TypeBool:
		b.(*array.BooleanBuilder).Append(isTrueToken(text))
	default:
		b.(*array.StringBuilder).Append(text)
	}
	return nil
}

func isTrueToken(s string) bool {
	return len(s) == 4 && (s[0] == 't' || s[0] == 'T') && isBoolToken(s)
}

// arrowType maps a scalar column type to its Arrow data type.
func arrowType(t ColumnType) arrow.DataType {
	switch t {
	case TypeInt64:
		return arrow.PrimitiveTypes.Int64
	case TypeFloat64:
		return arrow.PrimitiveTypes.Float64
	case TypeBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// uniqueNames suffixes repeated names with _duplicated_<n>.
func uniqueNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	dupes := make(map[string]int)

	for i, h := range header {
		name := h
		for used[name] {
			name = fmt.Sprintf("%s_duplicated_%d", h, dupes[h])
			dupes[h]++
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return int(t.record.NumRows()) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.types) }

// Schema returns the Arrow schema.
func (t *Table) Schema() *arrow.Schema { return t.schema }

// Record returns the underlying Arrow record. Callers must not release it.
func (t *Table) Record() arrow.Record { return t.record }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, t.NumCols())
	for i, f := range t.schema.Fields() {
		names[i] = f.Name
	}
	return names
}

// ColumnTypes returns the inferred type of every column.
func (t *Table) ColumnTypes() []ColumnType {
	out := make([]ColumnType, len(t.types))
	copy(out, t.types)
	return out
}

// Value returns the cell at (row, col) as a Value.
func (t *Table) Value(row, col int) Value {
	return valueAt(t.record.Column(col), row)
}

// Row returns one row as Values.
func (t *Table) Row(row int) []Value {
	out := make([]Value, t.NumCols())
	for c := range out {
		out[c] = t.Value(row, c)
	}
	return out
}

// valueAt reads one position of an Arrow array back into a Value.
func valueAt(arr arrow.Array, pos int) Value {
	if arr.IsNull(pos) {
		return Null()
	}

	switch a := arr.(type) {
	case *array.Int64:
		return Int(a.Value(pos))
	case *array.Float64:
		return Number(formatFloat(a.Value(pos)))
	case *array.Boolean:
		return Bool(a.Value(pos))
	case *array.String:
		return String(a.Value(pos))
	case *array.List:
		start, end := a.ValueOffsets(pos)
		values := a.ListValues()
		elems := make([]Value, 0, end-start)
		for i := start; i < end; i++ {
			elems = append(elems, valueAt(values, int(i)))
		}
		return Value{kind: KindArray, elems: elems}
	default:
		return String(arr.ValueStr(pos))
	}
}
