package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/sheetserve/internal/table"
)

// Grist encodes non-primitive cell values as arrays whose first element is a
// one-letter type code.
const (
	// MarkerList tags a list cell: ["L", 1, 2, 3].
	MarkerList = "L"

	// MarkerError tags a cell whose formula failed: ["E", "TypeError", ...].
	MarkerError = "E"
)

// Field is one named cell of a Record.
type Field struct {
	Name  string
	Value table.Value
}

// Record is a structured-document row with fields in provider order.
type Record struct {
	Fields []Field
}

// Get returns the value of the named field and whether it was present.
func (r Record) Get(name string) (table.Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return table.Null(), false
}

// UnmarshalJSON decodes a JSON object while keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	keys, err := objectKeys(data)
	if err != nil {
		return err
	}

	r.Fields = make([]Field, 0, len(keys))
	for _, k := range keys {
		var v table.Value
		if err := json.Unmarshal(raw[k], &v); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		r.Fields = append(r.Fields, Field{Name: k, Value: v})
	}
	return nil
}

// objectKeys returns the top-level keys of a JSON object in document order.
// A repeated key keeps its first position.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object")
	}

	var keys []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key")
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// TransformRecords rewrites sentinel-tagged cells in two passes:
//  1. ["L", a, b, ...] becomes the array [a, b, ...]
//  2. ["E", ...] becomes null
//
// Any other value, including arrays with other markers, is kept. The input
// records are not modified.
func TransformRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		fields := make([]Field, len(rec.Fields))
		copy(fields, rec.Fields)
		out[i] = Record{Fields: fields}
	}

	for _, rec := range out {
		for j, f := range rec.Fields {
			if hasMarker(f.Value, MarkerList) {
				rec.Fields[j].Value = table.Array(f.Value.Elems()[1:]...)
			}
		}
	}

	for _, rec := range out {
		for j, f := range rec.Fields {
			if hasMarker(f.Value, MarkerError) {
				rec.Fields[j].Value = table.Null()
			}
		}
	}

	return out
}

func hasMarker(v table.Value, marker string) bool {
	elems := v.Elems()
	if len(elems) == 0 {
		return false
	}
	s, ok := elems[0].Str()
	return ok && s == marker
}

// RecordsToRect lays records out as a rectangle. Columns are the union of
// field names in first-seen order; fields a record lacks are null.
func RecordsToRect(records []Record) Rect {
	index := make(map[string]int)
	var header []string
	for _, rec := range records {
		for _, f := range rec.Fields {
			if _, ok := index[f.Name]; !ok {
				index[f.Name] = len(header)
				header = append(header, f.Name)
			}
		}
	}

	rows := make([][]table.Value, len(records))
	for i, rec := range records {
		row := make([]table.Value, len(header))
		for _, f := range rec.Fields {
			row[index[f.Name]] = f.Value
		}
		rows[i] = row
	}

	return Rect{Header: header, Rows: rows}
}
