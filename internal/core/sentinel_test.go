package core

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/JonMunkholm/sheetserve/internal/table"
)

func rec(fields ...Field) Record { return Record{Fields: fields} }

func TestTransformRecords(t *testing.T) {
	tests := []struct {
		name string
		in   table.Value
		want table.Value
	}{
		{
			name: "list marker unwraps",
			in:   table.Array(s("L"), table.Int(1), table.Int(2), table.Int(3)),
			want: table.Array(table.Int(1), table.Int(2), table.Int(3)),
		},
		{
			name: "empty list marker",
			in:   table.Array(s("L")),
			want: table.Array(),
		},
		{
			name: "error marker nulls",
			in:   table.Array(s("E")),
			want: n(),
		},
		{
			name: "error marker with details",
			in:   table.Array(s("E"), s("TypeError"), s("bad operand")),
			want: n(),
		},
		{
			name: "scalar passes through",
			in:   table.Int(5),
			want: table.Int(5),
		},
		{
			name: "other marker passes through",
			in:   table.Array(s("D"), table.Int(1700000000), s("UTC")),
			want: table.Array(s("D"), table.Int(1700000000), s("UTC")),
		},
		{
			name: "empty array passes through",
			in:   table.Array(),
			want: table.Array(),
		},
		{
			name: "list whose first element is E",
			in:   table.Array(s("L"), s("E"), s("x")),
			want: table.Array(s("E"), s("x")),
		},
		{
			name: "marker must be a string",
			in:   table.Array(table.Number("1"), s("L")),
			want: table.Array(table.Number("1"), s("L")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := TransformRecords([]Record{rec(Field{Name: "x", Value: tt.in})})
			got, _ := out[0].Get("x")
			if !got.Equal(tt.want) {
				t.Errorf("TransformRecords(%#v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransformRecords_DoesNotMutateInput(t *testing.T) {
	in := []Record{rec(Field{Name: "x", Value: table.Array(s("E"))})}
	_ = TransformRecords(in)

	if got, _ := in[0].Get("x"); got.IsNull() {
		t.Error("TransformRecords mutated its input")
	}
}

func TestRecordsToRect(t *testing.T) {
	records := []Record{
		rec(Field{"id", table.Int(1)}, Field{"name", s("a")}),
		rec(Field{"id", table.Int(2)}, Field{"extra", table.Bool(true)}),
		rec(Field{"name", s("c")}, Field{"id", table.Int(3)}),
	}

	rect := RecordsToRect(records)

	if want := []string{"id", "name", "extra"}; !reflect.DeepEqual(rect.Header, want) {
		t.Errorf("Header = %v, want %v", rect.Header, want)
	}
	assertRows(t, rect.Rows, [][]table.Value{
		{table.Int(1), s("a"), n()},
		{table.Int(2), n(), table.Bool(true)},
		{table.Int(3), s("c"), n()},
	})
}

func TestRecordsToRect_Empty(t *testing.T) {
	rect := RecordsToRect(nil)
	if len(rect.Header) != 0 || len(rect.Rows) != 0 {
		t.Errorf("RecordsToRect(nil) = %+v, want empty", rect)
	}
}

func TestRecord_UnmarshalJSON_KeepsOrder(t *testing.T) {
	var r Record
	data := `{"zeta": 1, "alpha": ["L", "a"], "mid": null, "zeta": 2}`
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	var names []string
	for _, f := range r.Fields {
		names = append(names, f.Name)
	}
	if want := []string{"zeta", "alpha", "mid"}; !reflect.DeepEqual(names, want) {
		t.Errorf("field order = %v, want %v", names, want)
	}
	if v, _ := r.Get("zeta"); !v.Equal(table.Number("2")) {
		t.Errorf("zeta = %#v, want last value 2", v)
	}
	if v, _ := r.Get("alpha"); !v.Equal(table.Array(s("L"), s("a"))) {
		t.Errorf("alpha = %#v", v)
	}
}

func TestRecord_UnmarshalJSON_RejectsNonObject(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`[1,2]`), &r); err == nil {
		t.Error("Unmarshal([1,2]) error = nil, want error")
	}
}
