package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/sheetserve/internal/table"
)

var (
	s = table.String
	n = table.Null
)

func assertRows(t *testing.T, got, want [][]table.Value) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Errorf("row %d: got %d cells %v, want %d cells %v", i, len(got[i]), got[i], len(want[i]), want[i])
			continue
		}
		for j := range want[i] {
			if !got[i][j].Equal(want[i][j]) {
				t.Errorf("row %d col %d = %#v, want %#v", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestReconcile_PadsShortRows(t *testing.T) {
	values := [][]table.Value{
		{s("name"), s("age")},
		{s("John"), table.Int(30)},
		{s("Jane")},
	}

	rect, err := Reconcile(values, ReconcileOptions{HeaderRowIndex: 1})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if !reflect.DeepEqual(rect.Header, []string{"name", "age"}) {
		t.Errorf("Header = %v", rect.Header)
	}
	assertRows(t, rect.Rows, [][]table.Value{
		{s("John"), table.Int(30)},
		{s("Jane"), n()},
	})
}

func TestReconcile_TruncatesLongRows(t *testing.T) {
	values := [][]table.Value{
		{s("a"), s("b")},
		{s("1"), s("2"), s("3"), s("4")},
	}

	rect, err := Reconcile(values, ReconcileOptions{HeaderRowIndex: 1})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	assertRows(t, rect.Rows, [][]table.Value{{s("1"), s("2")}})
}

func TestReconcile_SanitizesHeader(t *testing.T) {
	values := [][]table.Value{
		{s("First Name"), s("Amount ($)"), table.Int(2024)},
	}

	rect, err := Reconcile(values, ReconcileOptions{HeaderRowIndex: 1})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	want := []string{"first_name", "amount_", "2024"}
	if !reflect.DeepEqual(rect.Header, want) {
		t.Errorf("Header = %v, want %v", rect.Header, want)
	}
	if len(rect.Rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rect.Rows))
	}
}

func TestReconcile_SkipRowsAndHeaderIndex(t *testing.T) {
	values := [][]table.Value{
		{s("Report title")},
		{s("x"), s("y")},
		{s("units"), s("units")},
		{s("1"), s("2")},
		{s("3"), s("4")},
	}

	rect, err := Reconcile(values, ReconcileOptions{SkipRows: 1, HeaderRowIndex: 2})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !reflect.DeepEqual(rect.Header, []string{"x", "y"}) {
		t.Errorf("Header = %v", rect.Header)
	}
	assertRows(t, rect.Rows, [][]table.Value{
		{s("1"), s("2")},
		{s("3"), s("4")},
	})
}

func TestReconcile_SkipPastEnd(t *testing.T) {
	values := [][]table.Value{{s("a")}, {s("1")}}

	rect, err := Reconcile(values, ReconcileOptions{SkipRows: 10, HeaderRowIndex: 1})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(rect.Rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rect.Rows))
	}
}

func TestReconcile_ColumnRange(t *testing.T) {
	values := [][]table.Value{
		{s("a"), s("b"), s("c"), s("d")},
		{s("1"), s("2"), s("3"), s("4")},
		{s("5"), s("6")},
		{},
	}
	cr := ColumnRange{Start: 1, End: 2}

	rect, err := Reconcile(values, ReconcileOptions{HeaderRowIndex: 1, ColumnRange: &cr})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !reflect.DeepEqual(rect.Header, []string{"b", "c"}) {
		t.Errorf("Header = %v, want [b c]", rect.Header)
	}
	assertRows(t, rect.Rows, [][]table.Value{
		{s("2"), s("3")},
		{s("6"), n()},
		{n(), n()},
	})
}

func TestReconcile_ColumnRangePastHeader(t *testing.T) {
	values := [][]table.Value{
		{s("a"), s("b")},
		{s("1"), s("2"), s("3"), s("4")},
	}
	cr := ColumnRange{Start: 1, End: 3}

	rect, err := Reconcile(values, ReconcileOptions{HeaderRowIndex: 1, ColumnRange: &cr})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !reflect.DeepEqual(rect.Header, []string{"b"}) {
		t.Errorf("Header = %v, want [b]", rect.Header)
	}
	assertRows(t, rect.Rows, [][]table.Value{{s("2")}})
}

func TestReconcile_InvalidOptions(t *testing.T) {
	values := [][]table.Value{{s("a")}}

	tests := []struct {
		name string
		opts ReconcileOptions
	}{
		{"negative skip", ReconcileOptions{SkipRows: -1, HeaderRowIndex: 1}},
		{"zero header index", ReconcileOptions{HeaderRowIndex: 0}},
		{"header past end", ReconcileOptions{HeaderRowIndex: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reconcile(values, tt.opts)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Reconcile() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestReconcile_EveryRowMatchesHeaderWidth(t *testing.T) {
	header := []table.Value{s("a"), s("b"), s("c")}
	rows := [][]table.Value{
		{},
		{s("1")},
		{s("1"), s("2"), s("3")},
		{s("1"), s("2"), s("3"), s("4"), s("5")},
	}
	ranges := []*ColumnRange{nil, {0, 0}, {0, 2}, {1, 2}, {2, 5}, {4, 6}}

	for _, cr := range ranges {
		values := append([][]table.Value{header}, rows...)
		rect, err := Reconcile(values, ReconcileOptions{HeaderRowIndex: 1, ColumnRange: cr})
		if err != nil {
			t.Fatalf("Reconcile(range=%v) error = %v", cr, err)
		}
		for i, row := range rect.Rows {
			if len(row) != len(rect.Header) {
				t.Errorf("range=%v row %d has %d cells, header has %d", cr, i, len(row), len(rect.Header))
			}
		}
	}
}

func TestReconcile_DoesNotAliasInput(t *testing.T) {
	values := [][]table.Value{
		{s("a"), s("b")},
		{s("1"), s("2")},
	}
	rect, err := Reconcile(values, ReconcileOptions{HeaderRowIndex: 1})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	rect.Rows[0][0] = s("changed")
	if got := values[1][0]; !got.Equal(s("1")) {
		t.Errorf("input mutated: %#v", got)
	}
}
