package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/sheetserve/internal/core"
	"github.com/JonMunkholm/sheetserve/internal/table"
)

type fakeService struct {
	lastReq core.WorksheetRequest
}

func (f *fakeService) ListWorksheets(_ context.Context, id string) ([]string, error) {
	if id != "sheet-1" {
		return nil, &core.NotFoundError{Kind: "spreadsheet", Key: id}
	}
	return []string{"people", "sales"}, nil
}

func (f *fakeService) WorksheetTable(_ context.Context, req core.WorksheetRequest) (*table.Table, error) {
	f.lastReq = req
	return table.Materialize([]string{"name", "age"}, [][]table.Value{
		{table.String("John"), table.String("30")},
	})
}

func (f *fakeService) ListDocTables(context.Context, string) ([]string, error) {
	return nil, nil
}

func (f *fakeService) DocTable(_ context.Context, _, tableID string) (*table.Table, error) {
	if tableID != "Table1" {
		return nil, &core.NotFoundError{Kind: "table", Key: tableID, Available: []string{"Table1"}}
	}
	return table.Materialize([]string{"id"}, [][]table.Value{{table.Int(1)}})
}

func run(t *testing.T, svc *fakeService, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(func(context.Context) (TableService, error) { return svc, nil })
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestWorksheets(t *testing.T) {
	out, err := run(t, &fakeService{}, "worksheets", "sheet-1")
	if err != nil {
		t.Fatal(err)
	}
	if out != "people\nsales\n" {
		t.Errorf("output = %q", out)
	}
}

func TestExport_StdoutCSV(t *testing.T) {
	svc := &fakeService{}
	out, err := run(t, svc, "export", "sheet-1", "people",
		"--skip-rows", "2", "--header-row-index", "3", "--column-range", "A:B")
	if err != nil {
		t.Fatal(err)
	}
	if out != "name,age\nJohn,30\n" {
		t.Errorf("output = %q", out)
	}

	want := core.WorksheetRequest{
		SpreadsheetID:  "sheet-1",
		Key:            "people",
		SkipRows:       2,
		HeaderRowIndex: 3,
		ColumnRange:    "A:B",
	}
	if svc.lastReq != want {
		t.Errorf("request = %+v, want %+v", svc.lastReq, want)
	}
}

func TestExport_DefaultHeaderRow(t *testing.T) {
	svc := &fakeService{}
	if _, err := run(t, svc, "export", "sheet-1", "people"); err != nil {
		t.Fatal(err)
	}
	if svc.lastReq.HeaderRowIndex != core.DefaultHeaderRowIndex || svc.lastReq.SkipRows != 0 {
		t.Errorf("request = %+v, want header row %d and no skipped rows", svc.lastReq, core.DefaultHeaderRowIndex)
	}
}

func TestExport_FileFormatFromExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.parquet")
	if _, err := run(t, &fakeService{}, "export", "sheet-1", "people", "-o", path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("PAR1")) {
		t.Error("output is not parquet")
	}
}

func TestExport_BadFormat(t *testing.T) {
	_, err := run(t, &fakeService{}, "export", "sheet-1", "people", "--format", "json")
	if !errors.Is(err, table.ErrUnknownFormat) {
		t.Errorf("error = %v, want ErrUnknownFormat", err)
	}
}

func TestGristExport_NotFound(t *testing.T) {
	_, err := run(t, &fakeService{}, "grist-export", "doc-1", "Nope")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if msg := describe(err); !strings.Contains(msg, "SRC001") || !strings.Contains(msg, "Table1") {
		t.Errorf("describe() = %q", msg)
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format, output string
		want           table.Format
	}{
		{"", "", table.FormatCSV},
		{"", "out.xlsx", table.FormatXLSX},
		{"parquet", "out.csv", table.FormatParquet},
		{"CSV", "", table.FormatCSV},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.format, tt.output)
		if err != nil || got != tt.want {
			t.Errorf("resolveFormat(%q, %q) = %q, %v; want %q", tt.format, tt.output, got, err, tt.want)
		}
	}
}

func TestConvert_SanitizeHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFFirst Name,Total (USD)\nJohn,30\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, &fakeService{}, "convert", path, "--sanitize-headers")
	if err != nil {
		t.Fatal(err)
	}
	if out != "first_name,total_usd\nJohn,30\n" {
		t.Errorf("output = %q", out)
	}
}

func TestWorksheets_ListFormats(t *testing.T) {
	tests := []struct {
		as   string
		want string
	}{
		{"json", "{\n  \"worksheets\": [\n    \"people\",\n    \"sales\"\n  ]\n}\n"},
		{"yaml", "worksheets:\n  - people\n  - sales\n"},
	}
	for _, tt := range tests {
		t.Run(tt.as, func(t *testing.T) {
			out, err := run(t, &fakeService{}, "worksheets", "sheet-1", "--as", tt.as)
			if err != nil {
				t.Fatal(err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}

	if _, err := run(t, &fakeService{}, "worksheets", "sheet-1", "--as", "xml"); err == nil {
		t.Error("unknown list format accepted")
	}
}

func TestGristTables_Empty(t *testing.T) {
	out, err := run(t, &fakeService{}, "grist-tables", "doc-1", "--as", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if out != "tables: []\n" {
		t.Errorf("output = %q", out)
	}
}
