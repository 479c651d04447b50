package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/sheetserve/internal/core"
	"github.com/JonMunkholm/sheetserve/internal/table"
)

func worksheetsCmd(factory ServiceFactory) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "worksheets <spreadsheet-id>",
		Short: "List the sanitized worksheet names of a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			names, err := svc.ListWorksheets(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printNames(cmd, as, "worksheets", names)
		},
	}

	addListFlag(cmd, &as)
	return cmd
}

func exportCmd(factory ServiceFactory) *cobra.Command {
	var (
		format    string
		output    string
		skipRows  int
		headerRow int
		colRange  string
	)

	cmd := &cobra.Command{
		Use:   "export <spreadsheet-id> <worksheet>",
		Short: "Export a worksheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(format, output)
			if err != nil {
				return err
			}
			svc, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			tbl, err := svc.WorksheetTable(cmd.Context(), core.WorksheetRequest{
				SpreadsheetID:  args[0],
				Key:            args[1],
				SkipRows:       skipRows,
				HeaderRowIndex: headerRow,
				ColumnRange:    colRange,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, tbl, f)
		},
	}

	addOutputFlags(cmd, &format, &output)
	cmd.Flags().IntVar(&skipRows, "skip-rows", 0, "Rows after the header to drop")
	cmd.Flags().IntVar(&headerRow, "header-row-index", core.DefaultHeaderRowIndex, "1-based header row")
	cmd.Flags().StringVar(&colRange, "column-range", "", `Contiguous column range, e.g. "A:C"`)
	return cmd
}

func gristTablesCmd(factory ServiceFactory) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "grist-tables <doc-id>",
		Short: "List the tables of a Grist document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			tables, err := svc.ListDocTables(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printNames(cmd, as, "tables", tables)
		},
	}

	addListFlag(cmd, &as)
	return cmd
}

func gristExportCmd(factory ServiceFactory) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "grist-export <doc-id> <table-id>",
		Short: "Export a Grist table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(format, output)
			if err != nil {
				return err
			}
			svc, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			tbl, err := svc.DocTable(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, tbl, f)
		},
	}

	addOutputFlags(cmd, &format, &output)
	return cmd
}

func convertCmd() *cobra.Command {
	var (
		format   string
		output   string
		sanitize bool
	)

	cmd := &cobra.Command{
		Use:   "convert <input.csv | ->",
		Short: "Re-encode a local CSV file with the same type inference as exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(format, output)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				in = file
			}

			tbl, err := table.ReadCSV(in)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if sanitize {
				if tbl, err = renameColumns(tbl, core.SanitizeAll(tbl.ColumnNames())); err != nil {
					return err
				}
			}
			return writeOutput(cmd.OutOrStdout(), output, tbl, f)
		},
	}

	addOutputFlags(cmd, &format, &output)
	cmd.Flags().BoolVar(&sanitize, "sanitize-headers", false, "Normalize column names the way worksheet headers are")
	return cmd
}

// renameColumns rebuilds tbl under new column names.
func renameColumns(tbl *table.Table, names []string) (*table.Table, error) {
	rows := make([][]table.Value, tbl.NumRows())
	for i := range rows {
		rows[i] = tbl.Row(i)
	}
	return table.Materialize(names, rows)
}

func addOutputFlags(cmd *cobra.Command, format, output *string) {
	cmd.Flags().StringVarP(format, "format", "f", "", "Output format: csv, parquet or xlsx (default: from -o extension, else csv)")
	cmd.Flags().StringVarP(output, "output", "o", "", "Output file (default: stdout)")
}

// resolveFormat prefers an explicit --format, then the output file
// extension, then csv.
func resolveFormat(format, output string) (table.Format, error) {
	if format != "" {
		return table.ParseFormat(format)
	}
	if ext := filepath.Ext(output); ext != "" {
		return table.ParseFormat(ext)
	}
	return table.FormatCSV, nil
}

func addListFlag(cmd *cobra.Command, as *string) {
	cmd.Flags().StringVar(as, "as", "text", "List format: text, json or yaml")
}

// printNames writes names one per line, or as {key: [names]} in json or
// yaml, matching the server's list responses.
func printNames(cmd *cobra.Command, as, key string, names []string) error {
	if names == nil {
		names = []string{}
	}
	out := cmd.OutOrStdout()
	doc := map[string][]string{key: names}

	switch strings.ToLower(as) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
	default:
		return fmt.Errorf("unknown list format %q (want text, json or yaml)", as)
	}

	if len(names) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "(none found)")
		return nil
	}
	for _, n := range names {
		if _, err := fmt.Fprintln(out, n); err != nil {
			return err
		}
	}
	return nil
}
