// Package cli implements sheetctl, a command-line client that exports
// worksheets and document tables without running the server.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetserve/internal/app"
	"github.com/JonMunkholm/sheetserve/internal/config"
	"github.com/JonMunkholm/sheetserve/internal/core"
	"github.com/JonMunkholm/sheetserve/internal/logging"
	"github.com/JonMunkholm/sheetserve/internal/table"
)

// TableService is the part of core.Service the commands use.
type TableService interface {
	ListWorksheets(ctx context.Context, spreadsheetID string) ([]string, error)
	WorksheetTable(ctx context.Context, req core.WorksheetRequest) (*table.Table, error)
	ListDocTables(ctx context.Context, docID string) ([]string, error)
	DocTable(ctx context.Context, docID, tableID string) (*table.Table, error)
}

// ServiceFactory builds the service once a command actually needs it.
type ServiceFactory func(ctx context.Context) (TableService, error)

// Execute runs sheetctl and exits non-zero on failure.
func Execute() {
	cmd := newRootCmd(defaultFactory)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

func newRootCmd(factory ServiceFactory) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:           "sheetctl",
		Short:         "Export Google Sheets worksheets and Grist tables as CSV, Parquet or XLSX",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := "warn"
			if debug {
				level = "debug"
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, "text"))
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "log provider calls to stderr")

	cmd.AddCommand(
		worksheetsCmd(factory),
		exportCmd(factory),
		gristTablesCmd(factory),
		gristExportCmd(factory),
		convertCmd(),
	)
	return cmd
}

// defaultFactory loads .env and the environment the same way the server
// does.
func defaultFactory(ctx context.Context) (TableService, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return a.Service, nil
}

// describe renders err with its user-facing code when one applies.
func describe(err error) string {
	if core.IsUserFacing(err) {
		return fmt.Sprintf("%v\n%s", err, core.FormatUserError(err))
	}
	return err.Error()
}

// writeOutput writes the table to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, tbl *table.Table, format table.Format) error {
	if path == "" || path == "-" {
		return tbl.Encode(w, format)
	}

	body, err := tbl.EncodeBytes(format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
