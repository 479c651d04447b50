package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetserve/internal/cache"
	"github.com/JonMunkholm/sheetserve/internal/core"
	"github.com/JonMunkholm/sheetserve/internal/table"
)

// WorksheetsResponse lists the sanitized worksheet names of a spreadsheet.
type WorksheetsResponse struct {
	Worksheets []string `json:"worksheets"`
}

// TablesResponse lists the table ids of a document.
type TablesResponse struct {
	Tables []string `json:"tables"`
}

// HealthResponse reports liveness plus cache and fetch usage.
type HealthResponse struct {
	Status        string                  `json:"status"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Cache         cache.Stats             `json:"cache"`
	Fetch         core.FetchLimiterStatus `json:"fetch"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Cache:         s.service.CacheStats(),
		Fetch:         s.service.LimiterStatus(),
	})
}

// handleListWorksheets lists the worksheets of a spreadsheet.
func (s *Server) handleListWorksheets(w http.ResponseWriter, r *http.Request) {
	names, err := s.service.ListWorksheets(r.Context(), chi.URLParam(r, "sheetID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, WorksheetsResponse{Worksheets: nonNil(names)})
}

// handleWorksheet serves one worksheet as {key}.{csv|parquet|xlsx}.
//
// Query parameters:
//   - skip_rows: rows after the header to drop (default 0)
//   - header_row_index: 1-based header row (default 1)
//   - column_range: "A:C" to keep a contiguous column range
func (s *Server) handleWorksheet(w http.ResponseWriter, r *http.Request) {
	key, format, err := splitFile(chi.URLParam(r, "file"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	skipRows, err := parseIntParam(r, "skip_rows", 0)
	if err != nil {
		respondError(w, r, err)
		return
	}
	headerRow, err := parseIntParam(r, "header_row_index", core.DefaultHeaderRowIndex)
	if err != nil {
		respondError(w, r, err)
		return
	}

	tbl, err := s.service.WorksheetTable(r.Context(), core.WorksheetRequest{
		SpreadsheetID:  chi.URLParam(r, "sheetID"),
		Key:            key,
		SkipRows:       skipRows,
		HeaderRowIndex: headerRow,
		ColumnRange:    r.URL.Query().Get("column_range"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeTable(w, r, tbl, core.Sanitize(key), format)
}

// handleListDocTables lists the tables of a document.
func (s *Server) handleListDocTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.service.ListDocTables(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TablesResponse{Tables: nonNil(tables)})
}

// handleDocTable serves one document table as {tableID}.{csv|parquet|xlsx}.
func (s *Server) handleDocTable(w http.ResponseWriter, r *http.Request) {
	tableID, format, err := splitFile(chi.URLParam(r, "file"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	tbl, err := s.service.DocTable(r.Context(), chi.URLParam(r, "docID"), tableID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeTable(w, r, tbl, tableID, format)
}

// writeTable encodes tbl fully before writing, so an encoding failure still
// produces a proper error response.
func writeTable(w http.ResponseWriter, r *http.Request, tbl *table.Table, name string, format table.Format) {
	body, err := tbl.EncodeBytes(format)
	if err != nil {
		respondError(w, r, fmt.Errorf("encode %s: %w", format, err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// splitFile splits "name.ext" into the name and its output format.
func splitFile(file string) (string, table.Format, error) {
	dot := strings.LastIndexByte(file, '.')
	if dot <= 0 {
		return "", "", &core.InvalidRequestError{Param: "format", Reason: fmt.Sprintf("missing file extension in %q", file)}
	}
	format, err := table.ParseFormat(file[dot+1:])
	if err != nil {
		return "", "", &core.InvalidRequestError{Param: "format", Reason: fmt.Sprintf("unsupported extension %q", file[dot+1:])}
	}
	return file[:dot], format, nil
}

// parseIntParam reads an integer query parameter, returning defaultVal when
// it is absent.
func parseIntParam(r *http.Request, name string, defaultVal int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &core.InvalidRequestError{Param: name, Reason: fmt.Sprintf("%q is not an integer", raw)}
	}
	return v, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
