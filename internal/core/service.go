package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/sheetserve/internal/cache"
	"github.com/JonMunkholm/sheetserve/internal/logging"
	"github.com/JonMunkholm/sheetserve/internal/table"
)

// SheetMeta describes one worksheet of a spreadsheet.
type SheetMeta struct {
	ID    int64
	Title string
}

// SpreadsheetSource reads worksheets from a spreadsheet provider.
// Implementations return an error wrapping ErrSourceNotFound when the
// spreadsheet or worksheet does not exist.
type SpreadsheetSource interface {
	Worksheets(ctx context.Context, spreadsheetID string) ([]SheetMeta, error)
	// Values returns every row of the worksheet, header included.
	Values(ctx context.Context, spreadsheetID, title string) ([][]table.Value, error)
}

// DocumentSource reads tables from a structured-document provider.
// Implementations return an error wrapping ErrSourceNotFound when the
// document or table does not exist.
type DocumentSource interface {
	Tables(ctx context.Context, docID string) ([]string, error)
	Records(ctx context.Context, docID, tableID string) ([]Record, error)
}

// WorksheetRequest selects a worksheet and how to reconcile it.
type WorksheetRequest struct {
	SpreadsheetID  string
	Key            string // sanitized worksheet name
	SkipRows       int
	HeaderRowIndex int    // 1-based, must be >= 1; see DefaultHeaderRowIndex
	ColumnRange    string // "A:C", or empty for all columns
}

// Service fetches provider data, reconciles it into rectangles and
// materializes cached tables. It is safe for concurrent use.
type Service struct {
	sheets  SpreadsheetSource
	docs    DocumentSource
	cache   *cache.Cache
	limiter *FetchLimiter
}

// NewService wires a Service. A nil limiter means fetches are unbounded.
func NewService(sheets SpreadsheetSource, docs DocumentSource, c *cache.Cache, limiter *FetchLimiter) *Service {
	return &Service{
		sheets:  sheets,
		docs:    docs,
		cache:   c,
		limiter: limiter,
	}
}

// CacheStats reports cache usage.
func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }

// LimiterStatus reports fetch limiter usage.
func (s *Service) LimiterStatus() FetchLimiterStatus {
	if s.limiter == nil {
		return FetchLimiterStatus{}
	}
	return s.limiter.Status()
}

// fetch runs fn under the fetch limiter.
func (s *Service) fetch(ctx context.Context, fn func(context.Context) error) error {
	if s.limiter == nil {
		return fn(ctx)
	}
	return s.limiter.Do(ctx, fn)
}

// =============================================================================
// Spreadsheets
// =============================================================================

// ListWorksheets returns the sanitized names of every worksheet.
func (s *Service) ListWorksheets(ctx context.Context, spreadsheetID string) ([]string, error) {
	metas, err := s.worksheets(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}
	return sanitizedTitles(metas), nil
}

func (s *Service) worksheets(ctx context.Context, spreadsheetID string) ([]SheetMeta, error) {
	var metas []SheetMeta
	err := s.fetch(ctx, func(ctx context.Context) error {
		var err error
		metas, err = s.sheets.Worksheets(ctx, spreadsheetID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) {
			return nil, &NotFoundError{Kind: "spreadsheet", Key: spreadsheetID}
		}
		if errors.Is(err, ErrTooManyFetches) || ctx.Err() != nil {
			return nil, err
		}
		return nil, &UpstreamError{Source: string(cache.SourceGoogle), Op: "list worksheets", Err: err}
	}
	return metas, nil
}

// WorksheetTable returns the reconciled, materialized worksheet selected by
// req. Results are cached per spreadsheet, key and reconcile options.
//
// Request options are validated before the cache is consulted, so a bad
// column range never triggers a fetch.
func (s *Service) WorksheetTable(ctx context.Context, req WorksheetRequest) (*table.Table, error) {
	opts := ReconcileOptions{SkipRows: req.SkipRows, HeaderRowIndex: req.HeaderRowIndex}
	rangeText := ""
	if req.ColumnRange != "" {
		cr, err := ParseColumnRange(req.ColumnRange)
		if err != nil {
			return nil, err
		}
		opts.ColumnRange = &cr
		rangeText = cr.String()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	key := cache.Key{
		Source:         cache.SourceGoogle,
		SourceID:       req.SpreadsheetID,
		TableKey:       Sanitize(req.Key),
		SkipRows:       opts.SkipRows,
		HeaderRowIndex: opts.HeaderRowIndex,
		ColumnRange:    rangeText,
	}

	return s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*table.Table, error) {
		return s.loadWorksheet(ctx, req.SpreadsheetID, key.TableKey, opts)
	})
}

func (s *Service) loadWorksheet(ctx context.Context, spreadsheetID, key string, opts ReconcileOptions) (*table.Table, error) {
	log := logging.WithFields(ctx,
		"source", cache.SourceGoogle,
		"spreadsheet_id", spreadsheetID,
		"worksheet", key,
	)
	if ip := ClientIPFromContext(ctx); ip != "" {
		log = log.With("client_ip", ip)
	}
	start := time.Now()

	metas, err := s.worksheets(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}

	title, ok := matchTitle(metas, key)
	if !ok {
		return nil, &NotFoundError{Kind: "worksheet", Key: key, Available: sanitizedTitles(metas)}
	}

	var values [][]table.Value
	err = s.fetch(ctx, func(ctx context.Context) error {
		var err error
		values, err = s.sheets.Values(ctx, spreadsheetID, title)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) {
			return nil, &NotFoundError{Kind: "worksheet", Key: key, Available: sanitizedTitles(metas)}
		}
		if errors.Is(err, ErrTooManyFetches) || ctx.Err() != nil {
			return nil, err
		}
		return nil, &UpstreamError{Source: string(cache.SourceGoogle), Op: "get values", Err: err}
	}

	rect, err := Reconcile(values, opts)
	if err != nil {
		return nil, err
	}

	tbl, err := table.Materialize(rect.Header, rect.Rows)
	if err != nil {
		return nil, fmt.Errorf("materialize worksheet %q: %w", key, err)
	}

	log.Info("worksheet fetched",
		"rows", tbl.NumRows(),
		"cols", tbl.NumCols(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return tbl, nil
}

func matchTitle(metas []SheetMeta, key string) (string, bool) {
	for _, m := range metas {
		if Sanitize(m.Title) == key {
			return m.Title, true
		}
	}
	return "", false
}

func sanitizedTitles(metas []SheetMeta) []string {
	out := make([]string, len(metas))
	for i, m := range metas {
		out[i] = Sanitize(m.Title)
	}
	return out
}

// =============================================================================
// Documents
// =============================================================================

// ListDocTables returns the table ids of a document.
func (s *Service) ListDocTables(ctx context.Context, docID string) ([]string, error) {
	var tables []string
	err := s.fetch(ctx, func(ctx context.Context) error {
		var err error
		tables, err = s.docs.Tables(ctx, docID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) {
			return nil, &NotFoundError{Kind: "document", Key: docID}
		}
		if errors.Is(err, ErrTooManyFetches) || ctx.Err() != nil {
			return nil, err
		}
		return nil, &UpstreamError{Source: string(cache.SourceGrist), Op: "list tables", Err: err}
	}
	return tables, nil
}

// DocTable returns a document table with sentinel values resolved.
// Results are cached per document and table.
func (s *Service) DocTable(ctx context.Context, docID, tableID string) (*table.Table, error) {
	key := cache.Key{
		Source:   cache.SourceGrist,
		SourceID: docID,
		TableKey: tableID,
	}

	return s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*table.Table, error) {
		return s.loadDocTable(ctx, docID, tableID)
	})
}

func (s *Service) loadDocTable(ctx context.Context, docID, tableID string) (*table.Table, error) {
	log := logging.WithFields(ctx,
		"source", cache.SourceGrist,
		"doc_id", docID,
		"table", tableID,
	)
	if ip := ClientIPFromContext(ctx); ip != "" {
		log = log.With("client_ip", ip)
	}
	start := time.Now()

	var records []Record
	err := s.fetch(ctx, func(ctx context.Context) error {
		var err error
		records, err = s.docs.Records(ctx, docID, tableID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) {
			return nil, s.tableNotFound(ctx, docID, tableID)
		}
		if errors.Is(err, ErrTooManyFetches) || ctx.Err() != nil {
			return nil, err
		}
		return nil, &UpstreamError{Source: string(cache.SourceGrist), Op: "get records", Err: err}
	}

	rect := RecordsToRect(TransformRecords(records))

	tbl, err := table.Materialize(rect.Header, rect.Rows)
	if err != nil {
		return nil, fmt.Errorf("materialize table %q: %w", tableID, err)
	}

	log.Info("document table fetched",
		"rows", tbl.NumRows(),
		"cols", tbl.NumCols(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return tbl, nil
}

// tableNotFound builds the not-found error for a missing table, listing the
// document's tables when they can be fetched.
func (s *Service) tableNotFound(ctx context.Context, docID, tableID string) error {
	tables, err := s.ListDocTables(ctx, docID)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nf
		}
		logging.FromContext(ctx).Warn("list tables for not-found detail failed",
			"doc_id", docID,
			"error", err,
		)
	}
	return &NotFoundError{Kind: "table", Key: tableID, Available: tables}
}
