// Package core turns provider data into rectangular, typed tables.
//
// It holds the domain logic independent of any transport: the HTTP server
// and the sheetctl CLI both drive it through [Service].
//
// # Architecture
//
//   - Sources: [SpreadsheetSource] and [DocumentSource] fetch raw rows and
//     records. Implementations live under internal/source.
//   - Reconciling: [Reconcile] picks the header row, skips rows, slices a
//     [ColumnRange] and pads or truncates every row to the header width.
//   - Sentinels: [TransformRecords] resolves tagged list and error cells in
//     document records before [RecordsToRect] lays them out.
//   - Service: [Service] runs fetches under a [FetchLimiter] and caches
//     materialized tables per request options.
//
// # Names
//
// Worksheet and column names pass through [Sanitize]. Request keys are
// sanitized too, so "Q1 Sales (2024)", "q1_sales_2024" and "Q1 Sales 2024"
// all select the same worksheet.
//
//	tbl, err := svc.WorksheetTable(ctx, core.WorksheetRequest{
//	    SpreadsheetID:  id,
//	    Key:            "q1_sales_2024",
//	    HeaderRowIndex: core.DefaultHeaderRowIndex,
//	    ColumnRange:    "A:C",
//	})
//
// # Error Handling
//
// Failures are typed ([NotFoundError], [MalformedRangeError],
// [InvalidRequestError], [UpstreamError]) and match the sentinels
// [ErrNotFound], [ErrMalformedRange], [ErrInvalidRequest] and [ErrUpstream]
// through errors.Is. [MapError] turns any of them into a user message with
// a support code:
//
//   - SRC001: not found
//   - REQ001-REQ002: bad request parameters
//   - UPS001-UPS003: provider failures
//   - FET001, RATE001, TIME001: capacity and timeouts
package core
