// Package sheets reads worksheets through the Google Sheets v4 API using
// service-account credentials.
package sheets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/JonMunkholm/sheetserve/internal/core"
	"github.com/JonMunkholm/sheetserve/internal/httpclient"
	"github.com/JonMunkholm/sheetserve/internal/table"
)

// metadataFields restricts spreadsheet metadata to what worksheet lookup
// needs. Full metadata of large spreadsheets can fail server side.
const metadataFields = "sheets.properties(sheetId,title)"

// Client implements core.SpreadsheetSource.
type Client struct {
	svc *sheetsapi.Service
}

var _ core.SpreadsheetSource = (*Client)(nil)

// DecodeCredentials decodes base64-encoded service-account JSON.
func DecodeCredentials(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode google credentials: %w", err)
	}
	if !json.Valid(data) {
		return nil, errors.New("decode google credentials: not valid JSON")
	}
	return data, nil
}

// New builds a client from service-account JSON. Token requests and API
// calls share one transport built from hc.
//
// ctx is kept by the token source for refreshing tokens and should outlive
// the client.
func New(ctx context.Context, credentialsJSON []byte, hc httpclient.Config) (*Client, error) {
	base := &http.Client{Transport: httpclient.NewTransport(hc), Timeout: hc.Timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, sheetsapi.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("load google credentials: %w", err)
	}

	authed := &http.Client{
		Transport: &oauth2.Transport{Source: creds.TokenSource, Base: base.Transport},
		Timeout:   hc.Timeout,
	}
	return NewWithOptions(ctx, option.WithHTTPClient(authed))
}

// NewWithOptions builds a client from raw API options.
func NewWithOptions(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Worksheets returns the id and title of every worksheet.
func (c *Client) Worksheets(ctx context.Context, spreadsheetID string) ([]core.SheetMeta, error) {
	ss, err := c.svc.Spreadsheets.Get(spreadsheetID).
		Fields(metadataFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError("get spreadsheet", err)
	}

	metas := make([]core.SheetMeta, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		metas = append(metas, core.SheetMeta{ID: sh.Properties.SheetId, Title: sh.Properties.Title})
	}
	return metas, nil
}

// Values returns every row of a worksheet as formatted values. Trailing
// empty cells are omitted by the API, so rows may be ragged.
func (c *Client) Values(ctx context.Context, spreadsheetID, title string) ([][]table.Value, error) {
	vr, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, quoteTitle(title)).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError("get values", err)
	}

	rows := make([][]table.Value, len(vr.Values))
	for i, row := range vr.Values {
		rows[i] = table.Row(row)
	}
	return rows, nil
}

// quoteTitle turns a worksheet title into an A1 range covering the sheet.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func mapError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusNotFound ||
			(gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")) {
			return fmt.Errorf("sheets: %s: %w", op, core.ErrSourceNotFound)
		}
	}
	return fmt.Errorf("sheets: %s: %w", op, err)
}
