// Package grist reads tables from a Grist server over its REST API.
package grist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/JonMunkholm/sheetserve/internal/core"
	"github.com/JonMunkholm/sheetserve/internal/table"
)

// DefaultServerURL is the hosted Grist service.
const DefaultServerURL = "https://docs.getgrist.com"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// Config configures a Client.
type Config struct {
	ServerURL string
	APIKey    string
	HTTP      *http.Client
}

// Client calls the Grist document API. It implements core.DocumentSource.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
}

var _ core.DocumentSource = (*Client)(nil)

// New validates cfg and returns a client.
func New(cfg Config) (*Client, error) {
	raw := cfg.ServerURL
	if raw == "" {
		raw = DefaultServerURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("grist: parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("grist: server url %q must be http or https", raw)
	}
	if cfg.APIKey == "" {
		return nil, errors.New("grist: api key is required")
	}

	hc := cfg.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}

	return &Client{base: base, apiKey: cfg.APIKey, http: hc}, nil
}

// StatusError is returned for a non-2xx response other than 404.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	text := strings.ToLower(http.StatusText(e.StatusCode))
	if e.Message == "" {
		return fmt.Sprintf("grist: status %d %s", e.StatusCode, text)
	}
	return fmt.Sprintf("grist: status %d %s: %s", e.StatusCode, text, e.Message)
}

// Tables lists the table ids of a document.
func (c *Client) Tables(ctx context.Context, docID string) ([]string, error) {
	var resp struct {
		Tables []struct {
			ID string `json:"id"`
		} `json:"tables"`
	}
	if err := c.get(ctx, &resp, "api", "docs", docID, "tables"); err != nil {
		return nil, err
	}

	ids := make([]string, len(resp.Tables))
	for i, t := range resp.Tables {
		ids[i] = t.ID
	}
	return ids, nil
}

// Records fetches every record of a table. The row id comes first, followed
// by the fields in the order the server sent them.
func (c *Client) Records(ctx context.Context, docID, tableID string) ([]core.Record, error) {
	var resp struct {
		Records []struct {
			ID     json.Number `json:"id"`
			Fields core.Record `json:"fields"`
		} `json:"records"`
	}
	if err := c.get(ctx, &resp, "api", "docs", docID, "tables", tableID, "records"); err != nil {
		return nil, err
	}

	records := make([]core.Record, len(resp.Records))
	for i, r := range resp.Records {
		fields := make([]core.Field, 0, len(r.Fields.Fields)+1)
		fields = append(fields, core.Field{Name: "id", Value: table.Number(r.ID.String())})
		for _, f := range r.Fields.Fields {
			if f.Name == "id" {
				continue
			}
			fields = append(fields, f)
		}
		records[i] = core.Record{Fields: fields}
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, out any, segments ...string) error {
	u := *c.base
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.RawPath = c.base.EscapedPath() + "/" + strings.Join(escaped, "/")
	u.Path = c.base.Path + "/" + strings.Join(segments, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("grist: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("grist: GET %s: %w", u.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("grist: GET %s: %w", u.Path, core.ErrSourceNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("grist: decode %s: %w", u.Path, err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} from a Grist error body, falling
// back to the raw text.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}
