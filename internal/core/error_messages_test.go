package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "not found",
			err:      &NotFoundError{Kind: "worksheet", Key: "x", Available: []string{"a"}},
			wantCode: "SRC001",
		},
		{
			name:     "wrapped not found",
			err:      fmt.Errorf("get table: %w", &NotFoundError{Kind: "table", Key: "x"}),
			wantCode: "SRC001",
		},
		{
			name:     "malformed range",
			err:      &MalformedRangeError{Input: "A-C", Reason: "bad"},
			wantCode: "REQ001",
		},
		{
			name:     "invalid request",
			err:      &InvalidRequestError{Param: "skip_rows", Reason: "must be >= 0"},
			wantCode: "REQ002",
		},
		{
			name:     "too many fetches",
			err:      fmt.Errorf("fetch: %w", ErrTooManyFetches),
			wantCode: "FET001",
		},
		{
			name:     "upstream permission error",
			err:      &UpstreamError{Source: "google", Op: "values", Err: errors.New("googleapi: Error 403: The caller does not have permission")},
			wantCode: "UPS002",
		},
		{
			name:     "upstream quota error",
			err:      &UpstreamError{Source: "google", Op: "values", Err: errors.New("Quota exceeded for quota metric")},
			wantCode: "UPS003",
		},
		{
			name:     "plain upstream error",
			err:      &UpstreamError{Source: "grist", Op: "records", Err: errors.New("unexpected status 500")},
			wantCode: "UPS001",
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			wantCode: "TIME001",
		},
		{
			name:     "rate limit",
			err:      errors.New("rate limit exceeded"),
			wantCode: "RATE001",
		},
		{
			name:     "unknown error falls back",
			err:      errors.New("something odd"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("MapError() returned empty message")
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(&MalformedRangeError{Input: "1:2"})
	want := `column_range must look like "A:C" (Code: REQ001). Use two single column letters separated by a colon`
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("boom"), false},
		{&NotFoundError{Kind: "worksheet"}, true},
		{ErrTooManyFetches, true},
	}
	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
