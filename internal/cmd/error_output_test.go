package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/braindump/internal/api"
	"github.com/salmonumbrella/braindump/internal/enhance"
	"github.com/salmonumbrella/braindump/internal/materialize"
	"github.com/salmonumbrella/braindump/internal/output"
	"github.com/salmonumbrella/braindump/internal/store"
)

func TestValidateErrorFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"", false},
		{"auto", false},
		{"text", false},
		{"json", false},
		{"yaml", false},
		{"AUTO", false},   // case insensitive
		{"TEXT", false},   // case insensitive
		{" json ", false}, // whitespace trimmed
		{"invalid", true},
		{"xml", true},
		{"ndjson", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			err := validateErrorFormat(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateErrorFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveErrorFormat(t *testing.T) {
	tests := []struct {
		name         string
		errorFormat  string
		outputFormat output.Format
		want         string
	}{
		{
			name:         "empty defaults to text",
			errorFormat:  "",
			outputFormat: output.FormatText,
			want:         "text",
		},
		{
			name:         "auto with json output",
			errorFormat:  "auto",
			outputFormat: output.FormatJSON,
			want:         "json",
		},
		{
			name:         "auto with ndjson output",
			errorFormat:  "auto",
			outputFormat: output.FormatNDJSON,
			want:         "json",
		},
		{
			name:         "auto with yaml output",
			errorFormat:  "auto",
			outputFormat: output.FormatYAML,
			want:         "yaml",
		},
		{
			name:         "auto with text output",
			errorFormat:  "auto",
			outputFormat: output.FormatText,
			want:         "text",
		},
		{
			name:         "explicit json overrides",
			errorFormat:  "json",
			outputFormat: output.FormatText,
			want:         "json",
		},
		{
			name:         "explicit yaml overrides",
			errorFormat:  "yaml",
			outputFormat: output.FormatText,
			want:         "yaml",
		},
		{
			name:         "explicit text overrides",
			errorFormat:  "text",
			outputFormat: output.FormatJSON,
			want:         "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			ctx = withErrorFormat(ctx, tt.errorFormat)
			ctx = output.WithFormat(ctx, tt.outputFormat)

			got := effectiveErrorFormat(ctx)
			if got != tt.want {
				t.Errorf("effectiveErrorFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildErrorEnvelope(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantType     string
		wantCategory string
	}{
		{
			name:         "generic error",
			err:          errors.New("something went wrong"),
			wantType:     "error",
			wantCategory: "system",
		},
		{
			name:         "auth error",
			err:          api.AuthenticationError{Message: "invalid token"},
			wantType:     "auth",
			wantCategory: "user",
		},
		{
			name:         "validation error",
			err:          api.ValidationError{Message: "invalid input"},
			wantType:     "validation",
			wantCategory: "user",
		},
		{
			name:         "not found error",
			err:          api.NotFoundError{Message: "page not found"},
			wantType:     "not_found",
			wantCategory: "user",
		},
		{
			name:         "rate limit error",
			err:          api.RateLimitError{Message: "too many requests"},
			wantType:     "rate_limit",
			wantCategory: "system",
		},
		{
			name:         "store not found",
			err:          fmt.Errorf("get record: %w", store.ErrNotFound),
			wantType:     "not_found",
			wantCategory: "user",
		},
		{
			name:         "missing parent",
			err:          store.ErrParentNotFound,
			wantType:     "not_found",
			wantCategory: "user",
		},
		{
			name:         "enhancement disabled",
			err:          fmt.Errorf("%w: set GEMINI_API_KEY", enhance.ErrDisabled),
			wantType:     "enhance_disabled",
			wantCategory: "user",
		},
		{
			name:         "cancelled",
			err:          fmt.Errorf("import: %w", context.Canceled),
			wantType:     "cancelled",
			wantCategory: "user",
		},
		{
			name:         "partial failure keeps cause category",
			err:          &materialize.PartialError{Created: 2, Total: 5, Err: api.RateLimitError{Message: "slow down"}},
			wantType:     "partial_failure",
			wantCategory: "system",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := buildErrorEnvelope(tt.err)

			errMap, ok := result["error"].(map[string]interface{})
			if !ok {
				t.Fatal("expected 'error' map in result")
			}

			if errMap["message"] != tt.err.Error() {
				t.Errorf("message = %v, want %v", errMap["message"], tt.err.Error())
			}

			if errMap["type"] != tt.wantType {
				t.Errorf("type = %v, want %v", errMap["type"], tt.wantType)
			}

			if errMap["category"] != tt.wantCategory {
				t.Errorf("category = %v, want %v", errMap["category"], tt.wantCategory)
			}

		})
	}
}

func TestPrintCommandError_Nil(t *testing.T) {
	errBuf := &bytes.Buffer{}
	ctx := withIO(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, errBuf)

	printCommandError(ctx, nil)

	if errBuf.Len() != 0 {
		t.Errorf("expected no output for nil error, got %q", errBuf.String())
	}
}

func TestPrintCommandError_Text(t *testing.T) {
	errBuf := &bytes.Buffer{}
	ctx := context.Background()
	ctx = withIO(ctx, &bytes.Buffer{}, &bytes.Buffer{}, errBuf)
	ctx = withErrorFormat(ctx, "text")
	ctx = output.WithFormat(ctx, output.FormatText)

	testErr := errors.New("test error message")
	printCommandError(ctx, testErr)

	got := strings.TrimSpace(errBuf.String())
	if got != "test error message" {
		t.Errorf("expected %q, got %q", "test error message", got)
	}
}

func TestPrintCommandError_JSON(t *testing.T) {
	errBuf := &bytes.Buffer{}
	ctx := context.Background()
	ctx = withIO(ctx, &bytes.Buffer{}, &bytes.Buffer{}, errBuf)
	ctx = withErrorFormat(ctx, "json")
	ctx = output.WithFormat(ctx, output.FormatText)

	testErr := api.AuthenticationError{Message: "auth failed"}
	printCommandError(ctx, testErr)

	var result map[string]interface{}
	if err := json.Unmarshal(errBuf.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}

	errMap, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatal("expected 'error' map in output")
	}

	if errMap["message"] != "auth failed" {
		t.Errorf("message = %v, want 'auth failed'", errMap["message"])
	}
	if errMap["type"] != "auth" {
		t.Errorf("type = %v, want 'auth'", errMap["type"])
	}
}

func TestPrintCommandError_YAML(t *testing.T) {
	errBuf := &bytes.Buffer{}
	ctx := context.Background()
	ctx = withIO(ctx, &bytes.Buffer{}, &bytes.Buffer{}, errBuf)
	ctx = withErrorFormat(ctx, "yaml")
	ctx = output.WithFormat(ctx, output.FormatText)

	testErr := api.ValidationError{Message: "validation failed"}
	printCommandError(ctx, testErr)

	var result map[string]interface{}
	if err := yaml.Unmarshal(errBuf.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse YAML output: %v", err)
	}

	errMap, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatal("expected 'error' map in output")
	}

	if errMap["message"] != "validation failed" {
		t.Errorf("message = %v, want 'validation failed'", errMap["message"])
	}
	if errMap["type"] != "validation" {
		t.Errorf("type = %v, want 'validation'", errMap["type"])
	}
}

func TestBuildErrorEnvelope_PartialDetails(t *testing.T) {
	err := &materialize.PartialError{Created: 3, Total: 7, Err: errors.New("disk full")}
	result := buildErrorEnvelope(err)

	errMap := result["error"].(map[string]interface{})
	details, ok := errMap["details"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected details map, got %#v", errMap["details"])
	}
	if details["created"] != 3 || details["total"] != 7 {
		t.Errorf("unexpected counts: %v", details)
	}
	if details["cause"] != "disk full" {
		t.Errorf("cause = %v, want 'disk full'", details["cause"])
	}
	if errMap["message"] != "created 3 of 7 records before an error occurred" {
		t.Errorf("message = %v", errMap["message"])
	}
}
