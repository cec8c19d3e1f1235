package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/braindump/internal/api"
	"github.com/salmonumbrella/braindump/internal/enhance"
	"github.com/salmonumbrella/braindump/internal/materialize"
	"github.com/salmonumbrella/braindump/internal/output"
	"github.com/salmonumbrella/braindump/internal/store"
)

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --error-format %q (expected auto|text|json|yaml)", format)
	}
}

func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(errorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		if ctx == nil {
			return "text"
		}
		switch output.FormatFromContext(ctx) {
		case output.FormatJSON, output.FormatNDJSON:
			return "json"
		case output.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
		return
	}

	_, _ = fmt.Fprintln(stderrFromContext(ctx), err)
}

func buildErrorEnvelope(err error) map[string]interface{} {
	errMap := map[string]interface{}{
		"message":  err.Error(),
		"category": "system",
		"type":     "error",
	}

	var authErr api.AuthenticationError
	if errors.As(err, &authErr) {
		errMap["type"] = "auth"
		errMap["category"] = "user"
	}

	var validationErr api.ValidationError
	if errors.As(err, &validationErr) {
		errMap["type"] = "validation"
		errMap["category"] = "user"
	}

	var notFoundErr api.NotFoundError
	if errors.As(err, &notFoundErr) || errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrParentNotFound) {
		errMap["type"] = "not_found"
		errMap["category"] = "user"
	}

	var rateErr api.RateLimitError
	if errors.As(err, &rateErr) {
		errMap["type"] = "rate_limit"
		errMap["category"] = "system"
	}

	if errors.Is(err, enhance.ErrDisabled) {
		errMap["type"] = "enhance_disabled"
		errMap["category"] = "user"
	}

	if errors.Is(err, context.Canceled) {
		errMap["type"] = "cancelled"
		errMap["category"] = "user"
	}

	// Checked last: a partial failure wraps the error that stopped it.
	var partial *materialize.PartialError
	if errors.As(err, &partial) {
		errMap["type"] = "partial_failure"
		errMap["details"] = map[string]interface{}{
			"created": partial.Created,
			"total":   partial.Total,
			"cause":   errorString(partial.Err),
		}
	}

	return map[string]interface{}{"error": errMap}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
