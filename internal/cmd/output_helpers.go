package cmd

import (
	"context"
	"fmt"

	"github.com/salmonumbrella/braindump/internal/output"
)

func structuredOutputRequested() bool {
	return output.IsStructured(GetOutputFormat())
}

// printResult prints data in the active --output format.
func printResult(ctx context.Context, data interface{}) error {
	printer := output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat())
	return printer.Print(ctx, data)
}

// printf writes human-readable output to the command's stdout.
func printf(ctx context.Context, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(stdoutFromContext(ctx), format, args...)
}

// notef writes progress notes to stderr unless --quiet is set.
func notef(ctx context.Context, format string, args ...interface{}) {
	if output.QuietFromContext(ctx) {
		return
	}
	_, _ = fmt.Fprintf(stderrFromContext(ctx), format, args...)
}
