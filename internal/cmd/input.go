package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/braindump/internal/outline"
)

// readInputSource reads content from a file path or stdin when source is "-".
// Content is returned untouched since leading indentation is significant.
func readInputSource(source string, stdin io.Reader) (string, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return "", fmt.Errorf("empty input source")
	}

	var r io.Reader
	if trimmed == "-" {
		if stdin != nil {
			r = stdin
		} else {
			r = os.Stdin
		}
	} else {
		file, err := os.Open(trimmed)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", trimmed, err)
		}
		defer file.Close()
		r = file
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func inputHasData(r io.Reader) bool {
	if r == nil {
		r = os.Stdin
	}
	if file, ok := r.(*os.File); ok {
		stat, err := file.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) == 0
	}
	return true
}

// readOutline returns the outline text from --text, a file argument or piped stdin.
func readOutline(cmd *cobra.Command, args []string, text string) (string, error) {
	if flagChanged(cmd, "text") {
		if len(args) > 0 {
			return "", fmt.Errorf("use either --text or a file argument, not both")
		}
		return text, nil
	}
	if len(args) > 0 {
		return readInputSource(args[0], cmd.InOrStdin())
	}
	if !inputHasData(cmd.InOrStdin()) {
		return "", fmt.Errorf("no input provided. Pass a file, use --text, or pipe an outline to stdin")
	}
	return readInputSource("-", cmd.InOrStdin())
}

// resolveInputFormat applies --format, then config, then the file extension.
func resolveInputFormat(flagValue string, args []string) string {
	if f := firstNonEmpty(flagValue, cfg.InputFormat); f != "" {
		return f
	}
	if len(args) > 0 {
		switch strings.ToLower(filepath.Ext(args[0])) {
		case ".md", ".markdown":
			return outline.FormatMarkdown
		}
	}
	return outline.FormatText
}
