// Package outline turns indented free-form text into a forest of nodes.
//
// Nesting is inferred from the width of each line's leading whitespace:
// every IndentWidth columns is one level. Leading tabs expand to TabWidth
// columns before counting, so with the defaults (2 and 2) one tab is one level.
package outline

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Default indentation settings.
const (
	DefaultIndentWidth = 2
	DefaultTabWidth    = 2
)

// Options control how leading whitespace maps to nesting levels.
type Options struct {
	// IndentWidth is the number of columns per level (<= 0 means DefaultIndentWidth).
	IndentWidth int
	// TabWidth is the number of columns a leading tab counts for (<= 0 means DefaultTabWidth).
	TabWidth int
}

// DefaultOptions returns the stock two-column settings.
func DefaultOptions() Options {
	return Options{IndentWidth: DefaultIndentWidth, TabWidth: DefaultTabWidth}
}

func (o Options) normalize() Options {
	if o.IndentWidth <= 0 {
		o.IndentWidth = DefaultIndentWidth
	}
	if o.TabWidth <= 0 {
		o.TabWidth = DefaultTabWidth
	}
	return o
}

// markerPattern matches one bullet ("-", "*", "•") or numeric ("12.") list marker
// and the whitespace after it.
var markerPattern = regexp.MustCompile(`^(?:[-*•]|\d+\.)\s+`)

// Parse parses input with DefaultOptions.
func Parse(input string) []*Node {
	return ParseWithOptions(input, DefaultOptions())
}

// ParseWithOptions splits input into lines, drops blank ones and builds the forest.
// It never fails: odd indentation degrades to extra roots or deeper nominal levels.
func ParseWithOptions(input string, opts Options) []*Node {
	opts = opts.normalize()

	lines := strings.Split(input, "\n")
	entries := make([]entry, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		entries = append(entries, entry{
			level: indentWidth(line, opts.TabWidth) / opts.IndentWidth,
			text:  StripMarker(trimmed),
		})
	}

	return buildTree(entries)
}

// StripMarker removes a single leading list marker from an already trimmed line.
func StripMarker(line string) string {
	if loc := markerPattern.FindStringIndex(line); loc != nil {
		return strings.TrimSpace(line[loc[1]:])
	}
	return line
}

// indentWidth measures the leading whitespace run in columns.
func indentWidth(line string, tabWidth int) int {
	width := 0
	for _, r := range line {
		switch {
		case r == '\t':
			width += tabWidth
		case unicode.IsSpace(r):
			width++
		default:
			return width
		}
	}
	return width
}

// Input formats accepted by ParseFormat.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// ParseFormat parses input as plain indented text or Markdown.
// An empty format means FormatText.
func ParseFormat(input, format string) ([]*Node, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText, "txt":
		return Parse(input), nil
	case FormatMarkdown, "md":
		return ParseMarkdown([]byte(input)), nil
	default:
		return nil, fmt.Errorf("unknown input format %q (use text or markdown)", format)
	}
}
