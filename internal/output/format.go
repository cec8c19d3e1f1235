// Package output renders command results as text, tables, JSON, NDJSON or YAML.
package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// Format represents the output format type.
type Format string

const (
	// FormatText is human-readable key-value format (default).
	FormatText Format = "text"
	// FormatJSON is pretty-printed JSON format.
	FormatJSON Format = "json"
	// FormatNDJSON is newline-delimited JSON format.
	FormatNDJSON Format = "ndjson"
	// FormatTable is tabular format for lists.
	FormatTable Format = "table"
	// FormatYAML is YAML format.
	FormatYAML Format = "yaml"
)

// ParseFormat converts a string to a Format type.
// Empty string defaults to FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatNDJSON:
		return FormatNDJSON, nil
	case FormatTable:
		return FormatTable, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", errors.New("invalid --output format (expected text|json|ndjson|table|yaml)")
	}
}

// IsStructured reports whether the format is machine-readable structured output.
func IsStructured(format Format) bool {
	switch format {
	case FormatJSON, FormatNDJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// Printer handles output formatting across different formats.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a new Printer that writes to w in the given format.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{
		w:      w,
		format: format,
	}
}

// Print outputs data in the configured format.
// A jq query in ctx filters JSON and NDJSON output.
func (p *Printer) Print(ctx context.Context, data interface{}) error {
	if data == nil {
		return nil
	}

	switch p.format {
	case FormatJSON:
		return p.printJSON(ctx, data, true)
	case FormatNDJSON:
		return p.printJSON(ctx, data, false)
	case FormatYAML:
		return p.printYAML(data)
	case FormatTable:
		return p.printTable(data)
	case FormatText:
		return p.printText(data)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

// printJSON writes data as one indented document, or one line per element when
// indent is false. With a query, each query result is written on its own line.
func (p *Printer) printJSON(ctx context.Context, data interface{}, indent bool) error {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)

	if query := QueryFromContext(ctx); query != "" {
		results, err := RunQuery(query, data)
		if err != nil {
			return err
		}
		for _, v := range results {
			if err := enc.Encode(v); err != nil {
				return err
			}
		}
		return nil
	}

	if indent {
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		for i := 0; i < v.Len(); i++ {
			if err := enc.Encode(v.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.Encode(data)
}

// RunQuery evaluates a jq expression against data. Data is first converted to
// plain JSON values so structs are queried by their json field names.
func RunQuery(query string, data interface{}) ([]interface{}, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("invalid --query: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("invalid --query: %w", err)
	}

	input, err := toJSONValue(data)
	if err != nil {
		return nil, err
	}

	var results []interface{}
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("query error: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func toJSONValue(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return v, nil
}

// printYAML outputs data as YAML.
func (p *Printer) printYAML(data interface{}) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}

// printText outputs data as human-readable text.
// Maps and structs print as key-value pairs, slices one item per line.
func (p *Printer) printText(data interface{}) error {
	if s, ok := data.(fmt.Stringer); ok {
		_, err := fmt.Fprintln(p.w, s.String())
		return err
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		return p.printTextMap(v)
	case reflect.Struct:
		return p.printTextStruct(v)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if _, err := fmt.Fprintln(p.w, v.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintln(p.w, v.Interface())
		return err
	}
}

func (p *Printer) printTextMap(v reflect.Value) error {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})

	for _, key := range keys {
		if _, err := fmt.Fprintf(p.w, "%v: %v\n", key.Interface(), v.MapIndex(key).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printTextStruct(v reflect.Value) error {
	for _, f := range structFields(v.Type()) {
		value := v.FieldByIndex(f.index)
		if f.omitEmpty && value.IsZero() {
			continue
		}
		if _, err := fmt.Fprintf(p.w, "%s: %v\n", f.name, value.Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printTable(data interface{}) error {
	switch t := data.(type) {
	case Table:
		return p.printTableData(t.Headers, t.Rows)
	case Tabular:
		table := t.Table()
		return p.printTableData(table.Headers, table.Rows)
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Errorf("table format requires a list of items")
	}
	if v.Len() == 0 {
		return nil
	}

	headers, rows := buildTable(v)
	return p.printTableData(headers, rows)
}

func (p *Printer) printTableData(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func buildTable(v reflect.Value) ([]string, [][]string) {
	first := v.Index(0)
	for first.Kind() == reflect.Ptr && !first.IsNil() {
		first = first.Elem()
	}

	if first.Kind() != reflect.Struct {
		rows := make([][]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			rows = append(rows, []string{fmt.Sprint(v.Index(i).Interface())})
		}
		return []string{"value"}, rows
	}

	fields := structFields(first.Type())
	headers := make([]string, 0, len(fields))
	for _, f := range fields {
		headers = append(headers, f.name)
	}

	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		for item.Kind() == reflect.Ptr && !item.IsNil() {
			item = item.Elem()
		}
		row := make([]string, 0, len(fields))
		for _, f := range fields {
			row = append(row, fmt.Sprint(item.FieldByIndex(f.index).Interface()))
		}
		rows = append(rows, row)
	}
	return headers, rows
}

type structField struct {
	name      string
	index     []int
	omitEmpty bool
}

// structFields lists exported fields by json name, flattening embedded structs.
func structFields(t reflect.Type) []structField {
	var out []structField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			for _, inner := range structFields(f.Type) {
				inner.index = append([]int{i}, inner.index...)
				out = append(out, inner)
			}
			continue
		}
		if name == "" {
			name = f.Name
		}
		out = append(out, structField{
			name:      name,
			index:     []int{i},
			omitEmpty: strings.Contains(opts, "omitempty"),
		})
	}
	return out
}
