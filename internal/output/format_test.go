package output

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

type item struct {
	ID string `json:"id"`
	Inner
	Note string `json:"note,omitempty"`
}

type Inner struct {
	Kind string `json:"kind"`
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"", "TEXT", "json", "ndjson", "table", " yaml "} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", in, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
	if !IsStructured(FormatNDJSON) || IsStructured(FormatTable) {
		t.Error("IsStructured misclassified a format")
	}
}

func TestPrintJSONWithQueryOverStructs(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithQuery(context.Background(), ".[] | .kind")
	data := []item{{ID: "a", Inner: Inner{Kind: "task"}}, {ID: "b", Inner: Inner{Kind: "project"}}}

	if err := NewPrinter(&buf, FormatJSON).Print(ctx, data); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if got := buf.String(); got != "\"task\"\n\"project\"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestPrintInvalidQuery(t *testing.T) {
	ctx := WithQuery(context.Background(), ".[")
	err := NewPrinter(&bytes.Buffer{}, FormatJSON).Print(ctx, map[string]int{"a": 1})
	if err == nil || !strings.Contains(err.Error(), "invalid --query") {
		t.Errorf("error = %v, want invalid --query", err)
	}
}

func TestPrintNDJSON(t *testing.T) {
	var buf bytes.Buffer
	data := []map[string]int{{"n": 1}, {"n": 2}}
	if err := NewPrinter(&buf, FormatNDJSON).Print(context.Background(), data); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if got := buf.String(); got != "{\"n\":1}\n{\"n\":2}\n" {
		t.Errorf("output = %q", got)
	}
}

func TestPrintTextStruct(t *testing.T) {
	var buf bytes.Buffer
	v := item{ID: "a", Inner: Inner{Kind: "task"}}
	if err := NewPrinter(&buf, FormatText).Print(context.Background(), v); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	got := buf.String()
	if got != "id: a\nkind: task\n" {
		t.Errorf("output = %q", got)
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	data := []item{{ID: "a", Inner: Inner{Kind: "task"}, Note: "n"}}
	if err := NewPrinter(&buf, FormatTable).Print(context.Background(), data); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if fields := strings.Fields(lines[0]); strings.Join(fields, ",") != "id,kind,note" {
		t.Errorf("headers = %v", fields)
	}

	buf.Reset()
	table := Table{Headers: []string{"A", "B"}, Rows: [][]string{{"1", "2"}}}
	if err := NewPrinter(&buf, FormatTable).Print(context.Background(), table); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "A  B\n1  2") {
		t.Errorf("table output = %q", buf.String())
	}

	if err := NewPrinter(&buf, FormatTable).Print(context.Background(), 42); err == nil {
		t.Error("expected error for non-list table data")
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(&buf, FormatYAML).Print(context.Background(), map[string]string{"status": "ok"}); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if buf.String() != "status: ok\n" {
		t.Errorf("output = %q", buf.String())
	}
}
