package record

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

func TestBase(t *testing.T) {
	long := strings.Repeat("é", 150)

	in := Base(long, true, "parent-1", Defaults{Tags: []string{"inbox"}})
	if got := len([]rune(in.Title)); got != TitleMaxRunes {
		t.Fatalf("expected title of %d runes, got %d", TitleMaxRunes, got)
	}
	if in.Description != long {
		t.Fatalf("expected full description")
	}
	if in.Type != TypeProject {
		t.Fatalf("expected project type, got %q", in.Type)
	}
	if in.Urgency != DefaultScore || in.Importance != DefaultScore {
		t.Fatalf("expected default scores, got %d/%d", in.Urgency, in.Importance)
	}
	if in.Parent != "parent-1" {
		t.Fatalf("expected parent to be kept, got %q", in.Parent)
	}
	if len(in.Tags) != 1 || in.Tags[0] != "inbox" {
		t.Fatalf("unexpected tags: %v", in.Tags)
	}

	leaf := Base("Pack clothes", false, "", DefaultDefaults())
	if leaf.Type != TypeTask {
		t.Fatalf("expected task type, got %q", leaf.Type)
	}
	if leaf.Tags == nil {
		t.Fatalf("expected non-nil tags")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"日本語テキスト", 3, "日本語"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestEnhancementApply(t *testing.T) {
	base := Base("Review budget", false, "p1", DefaultDefaults())

	enh := &Enhancement{
		Title:      strPtr("  "),
		Type:       strPtr("Project"),
		Tags:       []string{"#Finance", "finance", " money "},
		Urgency:    intPtr(42),
		Importance: intPtr(8),
	}
	got := enh.Apply(base)

	if got.Title != "Review budget" {
		t.Fatalf("blank title should fall back to base, got %q", got.Title)
	}
	if got.Description != "Review budget" {
		t.Fatalf("missing description should fall back to base, got %q", got.Description)
	}
	if got.Type != TypeProject {
		t.Fatalf("expected project, got %q", got.Type)
	}
	if strings.Join(got.Tags, ",") != "finance,money" {
		t.Fatalf("unexpected tags: %v", got.Tags)
	}
	if got.Urgency != MaxScore {
		t.Fatalf("expected urgency clamped to %d, got %d", MaxScore, got.Urgency)
	}
	if got.Importance != 8 {
		t.Fatalf("expected importance 8, got %d", got.Importance)
	}
	if got.Parent != "p1" {
		t.Fatalf("parent must not change, got %q", got.Parent)
	}
}

func TestEnhancementApplyNil(t *testing.T) {
	base := Base("x", false, "", DefaultDefaults())
	var enh *Enhancement
	if got := enh.Apply(base); got.Title != base.Title || got.Type != base.Type {
		t.Fatalf("nil enhancement changed the record: %+v", got)
	}
	if !enh.Empty() {
		t.Fatalf("nil enhancement should be empty")
	}
	if blank := (&Enhancement{Tags: []string{" "}}); !blank.Empty() {
		t.Fatalf("blank tags should count as empty")
	}
}

func TestQuadrant(t *testing.T) {
	tests := []struct {
		urgency, importance int
		want                string
	}{
		{9, 9, QuadrantDo},
		{2, 8, QuadrantSchedule},
		{7, 3, QuadrantDelegate},
		{5, 5, QuadrantEliminate},
		{6, 6, QuadrantDo},
	}
	for _, tt := range tests {
		if got := Quadrant(tt.urgency, tt.importance); got != tt.want {
			t.Errorf("Quadrant(%d, %d) = %q, want %q", tt.urgency, tt.importance, got, tt.want)
		}
	}
}

func TestInputToMap(t *testing.T) {
	m := Input{Title: "t", Type: TypeTask, Urgency: 5, Importance: 5}.ToMap()
	if _, ok := m["parent"]; ok {
		t.Fatalf("root record should not carry a parent key")
	}
	tags, ok := m["tags"].([]string)
	if !ok || tags == nil {
		t.Fatalf("expected empty tags slice, got %#v", m["tags"])
	}

	m = Input{Parent: "abc"}.ToMap()
	if m["parent"] != "abc" {
		t.Fatalf("expected parent abc, got %v", m["parent"])
	}
}
