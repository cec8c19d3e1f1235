package record

import (
	"strings"
	"time"
)

// Record types.
const (
	TypeProject = "project"
	TypeTask    = "task"
)

// Score bounds for urgency and importance.
const (
	MinScore     = 1
	MaxScore     = 10
	DefaultScore = 5
)

// TitleMaxRunes is the title length cut taken from the node text.
const TitleMaxRunes = 100

// Input is the payload handed to a record store on create.
// Parent is empty for root records.
type Input struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Type        string   `json:"type" yaml:"type"`
	Tags        []string `json:"tags" yaml:"tags"`
	Urgency     int      `json:"urgency" yaml:"urgency"`
	Importance  int      `json:"importance" yaml:"importance"`
	Parent      string   `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// Record is a persisted record as read back from a store.
type Record struct {
	ID string `json:"id" yaml:"id"`
	Input
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Quadrant returns the Eisenhower quadrant of the record.
func (r Record) Quadrant() string {
	return Quadrant(r.Urgency, r.Importance)
}

// ToMap converts the input to a document payload. Parent is only set when present.
func (in Input) ToMap() map[string]interface{} {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	m := map[string]interface{}{
		"title":       in.Title,
		"description": in.Description,
		"type":        in.Type,
		"tags":        tags,
		"urgency":     in.Urgency,
		"importance":  in.Importance,
	}
	if in.Parent != "" {
		m["parent"] = in.Parent
	}
	return m
}

// Defaults are the field values used before any enhancement is applied.
type Defaults struct {
	Tags       []string
	Urgency    int
	Importance int
}

// DefaultDefaults returns the stock defaults: no tags, mid-scale scores.
func DefaultDefaults() Defaults {
	return Defaults{Tags: []string{}, Urgency: DefaultScore, Importance: DefaultScore}
}

// Normalize fills zero scores and clamps the rest into range.
func (d Defaults) Normalize() Defaults {
	out := Defaults{
		Tags:       append([]string{}, d.Tags...),
		Urgency:    d.Urgency,
		Importance: d.Importance,
	}
	if out.Urgency == 0 {
		out.Urgency = DefaultScore
	}
	if out.Importance == 0 {
		out.Importance = DefaultScore
	}
	out.Urgency = ClampScore(out.Urgency)
	out.Importance = ClampScore(out.Importance)
	return out
}

// Base builds the unenhanced record for a node's text.
func Base(text string, hasChildren bool, parent string, d Defaults) Input {
	d = d.Normalize()
	typ := TypeTask
	if hasChildren {
		typ = TypeProject
	}
	return Input{
		Title:       Truncate(text, TitleMaxRunes),
		Description: text,
		Type:        typ,
		Tags:        d.Tags,
		Urgency:     d.Urgency,
		Importance:  d.Importance,
		Parent:      parent,
	}
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// ClampScore forces a score into [MinScore, MaxScore].
func ClampScore(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// NormalizeType maps loose type names onto TypeProject/TypeTask.
// Unknown values return "".
func NormalizeType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "project", "projects", "goal", "epic":
		return TypeProject
	case "task", "tasks", "todo", "action", "item":
		return TypeTask
	default:
		return ""
	}
}
