package record

import "strings"

// Enhancement holds the optional fields an enhancer may infer from raw text.
// A nil pointer or an empty slice means the field is absent.
type Enhancement struct {
	Title       *string  `json:"title,omitempty" yaml:"title,omitempty"`
	Description *string  `json:"description,omitempty" yaml:"description,omitempty"`
	Type        *string  `json:"type,omitempty" yaml:"type,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Urgency     *int     `json:"urgency,omitempty" yaml:"urgency,omitempty"`
	Importance  *int     `json:"importance,omitempty" yaml:"importance,omitempty"`
}

// Apply overlays the present fields of e onto base and returns the result.
// Blank title or description fall back to the base values; Parent is never touched.
func (e *Enhancement) Apply(base Input) Input {
	if e == nil {
		return base
	}
	out := base
	if e.Title != nil {
		if title := strings.TrimSpace(*e.Title); title != "" {
			out.Title = Truncate(title, TitleMaxRunes)
		}
	}
	if e.Description != nil {
		if desc := strings.TrimSpace(*e.Description); desc != "" {
			out.Description = desc
		}
	}
	if e.Type != nil {
		if typ := NormalizeType(*e.Type); typ != "" {
			out.Type = typ
		}
	}
	if tags := cleanTags(e.Tags); len(tags) > 0 {
		out.Tags = tags
	}
	if e.Urgency != nil {
		out.Urgency = ClampScore(*e.Urgency)
	}
	if e.Importance != nil {
		out.Importance = ClampScore(*e.Importance)
	}
	return out
}

// Empty reports whether the enhancement carries no usable field.
func (e *Enhancement) Empty() bool {
	if e == nil {
		return true
	}
	return e.Title == nil && e.Description == nil && e.Type == nil &&
		len(cleanTags(e.Tags)) == 0 && e.Urgency == nil && e.Importance == nil
}

func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#")))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
