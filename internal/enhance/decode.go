package enhance

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/salmonumbrella/braindump/internal/record"
)

// Decode parses a loosely typed provider reply into an Enhancement.
//
// It tolerates Markdown code fences and text around the object, scores given
// as numbers or numeric strings, and tags given as an array or a
// comma-separated string. Unknown keys are ignored; unusable values are dropped.
func Decode(raw string) (*record.Enhancement, error) {
	body := extractObject(raw)
	if body == "" {
		return nil, errors.New("no JSON object in enhancement reply")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse enhancement reply: %w", err)
	}

	enh := &record.Enhancement{}
	if s, ok := stringField(fields, "title"); ok {
		enh.Title = &s
	}
	if s, ok := stringField(fields, "description"); ok {
		enh.Description = &s
	}
	if s, ok := stringField(fields, "type"); ok {
		if t := record.NormalizeType(s); t != "" {
			enh.Type = &t
		}
	}
	enh.Tags = tagsField(fields, "tags")
	if v, ok := scoreField(fields, "urgency"); ok {
		enh.Urgency = &v
	}
	if v, ok := scoreField(fields, "importance"); ok {
		enh.Importance = &v
	}
	return enh, nil
}

// extractObject returns the outermost {...} span, after dropping code fences.
func extractObject(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func tagsField(fields map[string]json.RawMessage, key string) []string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return strings.Split(joined, ",")
	}
	return nil
}

func scoreField(fields map[string]json.RawMessage, key string) (int, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	n = math.Max(record.MinScore, math.Min(record.MaxScore, n))
	return int(math.Round(n)), true
}
