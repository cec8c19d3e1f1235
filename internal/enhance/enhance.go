// Package enhance asks a language model to categorize brain-dump lines.
package enhance

import (
	"context"
	"errors"

	"github.com/salmonumbrella/braindump/internal/record"
)

// ErrDisabled is returned by callers that need an enhancer when none is configured.
var ErrDisabled = errors.New("enhancement is not configured")

// Enhancer returns optional field overrides for one line of text.
type Enhancer interface {
	Enhance(ctx context.Context, text string) (*record.Enhancement, error)
}

// Func adapts an Enhancer to the materializer's callback shape. A nil
// Enhancer yields a nil func, which disables enhancement.
func Func(e Enhancer) func(ctx context.Context, text string) (*record.Enhancement, error) {
	if e == nil {
		return nil
	}
	return e.Enhance
}

// Prompt is the instruction sent with every line.
const Prompt = `You categorize short items from a personal brain dump.
Reply with a single JSON object and nothing else, using these keys:
  "title": a concise title (at most 100 characters),
  "description": the item restated clearly,
  "type": "project" for multi-step outcomes, otherwise "task",
  "tags": up to 5 short lowercase tags,
  "urgency": integer 1-10,
  "importance": integer 1-10.
Omit any key you cannot infer.`
