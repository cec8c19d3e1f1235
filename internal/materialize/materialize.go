// Package materialize turns a parsed outline into persisted records.
//
// Nodes are processed one at a time in pre-order. A child is only created
// after its parent's create call returned an ID, and that ID becomes the
// child's Parent.
package materialize

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/salmonumbrella/braindump/internal/outline"
	"github.com/salmonumbrella/braindump/internal/record"
)

// CreateFunc persists one record and returns its identifier.
type CreateFunc func(ctx context.Context, in record.Input) (string, error)

// EnhanceFunc returns optional field overrides for a node's text.
type EnhanceFunc func(ctx context.Context, text string) (*record.Enhancement, error)

// Policy decides what happens to the rest of the batch after a create failure.
type Policy int

const (
	// PolicyAbort stops the whole batch at the first create failure.
	PolicyAbort Policy = iota
	// PolicyContinue skips the failed node's subtree and keeps going.
	PolicyContinue
)

func (p Policy) String() string {
	switch p {
	case PolicyContinue:
		return "continue"
	default:
		return "abort"
	}
}

// ParsePolicy accepts "abort" or "continue". Empty means abort.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "abort":
		return PolicyAbort, nil
	case "continue":
		return PolicyContinue, nil
	default:
		return PolicyAbort, fmt.Errorf("invalid on-error policy %q (use abort or continue)", s)
	}
}

// Created describes one record written during a run.
type Created struct {
	ID     string `json:"id" yaml:"id"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Title  string `json:"title" yaml:"title"`
	Type   string `json:"type" yaml:"type"`
}

// Warning is a non-fatal problem with one node, such as a failed enhancement.
type Warning struct {
	Text    string `json:"text" yaml:"text"`
	Message string `json:"message" yaml:"message"`
}

// Failure is a node whose create call failed. Skipped counts its descendants
// that were never attempted.
type Failure struct {
	Text    string `json:"text" yaml:"text"`
	Parent  string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Skipped int    `json:"skipped" yaml:"skipped"`
	Err     error  `json:"-" yaml:"-"`
	Message string `json:"error" yaml:"error"`
}

// Result summarizes a run.
type Result struct {
	Total    int       `json:"total" yaml:"total"`
	Created  int       `json:"created" yaml:"created"`
	Skipped  int       `json:"skipped" yaml:"skipped"`
	Records  []Created `json:"records" yaml:"records"`
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Failures []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// PartialError reports that a run stopped or lost records before finishing.
type PartialError struct {
	Created int
	Total   int
	Err     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("created %d of %d records before an error occurred", e.Created, e.Total)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// Materializer walks a forest and creates one record per node.
type Materializer struct {
	create   CreateFunc
	enhance  EnhanceFunc
	policy   Policy
	defaults record.Defaults
	logger   *zap.Logger
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithEnhancer enables per-node enhancement. A nil func disables it.
func WithEnhancer(fn EnhanceFunc) Option {
	return func(m *Materializer) {
		m.enhance = fn
	}
}

// WithPolicy sets the create-failure policy.
func WithPolicy(p Policy) Option {
	return func(m *Materializer) {
		m.policy = p
	}
}

// WithDefaults sets the tags and scores used for unenhanced fields.
func WithDefaults(d record.Defaults) Option {
	return func(m *Materializer) {
		m.defaults = d.Normalize()
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(l *zap.Logger) Option {
	return func(m *Materializer) {
		if l != nil {
			m.logger = l
		}
	}
}

// New returns a Materializer that writes through create.
func New(create CreateFunc, opts ...Option) *Materializer {
	m := &Materializer{
		create:   create,
		policy:   PolicyAbort,
		defaults: record.DefaultDefaults(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// pending is a node waiting on the worklist with the ID its record will point at.
type pending struct {
	node   *outline.Node
	parent string
}

// Run creates records for every node of forest. Top-level records get parentID
// as their parent (empty means none).
//
// The returned Result is always populated. err is a *PartialError when a
// create call failed or ctx was cancelled.
func (m *Materializer) Run(ctx context.Context, forest []*outline.Node, parentID string) (Result, error) {
	res := Result{Total: outline.Count(forest), Records: []Created{}}
	if m.create == nil {
		return res, errors.New("materialize: no create function configured")
	}

	stack := make([]pending, 0, len(forest))
	pushAll := func(nodes []*outline.Node, parent string) {
		for i := len(nodes) - 1; i >= 0; i-- {
			stack = append(stack, pending{node: nodes[i], parent: parent})
		}
	}
	pushAll(forest, parentID)

	var firstErr error
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			res.Skipped += remaining(stack)
			return res, &PartialError{Created: res.Created, Total: res.Total, Err: err}
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := item.node

		in := record.Base(node.Text, node.HasChildren(), item.parent, m.defaults)
		if m.enhance != nil {
			in = m.applyEnhancement(ctx, node.Text, in, &res)
		}

		id, err := m.create(ctx, in)
		if err != nil {
			skipped := outline.Count(node.Children)
			res.Failures = append(res.Failures, Failure{
				Text:    node.Text,
				Parent:  item.parent,
				Skipped: skipped,
				Err:     err,
				Message: err.Error(),
			})
			m.logger.Warn("record create failed",
				zap.String("title", in.Title),
				zap.String("parent", item.parent),
				zap.Int("skipped", skipped),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("create %q: %w", in.Title, err)
			}
			if m.policy == PolicyAbort {
				res.Skipped += skipped + remaining(stack)
				return res, &PartialError{Created: res.Created, Total: res.Total, Err: firstErr}
			}
			res.Skipped += skipped
			continue
		}

		res.Created++
		res.Records = append(res.Records, Created{ID: id, Parent: item.parent, Title: in.Title, Type: in.Type})
		m.logger.Debug("record created", zap.String("id", id), zap.String("parent", item.parent), zap.String("type", in.Type))

		pushAll(node.Children, id)
	}

	if firstErr != nil {
		return res, &PartialError{Created: res.Created, Total: res.Total, Err: firstErr}
	}
	return res, nil
}

func (m *Materializer) applyEnhancement(ctx context.Context, text string, base record.Input, res *Result) record.Input {
	enh, err := m.enhance(ctx, text)
	if err != nil {
		res.Warnings = append(res.Warnings, Warning{Text: record.Truncate(text, 60), Message: err.Error()})
		m.logger.Warn("enhancement failed, using defaults",
			zap.String("title", base.Title),
			zap.Error(err),
		)
		return base
	}
	return enh.Apply(base)
}

// remaining counts the nodes still on the worklist, descendants included.
func remaining(stack []pending) int {
	n := 0
	for _, p := range stack {
		n += 1 + outline.Count(p.node.Children)
	}
	return n
}

// Materialize runs a default Materializer and returns how many records were
// created. enhance may be nil. On failure the count is still the number of
// records written before it.
func Materialize(ctx context.Context, forest []*outline.Node, create CreateFunc, enhance EnhanceFunc, parentID string) (int, error) {
	res, err := New(create, WithEnhancer(enhance)).Run(ctx, forest, parentID)
	return res.Created, err
}
