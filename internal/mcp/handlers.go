package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/salmonumbrella/braindump/internal/enhance"
	"github.com/salmonumbrella/braindump/internal/materialize"
	"github.com/salmonumbrella/braindump/internal/outline"
	"github.com/salmonumbrella/braindump/internal/record"
	"github.com/salmonumbrella/braindump/internal/store"
)

// Error codes returned in tool error payloads.
const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeNotFound       = "NOT_FOUND"
	codeUnavailable    = "UNAVAILABLE"
	codePartial        = "PARTIAL_FAILURE"
	codeInternal       = "INTERNAL"
)

var parseToolDef = mcp.NewTool("outline_parse",
	mcp.WithDescription("Parse an indented brain dump into a tree of items without saving anything."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Outline text. Indentation sets nesting; bullet and number markers are stripped."),
	),
	mcp.WithString("format",
		mcp.Description("Input format: text (default) or markdown"),
	),
)

var importToolDef = mcp.NewTool("outline_import",
	mcp.WithDescription("Parse an outline and create one record per item, linking each child to its parent."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Outline text to import"),
	),
	mcp.WithString("format",
		mcp.Description("Input format: text (default) or markdown"),
	),
	mcp.WithString("parent_id",
		mcp.Description("Existing record to attach top-level items to"),
	),
	mcp.WithBoolean("enhance",
		mcp.Description("Categorize each item with the configured model before saving"),
	),
	mcp.WithString("on_error",
		mcp.Description("abort (default) stops at the first failed create; continue skips the failed subtree"),
	),
)

var getToolDef = mcp.NewTool("record_get",
	mcp.WithDescription("Fetch one record by ID."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Record ID"),
	),
)

var listToolDef = mcp.NewTool("record_list",
	mcp.WithDescription("List records in creation order, optionally only the children of one parent."),
	mcp.WithString("parent",
		mcp.Description("Only list children of this record"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Max results (default: 100)"),
	),
)

// Handlers holds the collaborators shared by all tool handlers.
type Handlers struct {
	store    store.Store
	enhancer enhance.Enhancer
	defaults record.Defaults
	logger   *zap.Logger
}

// NewHandlers creates Handlers over st. enhancer may be nil.
func NewHandlers(st store.Store, enhancer enhance.Enhancer, defaults record.Defaults, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		store:    st,
		enhancer: enhancer,
		defaults: defaults.Normalize(),
		logger:   logger,
	}
}

// ParseRequest represents the arguments for outline_parse.
type ParseRequest struct {
	Text   string `json:"text"`
	Format string `json:"format,omitempty"`
}

// ImportRequest represents the arguments for outline_import.
type ImportRequest struct {
	Text     string `json:"text"`
	Format   string `json:"format,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
	Enhance  bool   `json:"enhance,omitempty"`
	OnError  string `json:"on_error,omitempty"`
}

// GetRequest represents the arguments for record_get.
type GetRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for record_list.
type ListRequest struct {
	Parent string `json:"parent,omitempty"`
	Limit  *int   `json:"limit,omitempty"`
}

// ParseResult is returned by outline_parse.
type ParseResult struct {
	Count int             `json:"count"`
	Nodes []*outline.Node `json:"nodes"`
}

// HandleParse handles the outline_parse tool call.
func (h *Handlers) HandleParse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ParseRequest](req)
	if err != nil {
		return errorResult(codeInvalidRequest, err.Error(), nil), nil
	}
	forest, err := outline.ParseFormat(input.Text, input.Format)
	if err != nil {
		return errorResult(codeInvalidRequest, err.Error(), nil), nil
	}
	return successResult(ParseResult{Count: outline.Count(forest), Nodes: forest})
}

// HandleImport handles the outline_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(codeInvalidRequest, err.Error(), nil), nil
	}
	if strings.TrimSpace(input.Text) == "" {
		return errorResult(codeInvalidRequest, "text is required", nil), nil
	}
	forest, err := outline.ParseFormat(input.Text, input.Format)
	if err != nil {
		return errorResult(codeInvalidRequest, err.Error(), nil), nil
	}
	policy, err := materialize.ParsePolicy(input.OnError)
	if err != nil {
		return errorResult(codeInvalidRequest, err.Error(), nil), nil
	}
	if input.Enhance && h.enhancer == nil {
		return errorResult(codeUnavailable, enhance.ErrDisabled.Error(), nil), nil
	}

	opts := []materialize.Option{
		materialize.WithPolicy(policy),
		materialize.WithDefaults(h.defaults),
		materialize.WithLogger(h.logger),
	}
	if input.Enhance {
		opts = append(opts, materialize.WithEnhancer(enhance.Func(h.enhancer)))
	}

	res, err := materialize.New(h.store.Create, opts...).Run(ctx, forest, input.ParentID)
	if err != nil {
		var partial *materialize.PartialError
		if errors.As(err, &partial) {
			return errorResult(codePartial, err.Error(), res), nil
		}
		h.logger.Error("outline import failed", zap.Error(err))
		return errorResult(codeInternal, "an internal error occurred", nil), nil
	}
	return successResult(res)
}

// HandleGet handles the record_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(codeInvalidRequest, err.Error(), nil), nil
	}
	if input.ID == "" {
		return errorResult(codeInvalidRequest, "id is required", nil), nil
	}
	rec, err := h.store.Get(ctx, input.ID)
	if errors.Is(err, store.ErrNotFound) {
		return errorResult(codeNotFound, fmt.Sprintf("record %s not found", input.ID), nil), nil
	}
	if err != nil {
		h.logger.Error("record get failed", zap.String("id", input.ID), zap.Error(err))
		return errorResult(codeInternal, "an internal error occurred", nil), nil
	}
	return successResult(rec)
}

// HandleList handles the record_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(codeInvalidRequest, err.Error(), nil), nil
	}
	opts := store.ListOptions{Parent: input.Parent}
	if input.Limit != nil {
		if *input.Limit < 0 {
			return errorResult(codeInvalidRequest, "limit must be non-negative", nil), nil
		}
		opts.Limit = *input.Limit
	}
	recs, err := h.store.List(ctx, opts)
	if err != nil {
		h.logger.Error("record list failed", zap.Error(err))
		return errorResult(codeInternal, "an internal error occurred", nil), nil
	}
	if recs == nil {
		recs = []record.Record{}
	}
	return successResult(map[string]any{"records": recs})
}

// errorResult builds a tool error carrying a code and an optional partial result.
func errorResult(code, message string, details any) *mcp.CallToolResult {
	errorObj := map[string]any{
		"code":    code,
		"message": message,
	}
	if details != nil {
		errorObj["details"] = details
	}
	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
