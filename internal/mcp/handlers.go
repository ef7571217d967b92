package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/errors"
	"github.com/hpungsan/memo/internal/memo"
	"github.com/hpungsan/memo/internal/ops"
	"github.com/hpungsan/memo/internal/safety"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db         *sql.DB
	cfg        *config.Config
	classifier *safety.Classifier
}

// NewHandlers creates a new Handlers instance.
// A nil classifier uses the built-in rules.
func NewHandlers(db *sql.DB, cfg *config.Config, classifier *safety.Classifier) *Handlers {
	if classifier == nil {
		classifier = safety.Default()
	}
	return &Handlers{db: db, cfg: cfg, classifier: classifier}
}

// ListRequest represents the arguments for memo_list.
type ListRequest struct {
	Query string `json:"query,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// PrintRequest represents the arguments for memo_print.
type PrintRequest struct {
	Index *int `json:"index"`
}

// SaveRequest represents the arguments for memo_save.
type SaveRequest struct {
	Cmd string `json:"cmd"`
}

// ExportRequest represents the arguments for memo_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for memo_import.
type ImportRequest struct {
	Path string `json:"path"`
}

// PrintResponse is a resolved entry with its danger classification.
type PrintResponse struct {
	memo.Item
	Dangerous bool   `json:"dangerous"`
	Rule      string `json:"rule,omitempty"`
}

// HandleList handles the memo_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidArgument(err.Error())), nil
	}
	if input.Limit < 0 {
		return errorResult(errors.NewInvalidArgument("limit must not be negative")), nil
	}

	result, err := ops.List(ctx, h.db, h.cfg, ops.ListInput{
		Query: input.Query,
		Limit: input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePrint handles the memo_print tool call.
func (h *Handlers) HandlePrint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PrintRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidArgument(err.Error())), nil
	}
	if input.Index == nil {
		return errorResult(errors.NewInvalidArgument("index is required")), nil
	}

	e, err := ops.Resolve(ctx, h.db, *input.Index)
	if err != nil {
		return errorResult(err), nil
	}

	resp := PrintResponse{Item: e.ToItem(*input.Index)}
	if rule, ok := h.classifier.Match(e.Cmd); ok {
		resp.Dangerous = true
		resp.Rule = rule.Name
	}
	return successResult(resp)
}

// HandleSave handles the memo_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidArgument(err.Error())), nil
	}

	result, err := ops.MaybeSave(ctx, h.db, h.cfg, input.Cmd)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDump handles the memo_dump tool call.
func (h *Handlers) HandleDump(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Dump(ctx, h.db, h.cfg)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the memo_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidArgument(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the memo_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidArgument(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// decode round-trips the request arguments through JSON into a typed struct.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// errorResult converts an error into a tool result with IsError set.
// Details are omitted for INTERNAL errors so paths and SQL text stay private.
// A wrapped error keeps its wrapper text in the message.
func errorResult(err error) *mcp.CallToolResult {
	errorObj := map[string]any{
		"code":    errors.ErrInternal,
		"message": "an internal error occurred",
		"status":  500,
	}

	var memoErr *errors.MemoError
	if stderrors.As(err, &memoErr) {
		msg := memoErr.Message
		if err != error(memoErr) {
			msg = err.Error()
		}
		errorObj["code"] = memoErr.Code
		errorObj["message"] = msg
		errorObj["status"] = memoErr.Status
		if memoErr.Code != errors.ErrInternal && memoErr.Details != nil {
			errorObj["details"] = memoErr.Details
		}
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult wraps data in a JSON tool result.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
