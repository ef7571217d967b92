package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/db"
	"github.com/hpungsan/memo/internal/errors"
)

// testSetup creates a temporary database and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config, func()) {
	t.Helper()

	baseDir := t.TempDir()
	database, err := db.Init(baseDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.BaseDir = baseDir
	cfg.AllowUnsafePaths = true // temp dirs in tests

	return database, cfg, func() { database.Close() }
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func seedCommands(t *testing.T, h *Handlers, cmds ...string) {
	t.Helper()
	for _, cmd := range cmds {
		result, err := h.HandleSave(context.Background(), makeRequest(map[string]any{"cmd": cmd}))
		if err != nil {
			t.Fatalf("HandleSave returned error: %v", err)
		}
		out := parseOutput(t, result)
		if out["saved"] != true {
			t.Fatalf("save %q not saved: %v", cmd, out)
		}
	}
}

func TestHandleSave(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()
	h := NewHandlers(database, cfg, nil)

	t.Run("saves new command", func(t *testing.T) {
		result, err := h.HandleSave(context.Background(), makeRequest(map[string]any{"cmd": "ls -la"}))
		if err != nil {
			t.Fatalf("HandleSave returned error: %v", err)
		}
		out := parseOutput(t, result)
		if out["saved"] != true {
			t.Errorf("saved = %v, want true", out["saved"])
		}
		if out["id"] == nil {
			t.Error("expected id in response")
		}
	})

	t.Run("duplicate skipped", func(t *testing.T) {
		result, _ := h.HandleSave(context.Background(), makeRequest(map[string]any{"cmd": "ls -la"}))
		out := parseOutput(t, result)
		if out["saved"] != false {
			t.Errorf("saved = %v, want false", out["saved"])
		}
		if out["reason"] != "duplicate" {
			t.Errorf("reason = %v, want duplicate", out["reason"])
		}
	})

	t.Run("blank skipped", func(t *testing.T) {
		result, _ := h.HandleSave(context.Background(), makeRequest(map[string]any{"cmd": "   "}))
		out := parseOutput(t, result)
		if out["reason"] != "empty" {
			t.Errorf("reason = %v, want empty", out["reason"])
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		result, _ := h.HandleSave(context.Background(), makeRequest(map[string]any{"cmd": 42}))
		if !result.IsError {
			t.Fatal("expected error result")
		}
		assertErrorCode(t, result, "INVALID_ARGUMENT")
	})
}

func TestHandleList(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()
	h := NewHandlers(database, cfg, nil)
	seedCommands(t, h, "git status", "ls", "git push")

	t.Run("filter keeps full-order indexes", func(t *testing.T) {
		result, err := h.HandleList(context.Background(), makeRequest(map[string]any{"query": "GIT"}))
		if err != nil {
			t.Fatalf("HandleList returned error: %v", err)
		}
		out := parseOutput(t, result)
		items := out["items"].([]any)
		if len(items) != 2 {
			t.Fatalf("len(items) = %d, want 2", len(items))
		}
		first := items[0].(map[string]any)
		second := items[1].(map[string]any)
		if first["index"] != float64(1) || first["cmd"] != "git push" {
			t.Errorf("items[0] = %v", first)
		}
		if second["index"] != float64(3) || second["cmd"] != "git status" {
			t.Errorf("items[1] = %v", second)
		}
	})

	t.Run("limit", func(t *testing.T) {
		result, _ := h.HandleList(context.Background(), makeRequest(map[string]any{"limit": 1}))
		out := parseOutput(t, result)
		if items := out["items"].([]any); len(items) != 1 {
			t.Errorf("len(items) = %d, want 1", len(items))
		}
	})

	t.Run("negative limit rejected", func(t *testing.T) {
		result, _ := h.HandleList(context.Background(), makeRequest(map[string]any{"limit": -1}))
		assertErrorCode(t, result, "INVALID_ARGUMENT")
	})

	t.Run("no matches is empty array", func(t *testing.T) {
		result, _ := h.HandleList(context.Background(), makeRequest(map[string]any{"query": "nomatch"}))
		out := parseOutput(t, result)
		items, ok := out["items"].([]any)
		if !ok || len(items) != 0 {
			t.Errorf("items = %v, want []", out["items"])
		}
	})
}

func TestHandlePrint(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()
	h := NewHandlers(database, cfg, nil)
	seedCommands(t, h, "rm -rf build", "make")

	t.Run("safe command", func(t *testing.T) {
		result, _ := h.HandlePrint(context.Background(), makeRequest(map[string]any{"index": 1}))
		out := parseOutput(t, result)
		if out["cmd"] != "make" {
			t.Errorf("cmd = %v, want make", out["cmd"])
		}
		if out["dangerous"] != false {
			t.Errorf("dangerous = %v, want false", out["dangerous"])
		}
	})

	t.Run("dangerous command reports rule", func(t *testing.T) {
		result, _ := h.HandlePrint(context.Background(), makeRequest(map[string]any{"index": 2}))
		out := parseOutput(t, result)
		if out["dangerous"] != true || out["rule"] != "rm" {
			t.Errorf("out = %v, want dangerous rm", out)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		result, _ := h.HandlePrint(context.Background(), makeRequest(map[string]any{"index": 3}))
		assertErrorCode(t, result, "NOT_FOUND")
	})

	t.Run("zero", func(t *testing.T) {
		result, _ := h.HandlePrint(context.Background(), makeRequest(map[string]any{"index": 0}))
		assertErrorCode(t, result, "NOT_FOUND")
	})

	t.Run("missing index", func(t *testing.T) {
		result, _ := h.HandlePrint(context.Background(), makeRequest(map[string]any{}))
		assertErrorCode(t, result, "INVALID_ARGUMENT")
	})

	t.Run("fractional index", func(t *testing.T) {
		result, _ := h.HandlePrint(context.Background(), makeRequest(map[string]any{"index": 1.5}))
		assertErrorCode(t, result, "INVALID_ARGUMENT")
	})
}

func TestHandleDump(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()
	h := NewHandlers(database, cfg, nil)

	cmds := make([]string, 15)
	for i := range cmds {
		cmds[i] = fmt.Sprintf("echo %d", i)
	}
	seedCommands(t, h, cmds...)

	result, err := h.HandleDump(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleDump returned error: %v", err)
	}
	out := parseOutput(t, result)
	if items := out["items"].([]any); len(items) != 15 {
		t.Errorf("len(items) = %d, want 15", len(items))
	}
}

func TestHandleExportImport(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()
	h := NewHandlers(database, cfg, nil)
	seedCommands(t, h, "git status", "make")

	exportPath := filepath.Join(t.TempDir(), "export.jsonl")
	result, err := h.HandleExport(context.Background(), makeRequest(map[string]any{"path": exportPath}))
	if err != nil {
		t.Fatalf("HandleExport returned error: %v", err)
	}
	out := parseOutput(t, result)
	if out["count"] != float64(2) {
		t.Errorf("count = %v, want 2", out["count"])
	}

	other, otherCfg, otherCleanup := testSetup(t)
	defer otherCleanup()
	h2 := NewHandlers(other, otherCfg, nil)

	result, err = h2.HandleImport(context.Background(), makeRequest(map[string]any{"path": exportPath}))
	if err != nil {
		t.Fatalf("HandleImport returned error: %v", err)
	}
	out = parseOutput(t, result)
	if out["imported"] != float64(2) {
		t.Errorf("imported = %v, want 2", out["imported"])
	}

	t.Run("bad extension", func(t *testing.T) {
		result, _ := h.HandleExport(context.Background(), makeRequest(map[string]any{"path": filepath.Join(t.TempDir(), "x.json")}))
		assertErrorCode(t, result, "INVALID_ARGUMENT")
	})

	t.Run("missing import file", func(t *testing.T) {
		result, _ := h.HandleImport(context.Background(), makeRequest(map[string]any{"path": filepath.Join(t.TempDir(), "none.jsonl")}))
		assertErrorCode(t, result, "FILE_NOT_FOUND")
	})
}

func TestServerRegistration(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	s := NewServer(database, cfg, nil, "test")
	tools := s.ListTools()

	expected := []string{"memo_list", "memo_print", "memo_save", "memo_dump", "memo_export", "memo_import"}
	if len(tools) != len(expected) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expected))
	}
	for _, name := range expected {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
	for name := range tools {
		if strings.Contains(name, "run") || strings.Contains(name, "exec") {
			t.Errorf("no execution tool may be registered, found %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = []string{"memo_save", "memo_import", "memo_import"}
	s := NewServer(database, cfg, nil, "test")
	tools := s.ListTools()

	if len(tools) != 4 {
		t.Errorf("registered tool count = %d, want 4", len(tools))
	}
	for _, name := range []string{"memo_save", "memo_import"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
	if s.GetTool("memo_list") == nil {
		t.Error("memo_list should be registered")
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = AllToolNames()
	s := NewServer(database, cfg, nil, "test")

	if tools := s.ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"memo_save", "memo_dump"}, 0},
		{"one unknown", []string{"memo_save", "memo_run"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if unknown := ValidateDisabledTools(tt.input); len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 6 {
		t.Errorf("AllToolNames() returned %d names, want 6", len(names))
	}
	if names[0] != "memo_dump" {
		t.Errorf("AllToolNames() not sorted: %v", names)
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrapped := fmt.Errorf("resolve 7: %w", errors.NewNotFound(7))

	errObj := errorObject(t, errorResult(wrapped))
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if msg := errObj["message"].(string); !strings.Contains(msg, "resolve 7") {
		t.Errorf("message should contain wrapper context, got: %s", msg)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	errObj := errorObject(t, errorResult(errors.NewNotFound(3)))
	if errObj["status"] != float64(404) {
		t.Errorf("status=%v, want 404", errObj["status"])
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != string(errors.ErrInternal) {
		t.Errorf("code=%v, want INTERNAL", errObj["code"])
	}
	if errObj["message"] != "an internal error occurred" {
		t.Errorf("message=%v", errObj["message"])
	}
}

// Helper functions

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Errorf("expected error result, got: %s", extractErrorMessage(result))
		return
	}
	code, _ := errorObject(t, result)["code"].(string)
	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}
