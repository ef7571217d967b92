package mcp

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/safety"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "memo"

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
// No tool executes a command.
var toolRegistry = map[string]toolEntry{
	"memo_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"memo_print": {
		def:     printToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePrint },
	},
	"memo_save": {
		def:     saveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave },
	},
	"memo_dump": {
		def:     dumpToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDump },
	},
	"memo_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"memo_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
}

// AllToolNames returns every registered tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateDisabledTools returns the names that match no tool.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server exposing the memo tools.
// Tools listed in cfg.DisabledTools are not registered.
func NewServer(db *sql.DB, cfg *config.Config, classifier *safety.Classifier, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, classifier)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for _, name := range AllToolNames() {
		if disabled[name] {
			continue
		}
		s.AddTool(toolRegistry[name].def, toolRegistry[name].handler(h))
	}

	return s
}

// Run serves the memo tools over stdio until ctx is cancelled or stdin closes.
// Transport errors are logged through slog at error level.
func Run(ctx context.Context, db *sql.DB, cfg *config.Config, classifier *safety.Classifier, version string) error {
	s := server.NewStdioServer(NewServer(db, cfg, classifier, version))
	s.SetErrorLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError))
	return s.Listen(ctx, os.Stdin, os.Stdout)
}
