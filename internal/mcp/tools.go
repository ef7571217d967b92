package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listToolDef = mcp.NewTool("memo_list",
	mcp.WithDescription("List the most recent saved shell commands. "+
		"Each item carries its relative index (1 = most recent); indexes always count the whole log, "+
		"so a filtered listing may skip numbers."),
	mcp.WithString("query",
		mcp.Description("Case-insensitive substring filter on the command text")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of items (default 10, capped at the store capacity)"),
		mcp.Min(0)),
	mcp.WithReadOnlyHintAnnotation(true),
)

var printToolDef = mcp.NewTool("memo_print",
	mcp.WithDescription("Return the command at a relative index, with its danger classification. "+
		"Never executes the command."),
	mcp.WithNumber("index",
		mcp.Required(),
		mcp.Description("Relative index, 1 = most recent"),
		mcp.Min(1)),
	mcp.WithReadOnlyHintAnnotation(true),
)

var saveToolDef = mcp.NewTool("memo_save",
	mcp.WithDescription("Save a command to the log. Skipped when it is blank or identical to the most recent entry."),
	mcp.WithString("cmd",
		mcp.Required(),
		mcp.Description("Literal command text")),
	mcp.WithDestructiveHintAnnotation(false),
)

var dumpToolDef = mcp.NewTool("memo_dump",
	mcp.WithDescription("Return the entire log, most recent first."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("memo_export",
	mcp.WithDescription("Write the log to a JSONL file, oldest first. "+
		"The file must sit directly in the exports directory or an allowed path."),
	mcp.WithString("path",
		mcp.Description("Destination .jsonl path (default: <state>/memo/exports/memo-<timestamp>.jsonl)")),
	mcp.WithDestructiveHintAnnotation(false),
)

var importToolDef = mcp.NewTool("memo_import",
	mcp.WithDescription("Append the entries of a JSONL export to the log, oldest first."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Source .jsonl path")),
	mcp.WithDestructiveHintAnnotation(false),
)
