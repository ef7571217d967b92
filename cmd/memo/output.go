package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/memo/internal/memo"
	"github.com/hpungsan/memo/internal/safety"
)

const usageText = `usage:
  memo                   save last command and list
  memo <query>           list filtered commands
  memo <N>               copy command N
  memo run <N>           execute command N
  memo print <N>         print command N
  memo list [query]      list commands
  memo save [cmd...]     save last or explicit command
  memo export [--path]   export commands to JSONL
  memo import --path p   import commands from JSONL
  memo mcp               serve tools over MCP stdio
  memo serve             start the local web viewer
`

// listStyles colors listings on a terminal.
type listStyles struct {
	Index     lipgloss.Style
	Dangerous lipgloss.Style
}

func defaultListStyles() listStyles {
	return listStyles{
		Index: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		Dangerous: lipgloss.NewStyle().
			Foreground(lipgloss.Color("167")), // Muted red
	}
}

// printListing writes one "[index] cmd" line per item, or "no entries".
// When styled, indexes are dimmed and dangerous commands are highlighted.
func printListing(w io.Writer, items []memo.Item, styled bool, classifier *safety.Classifier) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no entries")
		return
	}

	if !styled {
		for _, item := range items {
			fmt.Fprintf(w, "[%d] %s\n", item.Index, item.Cmd)
		}
		return
	}

	styles := defaultListStyles()
	for _, item := range items {
		cmd := item.Cmd
		if classifier != nil && classifier.IsDangerous(cmd) {
			cmd = styles.Dangerous.Render(cmd)
		}
		fmt.Fprintf(w, "%s %s\n", styles.Index.Render(fmt.Sprintf("[%d]", item.Index)), cmd)
	}
}

// printTabbed writes "index<TAB>cmd" lines for completion scripts.
func printTabbed(w io.Writer, items []memo.Item) {
	for _, item := range items {
		fmt.Fprintf(w, "%d\t%s\n", item.Index, item.Cmd)
	}
}

// outputJSON marshals result as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
