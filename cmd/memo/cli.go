package main

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/memo/internal/errors"
	"github.com/hpungsan/memo/internal/mcp"
	"github.com/hpungsan/memo/internal/ops"
	"github.com/hpungsan/memo/internal/web"
)

// newCLIApp creates the CLI application with all commands.
// Flag parsing is off for the root and for commands taking free text,
// so queries and saved commands may start with "-".
func newCLIApp(d *deps) *cli.App {
	app := &cli.App{
		Name:            "memo",
		Usage:           "Remember and recall shell commands",
		Version:         Version,
		HideHelp:        true,
		HideVersion:     true,
		SkipFlagParsing: true,
		Reader:          d.stdin,
		Writer:          d.stdout,
		ErrWriter:       d.stderr,
		Action:          rootAction(d),
		Commands: []*cli.Command{
			listCmd(d),
			saveCmd(d),
			printCmd(d),
			runCmd(d),
			dumpCmd(d),
			exportCmd(d),
			importCmd(d),
			mcpCmd(d),
			serveCmd(d),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// runApp runs the app and maps its error to a process exit code.
// cli.Exit errors carry their own code; anything else goes through errors.ExitCode.
func runApp(app *cli.App, args []string) int {
	err := app.Run(args)
	if err == nil {
		return errors.ExitOK
	}

	var coder cli.ExitCoder
	if stderrors.As(err, &coder) {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(app.ErrWriter, msg)
		}
		return coder.ExitCode()
	}

	fmt.Fprintf(app.ErrWriter, "error: %v\n", err)
	return errors.ExitCode(err)
}

// rootAction handles `memo`, `memo <N>` and `memo <query...>`.
func rootAction(d *deps) cli.ActionFunc {
	return func(c *cli.Context) error {
		args := c.Args().Slice()

		if isHelpOrVersion(args) {
			if args[0] == "--version" {
				fmt.Fprintf(d.stdout, "memo %s\n", Version)
				return nil
			}
			fmt.Fprint(d.stdout, usageText)
			return nil
		}

		if len(args) == 0 {
			observe(c, d)
			return listAction(c, d, "")
		}

		if len(args) == 1 && ops.IsIndex(args[0]) {
			if index, err := ops.ParseIndex(args[0]); err == nil {
				return copyAction(c, d, index)
			}
		}

		return listAction(c, d, strings.Join(args, " "))
	}
}

// observe saves the last history command. Failures never block the listing.
func observe(c *cli.Context, d *deps) {
	out, err := ops.Observe(c.Context, d.db, d.cfg, d.history)
	switch {
	case errors.Is(err, errors.ErrHistoryUnavailable):
		slog.Debug("no history command", "error", err)
	case err != nil:
		slog.Warn("auto-save failed", "error", err)
	default:
		slog.Debug("observed history command", "saved", out.Saved, "reason", out.Reason)
	}
}

// listAction prints a listing. Read failures print as an empty listing.
func listAction(c *cli.Context, d *deps, query string) error {
	out, err := ops.List(c.Context, d.db, d.cfg, ops.ListInput{Query: query})
	if err != nil {
		slog.Warn("listing failed", "error", err)
		out = &ops.ListOutput{}
	}
	printListing(d.stdout, out.Items, d.styled, d.classifier)
	return nil
}

// copyAction copies entry index to the clipboard, printing it when no clipboard works.
func copyAction(c *cli.Context, d *deps, index int) error {
	out, err := ops.Copy(c.Context, d.db, d.clipboard, index)
	if errors.Is(err, errors.ErrClipboardUnavailable) {
		slog.Debug("clipboard unavailable", "error", err)
		fmt.Fprintln(d.stdout, out.Cmd)
		fmt.Fprintln(d.stderr, "warning: clipboard unavailable")
		return nil
	}
	if err != nil {
		return outputError(err)
	}
	fmt.Fprintf(d.stdout, "copied [%d]\n", index)
	return nil
}

// listCmd creates the list command.
func listCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:            "list",
		Usage:           "List commands, optionally filtered",
		ArgsUsage:       "[query...]",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			return listAction(c, d, strings.Join(c.Args().Slice(), " "))
		},
	}
}

// saveCmd creates the save command.
// Save reports success of intent: storage failures are logged, not surfaced.
func saveCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:            "save",
		Usage:           "Save the given command, or the last history command",
		ArgsUsage:       "[cmd...]",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			var (
				out *ops.SaveOutput
				err error
			)
			if c.NArg() > 0 {
				out, err = ops.MaybeSave(c.Context, d.db, d.cfg, strings.Join(c.Args().Slice(), " "))
			} else {
				out, err = ops.Observe(c.Context, d.db, d.cfg, d.history)
			}

			switch {
			case errors.Is(err, errors.ErrHistoryUnavailable):
				fmt.Fprintln(d.stdout, "no history command found")
				return nil
			case err != nil:
				slog.Warn("save failed", "error", err)
			default:
				slog.Debug("save", "saved", out.Saved, "reason", out.Reason)
			}
			fmt.Fprintln(d.stdout, "saved")
			return nil
		},
	}
}

// printCmd creates the print command.
func printCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:            "print",
		Usage:           "Print command N",
		ArgsUsage:       "<N>",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			index, err := indexArg(c)
			if err != nil {
				return usageError(d, err)
			}

			e, err := ops.Resolve(c.Context, d.db, index)
			if err != nil {
				return outputError(err)
			}
			fmt.Fprintln(d.stdout, e.Cmd)
			return nil
		},
	}
}

// runCmd creates the run command. The process exits with the command's code.
func runCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:            "run",
		Usage:           "Execute command N",
		ArgsUsage:       "<N>",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			index, err := indexArg(c)
			if err != nil {
				return usageError(d, err)
			}

			gate := ops.Gate{Classifier: d.classifier, Confirmer: d.confirmer}
			out, err := ops.Run(c.Context, d.db, gate, d.executor, ops.RunInput{Index: index})
			if err != nil {
				return outputError(err)
			}
			if out.ExitCode != 0 {
				return cli.Exit("", out.ExitCode)
			}
			return nil
		},
	}
}

// dumpCmd creates the hidden _list command used by shell completion.
func dumpCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:   "_list",
		Usage:  "Print the whole log as index<TAB>cmd",
		Hidden: true,
		Action: func(c *cli.Context) error {
			out, err := ops.Dump(c.Context, d.db, d.cfg)
			if err != nil {
				slog.Warn("dump failed", "error", err)
				return nil
			}
			printTabbed(d.stdout, out.Items)
			return nil
		},
	}
}

// exportCmd creates the export command.
func exportCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export commands to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: <state>/memo/exports/memo-<time>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return listAction(c, d, commandQuery(c))
			}
			output, err := ops.Export(c.Context, d.db, d.cfg, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(d.stdout, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Append commands from a JSONL export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Import file path (required)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return listAction(c, d, commandQuery(c))
			}
			output, err := ops.Import(c.Context, d.db, d.cfg, ops.ImportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(d.stdout, output)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve memo tools over MCP stdio",
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return listAction(c, d, commandQuery(c))
			}
			if unknown := mcp.ValidateDisabledTools(d.cfg.DisabledTools); len(unknown) > 0 {
				slog.Warn("unknown tools in disabled_tools", "tools", unknown)
			}
			if err := mcp.Run(c.Context, d.db, d.cfg, d.classifier, Version); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the read-only web viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: web.DefaultBind, Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: web.DefaultPort, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return listAction(c, d, commandQuery(c))
			}
			srv, err := web.NewServer(d.db, d.cfg, d.classifier, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(err)
			}
			if err := web.Run(c.Context, srv); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// Helper functions

// commandQuery rebuilds `memo <command> <words...>` as a query. export, import,
// mcp and serve take no positionals, so extra words mean the user is searching.
func commandQuery(c *cli.Context) string {
	return strings.Join(append([]string{c.Command.Name}, c.Args().Slice()...), " ")
}

// indexArg parses the single <N> argument of print and run.
func indexArg(c *cli.Context) (int, error) {
	if c.NArg() != 1 {
		return 0, errors.NewInvalidArgument("expected exactly one index")
	}
	return ops.ParseIndex(c.Args().First())
}

// usageError prints usage and exits with the invalid-argument code.
func usageError(d *deps, err error) error {
	slog.Debug("bad arguments", "error", err)
	fmt.Fprint(d.stdout, usageText)
	return cli.Exit("", errors.ExitInvalidArg)
}

// outputError formats err for the CLI and picks the exit code.
// Not-found and declines use fixed short messages.
func outputError(err error) error {
	code := errors.ExitCode(err)

	switch {
	case errors.Is(err, errors.ErrNotFound):
		return cli.Exit("not found", code)
	case errors.Is(err, errors.ErrDeclined):
		return cli.Exit("", code)
	}

	return cli.Exit(errorMessage(err), code)
}

// errorMessage renders err for stderr: "[CODE] message" for coded errors.
func errorMessage(err error) string {
	var memoErr *errors.MemoError
	if stderrors.As(err, &memoErr) {
		return fmt.Sprintf("[%s] %s", memoErr.Code, memoErr.Message)
	}
	return "error: " + err.Error()
}
