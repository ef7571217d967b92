package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/hpungsan/memo/internal/clipboard"
	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/history"
	"github.com/hpungsan/memo/internal/safety"
	"github.com/hpungsan/memo/internal/shell"
)

// deps is everything a command needs for one invocation.
// Tests build it directly with fakes and buffers.
type deps struct {
	db  *sql.DB
	cfg *config.Config

	history    history.Source
	clipboard  clipboard.Writer
	executor   shell.Executor
	confirmer  safety.Confirmer
	classifier *safety.Classifier

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// styled enables lipgloss styling of listings.
	styled bool
}

// newDeps wires the real collaborators to the process's standard streams.
func newDeps(database *sql.DB, cfg *config.Config) (*deps, error) {
	classifier, err := safety.WithPatterns(cfg.DangerPatterns)
	if err != nil {
		return nil, fmt.Errorf("danger_patterns: %w", err)
	}

	stdoutTTY := isTerminal(os.Stdout)
	var terminal io.Writer
	if stdoutTTY {
		terminal = os.Stdout
	}

	return &deps{
		db:         database,
		cfg:        cfg,
		history:    history.NewFileSource(cfg.HistoryFiles),
		clipboard:  clipboard.NewSystem(cfg, terminal),
		executor:   shell.New(cfg.Shell),
		confirmer:  safety.PromptConfirmer{In: os.Stdin, Out: os.Stdout},
		classifier: classifier,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		styled:     stdoutTTY && os.Getenv("NO_COLOR") == "",
	}, nil
}

// isTerminal returns true if f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
